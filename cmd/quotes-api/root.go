package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-quotes-api/internal/config"
	"github.com/tbourn/go-quotes-api/internal/sysutil"
)

// app carries what every subcommand needs after the persistent pre-run.
type app struct {
	envFile string
	version string

	cfg      config.Config
	log      zerolog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "quotes-api",
		Short:         "Quotes REST API",
		Long:          "quotes-api serves the quotes CRUD API backed by SQLite or PostgreSQL.",
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before configuration (missing file is ignored)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
	)
	return root
}

// bootstrap loads the dotenv file, configuration and logging, in that order.
func (a *app) bootstrap() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.version = sysutil.BuildVersion(Version)

	a.log, a.closeLog = sysutil.SetupLogging(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		ErrorFile:  cfg.LogErrorFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Service:    cfg.OTEL.ServiceName,
		Version:    a.version,
	})
	return nil
}
