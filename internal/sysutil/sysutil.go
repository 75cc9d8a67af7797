// Package sysutil holds process-level helpers: global logger setup, level
// parsing and build metadata used while bootstrapping.
package sysutil

import (
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps LOG_LEVEL to a zerolog level. Blank and unknown values
// mean info; "warning" is accepted for warn.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLogLevel sets the zerolog global level from a LOG_LEVEL value.
func SetLogLevel(s string) {
	zerolog.SetGlobalLevel(ParseLevel(s))
}

// IsTruthy reports whether v reads as true: 1, true, yes, y or on, in any
// case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// BuildVersion returns version unless it is blank or "dev", in which case the
// main module version recorded by the toolchain is used when available.
func BuildVersion(version string) string {
	if version != "" && version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	if version == "" {
		return "dev"
	}
	return version
}
