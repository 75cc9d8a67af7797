// Command quotes-api serves the quotes REST API and provides maintenance
// subcommands for the schema and the canonical seed data.
//
//	@title						Quotes API
//	@version					1.0
//	@description				CRUD service for quotes with pagination, validation and a uniform response envelope.
//	@BasePath					/
//	@schemes					http https
//	@accept						json
//	@produce					json
//	@tag.name					quotes
//	@tag.description			Create, list, fetch and delete quotes
//	@tag.name					health
//	@tag.description			Liveness and readiness probes
package main

import (
	"fmt"
	"os"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0" ./cmd/quotes-api
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
