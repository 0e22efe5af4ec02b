// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"

	"mathnb/cli/internal/backend"
	"mathnb/cli/internal/manifest"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

// printVersion prints the CLI version and, when reachable, the server version.
func printVersion(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m := manifest.GetEndpoints(ctx, settings.Server, logger)
	be := backend.New(settings.Server, m.HTTP, backend.WithLogger(logger))
	serverVersion, err := be.GetVersion(ctx)
	if err != nil {
		logger.Debug("server version unavailable")
		serverVersion = "unknown"
	}
	pterm.Printf("mathnb %s\nserver %s\n", Version, serverVersion)
	return nil
}
