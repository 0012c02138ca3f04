// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command depgraph analyses a file-level dependency graph for dead code,
// blast radius and hotspots.
//
// Usage:
//
//	depgraph analyze graph.json
//	depgraph analyze --format yaml --output report.yaml graph.yaml
//	cat graph.json | depgraph analyze -
//	depgraph watch graph.json
//	depgraph serve --port 8080 --cache-dir ~/.depgraph/cache
//	depgraph config
//
// A .env file in the working directory is loaded before the environment
// is read.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/pkg/logging"
	"github.com/AleutianAI/depgraph/pkg/ux"
	"github.com/AleutianAI/depgraph/services/depgraph/config"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
	logDir     string
)

// app holds what every subcommand needs after PersistentPreRunE.
var app struct {
	cfg    *config.Config
	source config.Source
	logger *logging.Logger
}

var rootCmd = &cobra.Command{
	Use:           "depgraph",
	Short:         "Dead-code and blast-radius analysis for dependency graphs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		ux.InitMode()

		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger, err := logging.New(logging.Config{
			Level:   level,
			LogDir:  logDir,
			Service: "depgraph",
			JSON:    logJSON,
		})
		if err != nil {
			return err
		}
		slog.SetDefault(logger.Slog())

		cfg, src, err := config.Load(cmd.Context(), configPath, os.LookupEnv)
		if err != nil {
			_ = logger.Close()
			return err
		}
		app.cfg, app.source, app.logger = cfg, src, logger
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.logger != nil {
			return app.logger.Close()
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (default $DEPGRAPH_CONFIG or ./depgraph.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&logJSON, "log-json", false, "write console logs as JSON")
	flags.StringVar(&logDir, "log-dir", "", "also write JSON logs to this directory")

	rootCmd.AddCommand(analyzeCmd, watchCmd, serveCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
