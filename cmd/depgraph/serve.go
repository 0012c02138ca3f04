// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/services/depgraph"
	"github.com/AleutianAI/depgraph/services/depgraph/engine"
	"github.com/AleutianAI/depgraph/services/depgraph/storage/badger"
	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

var (
	servePort     int
	cacheDir      string
	cacheTTL      time.Duration
	noCache       bool
	rateLimit     float64
	rateBurst     int
	shutdownGrace time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis server",
	Long: `Serves POST /v1/depgraph/analyze, GET /v1/depgraph/health,
GET /v1/depgraph/config and, with the prometheus exporter, GET /metrics.

Reports are cached in memory unless --cache-dir is given.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	defaults := depgraph.DefaultServiceConfig()
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "listen port")
	serveCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist the report cache in this directory")
	serveCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", badger.DefaultTTL, "report cache entry lifetime")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the report cache")
	serveCmd.Flags().Float64Var(&rateLimit, "rate-limit", defaults.RateLimit, "requests per second, 0 disables limiting")
	serveCmd.Flags().IntVar(&rateBurst, "rate-burst", defaults.RateBurst, "rate limiter burst size")
	serveCmd.Flags().DurationVar(&shutdownGrace, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := app.logger.Slog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	eng, err := engine.New(app.cfg, logger)
	if err != nil {
		return err
	}

	var cache *badger.ResultCache
	if !noCache {
		dbCfg := badger.InMemoryConfig()
		if cacheDir != "" {
			dbCfg = badger.DefaultConfig(cacheDir)
		}
		dbCfg.Logger = logger.With(slog.String("component", "badger"))
		db, err := badger.Open(dbCfg)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()
		cache = badger.NewResultCache(db, cacheTTL)
	}

	opts := depgraph.DefaultServiceConfig()
	opts.RateLimit = rateLimit
	opts.RateBurst = rateBurst
	svc, err := depgraph.NewService(eng, cache, opts, logger)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := depgraph.NewRouter(svc, depgraph.NewHandlers(svc, logger))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", servePort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("depgraph server listening",
			slog.String("addr", srv.Addr),
			slog.Bool("cache", cache != nil),
			slog.String("cache_dir", cacheDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
