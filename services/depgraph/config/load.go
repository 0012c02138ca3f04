// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// MaxFileSize bounds external configuration files.
const MaxFileSize = 1 << 20

// Environment variables read by Load.
const (
	EnvConfigPath      = "DEPGRAPH_CONFIG"
	EnvMaxIterations   = "DEPGRAPH_MAX_ITERATIONS"
	EnvHotspot         = "DEPGRAPH_HOTSPOT_THRESHOLD"
	EnvIncludeExternal = "DEPGRAPH_INCLUDE_EXTERNAL"
	EnvWorkers         = "DEPGRAPH_WORKERS"
)

// DefaultFileName is looked up in the working directory when no path is
// given.
const DefaultFileName = "depgraph.yaml"

var tracer = otel.Tracer("depgraph.config")

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Source describes where a loaded configuration came from.
type Source struct {
	// Path of the overlay file, empty when only defaults were used.
	Path string
	// Env lists the environment variables that overrode values.
	Env []string
}

// Load builds the effective configuration.
//
// # Description
//
// Starts from the embedded defaults and overlays, in order: the file at
// path (or DEPGRAPH_CONFIG, or ./depgraph.yaml when it exists), then the
// DEPGRAPH_* environment overrides. The result is validated.
//
// An explicit path or DEPGRAPH_CONFIG that cannot be read is an error;
// a missing ./depgraph.yaml is not.
//
// # Inputs
//
//   - ctx: Used for tracing.
//   - path: Optional overlay file.
//   - lookup: Environment lookup, normally os.LookupEnv.
//
// # Outputs
//
//   - *Config: Validated configuration.
//   - Source: Where values came from.
//   - error: Read, parse or ErrInvalidConfig errors.
func Load(ctx context.Context, path string, lookup func(string) (string, bool)) (*Config, Source, error) {
	ctx, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	var src Source
	cfg, err := Default()
	if err != nil {
		return nil, src, err
	}

	explicit := path != ""
	if !explicit {
		if env, ok := lookup(EnvConfigPath); ok && env != "" {
			path, explicit = env, true
		} else if _, statErr := os.Stat(DefaultFileName); statErr == nil {
			path = DefaultFileName
		}
	}

	if path != "" {
		data, err := readFile(ctx, path)
		if err != nil {
			return nil, src, err
		}
		if err := Overlay(cfg, data); err != nil {
			return nil, src, fmt.Errorf("%s: %w", path, err)
		}
		src.Path = path
		slog.Info("loaded configuration file", slog.String("path", path))
	}

	env, err := ApplyEnv(cfg, lookup)
	if err != nil {
		return nil, src, err
	}
	src.Env = env

	if err := cfg.Validate(); err != nil {
		return nil, src, err
	}
	span.SetAttributes(
		attribute.String("config.path", src.Path),
		attribute.Int("config.env_overrides", len(src.Env)),
	)
	return cfg, src, nil
}

// Overlay decodes a YAML document on top of cfg. Keys present in data
// replace the corresponding values; lists are replaced, not merged.
// Unknown keys are rejected.
func Overlay(cfg *Config, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv applies DEPGRAPH_* overrides and returns the variables used.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) ([]string, error) {
	var used []string

	intVar := func(name string, dst ...*int) error {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, name, v)
		}
		for _, d := range dst {
			*d = n
		}
		used = append(used, name)
		return nil
	}

	if err := intVar(EnvMaxIterations, &cfg.DeadCode.MaxIterations); err != nil {
		return nil, err
	}
	if err := intVar(EnvHotspot, &cfg.Report.HotspotThreshold); err != nil {
		return nil, err
	}
	if err := intVar(EnvWorkers, &cfg.DeadCode.Workers, &cfg.Classify.Workers); err != nil {
		return nil, err
	}
	if v, ok := lookup(EnvIncludeExternal); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvIncludeExternal, v)
		}
		cfg.Graph.IncludeExternalTargets = b
		used = append(used, EnvIncludeExternal)
	}
	return used, nil
}

// readFile reads an external YAML file after checking its size.
func readFile(ctx context.Context, path string) ([]byte, error) {
	_, span := tracer.Start(ctx, "config.ReadFile",
		trace.WithAttributes(attribute.String("path", path)),
	)
	defer span.End()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidConfig, absPath)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: config file too large: %d bytes (max %d)",
			ErrInvalidConfig, info.Size(), MaxFileSize)
	}
	span.SetAttributes(attribute.Int64("file_size", info.Size()))

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", absPath, err)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return data, nil
}
