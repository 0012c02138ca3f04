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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/pkg/ux"
	"github.com/AleutianAI/depgraph/services/depgraph/engine"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/report"
	"github.com/AleutianAI/depgraph/services/depgraph/watch"
)

var (
	outputFormat string
	outputPath   string
	inputFormat  string
	summaryLimit int
	failOnDead   bool
	debounce     time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <graph.json|graph.yaml|->",
	Short: "Analyse a dependency graph and print the report",
	Long: `Reads a graph mapping each unit id to the ids it references directly,
then reports dead code, orphans, hotspots and per-package counts.

Use - to read the graph from stdin (JSON unless --input-format says otherwise).`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var watchCmd = &cobra.Command{
	Use:   "watch <graph.json|graph.yaml>",
	Short: "Re-run the analysis whenever the graph file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if app.source.Path != "" {
			fmt.Fprintf(out, "# file: %s\n", app.source.Path)
		}
		for _, env := range app.source.Env {
			fmt.Fprintf(out, "# env: %s\n", env)
		}
		return app.cfg.WriteYAML(out)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, watchCmd} {
		cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: json, yaml, text")
		cmd.Flags().IntVar(&summaryLimit, "limit", report.DefaultSummaryLimit, "entries per list in text output")
	}
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&inputFormat, "input-format", "", "graph encoding: json, yaml (default from extension)")
	analyzeCmd.Flags().BoolVar(&failOnDead, "fail-on-dead", false, "exit non-zero when dead code is found")
	watchCmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "quiet period before re-running")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	eng, err := engine.New(app.cfg, app.logger.Slog())
	if err != nil {
		return err
	}

	raw, err := readGraph(args[0], inputFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}
	var res *engine.Result
	msg := fmt.Sprintf("analysing %d nodes", len(raw))
	err = ux.WithSpinner(os.Stderr, ux.GetMode().Resolve(os.Stderr), msg, func() error {
		res, err = eng.Analyze(cmd.Context(), raw)
		return err
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		if err := writeReport(os.Stdout, res.Report, format); err != nil {
			return err
		}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		if err := report.Encode(f, res.Report, format); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing output: %w", err)
		}
		app.logger.Info("report written", slog.String("path", outputPath), slog.String("run_id", res.RunID))
	}

	if failOnDead && res.Report.Summary.Dead > 0 {
		return fmt.Errorf("%d dead nodes found", res.Report.Summary.Dead)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	eng, err := engine.New(app.cfg, app.logger.Slog())
	if err != nil {
		return err
	}
	logger := app.logger.Slog()
	path := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func(ctx context.Context) {
		raw, err := readGraph(path, "", nil)
		if err != nil {
			logger.Warn("reading graph", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		res, err := eng.Analyze(ctx, raw)
		if err != nil {
			logger.Error("analysis failed", slog.String("error", err.Error()))
			return
		}
		if err := writeReport(os.Stdout, res.Report, format); err != nil {
			logger.Error("writing report", slog.String("error", err.Error()))
		}
	}

	rerun(ctx)

	w, err := watch.New(path, func(ctx context.Context, c watch.Change) {
		if c.Op == watch.OpRemove {
			logger.Warn("graph file removed, waiting for it to return", slog.String("path", c.Path))
			return
		}
		logger.Info("graph changed", slog.String("op", c.Op.String()), slog.Int("events", c.Events))
		rerun(ctx)
	}, &watch.Options{Debounce: debounce, Logger: logger})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching", slog.String("path", w.Path()))
	<-ctx.Done()
	return nil
}

// readGraph decodes the graph at path, or from stdin when path is "-".
func readGraph(path, format string, stdin io.Reader) (graph.Raw, error) {
	if path == "-" {
		if format == "" {
			format = "json"
		}
		if stdin == nil {
			stdin = os.Stdin
		}
		return graph.Decode(stdin, format)
	}
	if format == "" {
		format = graph.FormatFromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graph: %w", err)
	}
	defer f.Close()
	return graph.Decode(f, format)
}

// writeReport writes rep to f. Text output is styled only when f is a
// terminal and the color mode allows it.
func writeReport(f *os.File, rep *report.Report, format report.Format) error {
	if format != report.FormatText {
		return report.Encode(f, rep, format)
	}
	mode := ux.GetMode().Resolve(f)
	report.RenderSummary(ux.NewPrinter(f, mode), rep, summaryLimit)
	return nil
}
