package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/eml-extract/config"
	"github.com/dhcgn/eml-extract/extract"
	"github.com/dhcgn/eml-extract/filter"
	"github.com/dhcgn/eml-extract/model"
	"github.com/dhcgn/eml-extract/progress"
	"github.com/dhcgn/eml-extract/runner"
	"github.com/dhcgn/eml-extract/scan"
	"github.com/dhcgn/eml-extract/stats"
)

var rootCmd = &cobra.Command{
	Use:   "eml-extract [files or directories]",
	Short: "Extract attachments from EML files into a structured output tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd)
		if err != nil {
			return err
		}

		logger, cleanup, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = cleanup()
		}()

		slog.SetDefault(logger)
		logger.Info("starting eml-extract",
			"inputs", len(args),
			"subjectSubfolder", cfg.SubjectSubfolder,
			"classifyByType", cfg.ClassifyByType)

		return run(cfg, args, logger)
	},
}

func main() {
	config.RegisterFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, args []string, logger *slog.Logger) error {
	inputs, err := scan.CollectInputs(args)
	if err != nil {
		return fmt.Errorf("collect inputs: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .eml files found in the given paths")
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = config.DefaultOutputDir(inputs[0])
		logger.Info("no output directory given, using default", "out", cfg.OutputDir)
	}

	f, err := filter.New(filter.Options{
		IncludeSubject: cfg.IncludeSubject,
		IncludeName:    cfg.IncludeName,
		ExcludeSubject: cfg.ExcludeSubject,
		ExcludeName:    cfg.ExcludeName,
	})
	if err != nil {
		return fmt.Errorf("create filter: %w", err)
	}

	extractor := extract.New(extract.Options{
		Filter:      f,
		SniffType:   cfg.SniffType,
		NoTypeLabel: cfg.NoTypeLabel,
	}, logger)

	r := runner.New(extractor, logger)
	stats.NewReporter(r, logger)

	bar := progress.New(len(inputs), cfg.LogLevel)
	progress.NewReporter(r, bar, cfg.OutputDir)

	requests := make([]model.ExtractionRequest, 0, len(inputs))
	for _, input := range inputs {
		requests = append(requests, model.ExtractionRequest{
			SourcePath:       input,
			OutputRoot:       cfg.OutputDir,
			SubjectSubfolder: cfg.SubjectSubfolder,
			ClassifyByType:   cfg.ClassifyByType,
		})
	}

	// Ctrl-C stops the batch between files, the file being written finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = r.Run(ctx, requests)
	bar.Stop()
	return err
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("eml-extract-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}
