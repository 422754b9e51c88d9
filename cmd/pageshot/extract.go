// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pageshot/internal/catalog"
	"github.com/pdiddy/pageshot/internal/extract"
	"github.com/pdiddy/pageshot/internal/raster"
	"github.com/pdiddy/pageshot/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Render every page of every PDF in the source directory to PNG",
	Long: `Extract scans the source directory (non-recursively) for .pdf files,
renders each page at the configured scale onto a white background, and
writes {prefix}-page-{NNN}.png files plus a manifest.json listing them
to the output directory.

Pages and documents that fail are reported and skipped. The command
fails only when the configuration is invalid or the output directory or
manifest cannot be written. When the rasterizer is not available on this
host, nothing is rendered and an empty manifest is written.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("source-dir", "", "directory scanned for .pdf files (default pdfs)")
	f.String("output-dir", "", "directory receiving images and the manifest (default public/feature-shots)")
	f.Float64("scale", 0, "pixels per PDF point (default 2.0)")
	f.String("backend", "", "rasterizer backend: fitz or poppler (default fitz)")
	f.String("compression", "", "PNG compression: default, speed, or best")
	f.String("catalog", "", "record the run in this SQLite catalog")

	bindFlag("extract.source_dir", f.Lookup("source-dir"))
	bindFlag("extract.output_dir", f.Lookup("output-dir"))
	bindFlag("extract.scale", f.Lookup("scale"))
	bindFlag("extract.backend", f.Lookup("backend"))
	bindFlag("extract.compression", f.Lookup("compression"))
	bindFlag("catalog.path", f.Lookup("catalog"))

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Extract.Validate(); err != nil {
		return fmt.Errorf("invalid extract configuration: %w", err)
	}

	r, err := raster.New(cfg.Extract.Backend)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	ex := extract.New(r, cfg.Extract, os.Stdout, logger)
	result, err := ex.RunBatch(ctx)
	if err != nil {
		return err
	}
	logger.Info("extraction finished",
		zap.Int("documents", result.Total()),
		zap.Int("failed", result.Failed),
		zap.Int("page_failures", result.PageFailures),
		zap.Int("images", len(result.Images)),
		zap.Duration("elapsed", time.Since(started)))

	if cfg.Catalog.Path != "" {
		if err := recordRun(ctx, cfg, result, started); err != nil {
			return err
		}
	}
	return nil
}

// recordRun stores a finished run in the catalog and prints its ID.
func recordRun(ctx context.Context, cfg types.Config, result extract.BatchResult, started time.Time) error {
	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	source, _ := filepath.Abs(cfg.Extract.SourceDir)
	output, _ := filepath.Abs(cfg.Extract.OutputDir)
	id, err := store.RecordRun(ctx, catalog.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		SourceDir:  source,
		OutputDir:  output,
		Scale:      cfg.Extract.Scale,
		Backend:    string(cfg.Extract.Backend),
		Documents:  result.Total(),
		Failed:     result.Failed,
		Images:     result.Images,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Run: %s\n", id)
	return nil
}
