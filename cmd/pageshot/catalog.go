// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pageshot/internal/catalog"
	"github.com/pdiddy/pageshot/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect recorded extraction runs",
	Long: `Catalog reads the SQLite run catalog written by extract --catalog (or
catalog.path in the config file).`,
}

// --- runs subcommand ---

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent extraction runs, newest first",
	RunE:  runCatalogRuns,
}

func runCatalogRuns(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return writeJSON(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-8s  %5s  %4s  %6s  %s\n",
		"Run", "Started", "Backend", "Docs", "Fail", "Images", "Age")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-8s  %5d  %4d  %6d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Backend,
			r.Documents, r.Failed, r.ImageCount, humanize.Time(r.StartedAt))
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- images subcommand ---

var catalogImagesCmd = &cobra.Command{
	Use:   "images <run-id>",
	Short: "List the images produced by a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImages,
}

func runCatalogImages(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := store.Images(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return writeJSON(images)
	}

	fmt.Fprintf(os.Stdout, "%-40s  %-30s  %4s  %11s  %8s  %s\n",
		"Image", "Document", "Page", "Size", "Bytes", "Checksum")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	var total int64
	for _, img := range images {
		doc := img.Document
		if len(doc) > 30 {
			doc = doc[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-30s  %4d  %11s  %8s  %s\n",
			img.Filename, doc, img.Page, fmt.Sprintf("%dx%d", img.Width, img.Height),
			humanize.Bytes(uint64(img.Bytes)), img.Checksum)
		total += img.Bytes
	}
	fmt.Fprintf(os.Stdout, "\n%d images (%s)\n", len(images), humanize.Bytes(uint64(total)))
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		path = cfg.Catalog.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no catalog configured: pass --catalog or set catalog.path")
	}
	return catalog.Open(types.CatalogConfig{Path: path})
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	catalogCmd.PersistentFlags().String("catalog", "", "SQLite catalog path (default catalog.path)")
	catalogCmd.PersistentFlags().Bool("json", false, "output as JSON")

	catalogRunsCmd.Flags().Int("limit", 20, "maximum number of runs")

	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogImagesCmd)

	rootCmd.AddCommand(catalogCmd)
}
