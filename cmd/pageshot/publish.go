// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pageshot/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the images and manifest of the last run to S3-compatible storage",
	Long: `Publish reads the manifest in the output directory and uploads every
listed image, then the manifest itself, to the configured bucket under
publish.key_prefix. Images listed in the manifest but missing on disk
are reported and skipped.

Credentials come from publish.access_key / publish.secret_key, the
.secrets/s3-access-key and .secrets/s3-secret-key files, or the
PAGESHOT_S3_ACCESS_KEY / PAGESHOT_S3_SECRET_KEY variables (a .env file
is loaded at startup).`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.String("endpoint", "", "S3 endpoint host[:port]")
	f.String("bucket", "", "destination bucket")
	f.String("key-prefix", "", "object key prefix")
	f.Bool("insecure", false, "use plain HTTP")

	bindFlag("publish.endpoint", f.Lookup("endpoint"))
	bindFlag("publish.bucket", f.Lookup("bucket"))
	bindFlag("publish.key_prefix", f.Lookup("key-prefix"))
	bindFlag("publish.insecure", f.Lookup("insecure"))

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	up, err := publish.NewS3Uploader(ctx, cfg.Publish)
	if err != nil {
		return err
	}

	result, err := publish.PublishManifest(ctx, up, cfg.Extract.OutputDir, cfg.Extract.ManifestName,
		cfg.Publish.KeyPrefix, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d image(s) missing, %d failed to upload, %d rejected",
			result.Missing, result.Failed, result.Rejected)
	}
	return nil
}
