// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pageshot/internal/secrets"
	"github.com/pdiddy/pageshot/pkg/types"
)

const (
	defaultSourceDir = "pdfs"
	defaultOutputDir = "public/feature-shots"
)

// setDefaults registers every config key with viper so that environment
// variables resolve even without a config file.
func setDefaults() {
	d := types.DefaultExtractConfig()
	viper.SetDefault("extract.source_dir", defaultSourceDir)
	viper.SetDefault("extract.output_dir", defaultOutputDir)
	viper.SetDefault("extract.scale", d.Scale)
	viper.SetDefault("extract.prefix_max_len", d.PrefixMaxLen)
	viper.SetDefault("extract.manifest_name", d.ManifestName)
	viper.SetDefault("extract.backend", string(d.Backend))
	viper.SetDefault("extract.max_pixels", d.MaxPixels)
	viper.SetDefault("extract.compression", string(d.Compression))

	viper.SetDefault("catalog.path", "")

	viper.SetDefault("publish.endpoint", "")
	viper.SetDefault("publish.bucket", "")
	viper.SetDefault("publish.region", "")
	viper.SetDefault("publish.key_prefix", "")
	viper.SetDefault("publish.insecure", false)
	viper.SetDefault("publish.access_key", "")
	viper.SetDefault("publish.secret_key", "")
}

// loadConfig returns the effective configuration: defaults, then the config
// file, then PAGESHOT_* variables, then bound flags. Credentials missing
// from the config fall back to .secrets/ and the environment.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	access, secret := secrets.S3Credentials(loadedSecrets)
	if cfg.Publish.AccessKey == "" {
		cfg.Publish.AccessKey = access
	}
	if cfg.Publish.SecretKey == "" {
		cfg.Publish.SecretKey = secret
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after defaults, the config file,
PAGESHOT_* environment variables, and secrets are applied. Credentials
are never printed.`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
