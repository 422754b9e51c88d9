// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: s3-access-key, s3-secret-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Key file names.
const (
	S3AccessKey = "s3-access-key"
	S3SecretKey = "s3-secret-key"
)

// Environment fallbacks for the key files, usually set through a .env file.
const (
	EnvS3AccessKey = "PAGESHOT_S3_ACCESS_KEY"
	EnvS3SecretKey = "PAGESHOT_S3_SECRET_KEY"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv loads path into the process environment. Variables that are
// already set keep their values. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// S3Credentials returns the access and secret keys from the loaded secret
// files, falling back to the environment.
func S3Credentials(secrets map[string]string) (access, secret string) {
	access = secrets[S3AccessKey]
	if access == "" {
		access = os.Getenv(EnvS3AccessKey)
	}
	secret = secrets[S3SecretKey]
	if secret == "" {
		secret = os.Getenv(EnvS3SecretKey)
	}
	return access, secret
}
