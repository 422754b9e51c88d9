// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads and writes the run manifest: a JSON array of the
// PNG filenames produced by a run, in processing order.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/pageshot/internal/fsutil"
)

// Write replaces the manifest at path with filenames. A nil slice is
// written as an empty array.
func Write(path string, filenames []string) error {
	if filenames == nil {
		filenames = []string{}
	}
	data, err := json.MarshalIndent(filenames, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// Read returns the filenames listed in the manifest at path.
func Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var filenames []string
	if err := json.Unmarshal(data, &filenames); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if filenames == nil {
		filenames = []string{}
	}
	return filenames, nil
}
