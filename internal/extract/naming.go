// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const pdfExt = ".pdf"

// Prefix derives the output filename prefix from a PDF's base name: the
// .pdf suffix is dropped, spaces become hyphens, letters are lowercased,
// and the result is truncated to maxLen runes. Distinct inputs may map to
// the same prefix; callers do not detect the collision.
func Prefix(filename string, maxLen int) string {
	name := filename
	if hasPDFExt(name) {
		name = name[:len(name)-len(pdfExt)]
	}
	name = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	if r := []rune(name); maxLen > 0 && len(r) > maxLen {
		name = string(r[:maxLen])
	}
	return name
}

// PageFilename returns the PNG filename for page (1-based) of a document
// with the given prefix, e.g. "roadmap-page-007.png".
func PageFilename(prefix string, page int) string {
	return fmt.Sprintf("%s-page-%03d.png", prefix, page)
}

// DiscoverPDFs lists the PDF files directly inside dir, sorted by name.
// Subdirectories are not searched.
func DiscoverPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !hasPDFExt(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func hasPDFExt(name string) bool {
	return len(name) > len(pdfExt) && strings.EqualFold(name[len(name)-len(pdfExt):], pdfExt)
}
