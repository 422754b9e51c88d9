// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pageshot/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.CatalogConfig{Path: filepath.Join(t.TempDir(), "index", "pageshot.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(started time.Time, images ...types.ExtractedImage) Run {
	return Run{
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		SourceDir:  "pdfs",
		OutputDir:  "public/feature-shots",
		Scale:      2.0,
		Backend:    "fitz",
		Documents:  2,
		Failed:     1,
		Images:     images,
	}
}

func TestRecordRunAndImages(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	images := []types.ExtractedImage{
		{Filename: "b-page-001.png", Document: "b.pdf", Page: 1, Width: 1224, Height: 1584, Bytes: 2048, Checksum: "00000000000000aa"},
		{Filename: "a-page-001.png", Document: "a.pdf", Page: 1, Width: 100, Height: 50, Bytes: 512, Checksum: "00000000000000bb"},
		{Filename: "a-page-002.png", Document: "a.pdf", Page: 2, Width: 100, Height: 50, Bytes: 640, Checksum: "00000000000000cc"},
	}
	id, err := s.RecordRun(ctx, sampleRun(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), images...))
	require.NoError(t, err)
	assert.Len(t, id, 36, "generated IDs are UUIDs")

	got, err := s.Images(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, images, got, "images come back in manifest order")

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 3, runs[0].ImageCount)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Equal(t, "fitz", runs[0].Backend)
	assert.True(t, runs[0].StartedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestRecordRun_KeepsGivenID(t *testing.T) {
	s := openStore(t)
	run := sampleRun(time.Now())
	run.ID = "run-fixed"

	id, err := s.RecordRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", id)

	_, err = s.RecordRun(context.Background(), run)
	assert.Error(t, err, "duplicate run IDs are rejected")
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.RecordRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestRuns_CorruptTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		started  string
		finished string
		column   string
	}{
		{"started_at", "yesterday", "2026-03-01T12:00:03Z", "started_at"},
		{"finished_at", "2026-03-01T12:00:00Z", "", "finished_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t)
			_, err := s.db.Exec(
				`INSERT INTO runs (id, started_at, finished_at, source_dir, output_dir, scale, backend, documents, failed, images)
				 VALUES ('run-bad', ?, ?, 'pdfs', 'out', 2.0, 'fitz', 1, 0, 0)`,
				tt.started, tt.finished)
			require.NoError(t, err)

			runs, err := s.Runs(context.Background(), 0)
			require.Error(t, err)
			assert.Nil(t, runs)
			assert.Contains(t, err.Error(), "run-bad")
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestImages_UnknownRun(t *testing.T) {
	s := openStore(t)
	_, err := s.Images(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImages_EmptyRun(t *testing.T) {
	s := openStore(t)
	id, err := s.RecordRun(context.Background(), sampleRun(time.Now()))
	require.NoError(t, err)

	got, err := s.Images(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(types.CatalogConfig{})
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageshot.db")
	s, err := Open(types.CatalogConfig{Path: path})
	require.NoError(t, err)
	id, err := s.RecordRun(context.Background(), sampleRun(time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.CatalogConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}
