// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish uploads a finished extraction run (its images and
// manifest) to S3-compatible object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/pageshot/internal/manifest"
	"github.com/pdiddy/pageshot/pkg/types"
)

// Content types for uploaded objects.
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
)

// Uploader stores a local file under key.
type Uploader interface {
	Upload(ctx context.Context, key, path, contentType string) (int64, error)
}

// S3Uploader uploads to a bucket through minio-go.
type S3Uploader struct {
	client *minio.Client
	bucket string
}

// NewS3Uploader connects to cfg.Endpoint and checks that the bucket exists.
func NewS3Uploader(ctx context.Context, cfg types.PublishConfig) (*S3Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload puts the file at path into the bucket under key.
func (u *S3Uploader) Upload(ctx context.Context, key, path, contentType string) (int64, error) {
	info, err := u.client.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("uploading %s to %s/%s: %w", path, u.bucket, key, err)
	}
	return info.Size, nil
}

// Result holds the outcome of a publish run.
type Result struct {
	Uploaded int
	Missing  int
	Failed   int
	Rejected int
	Bytes    int64
}

// HasFailures reports whether any manifest entry was not uploaded.
func (r Result) HasFailures() bool {
	return r.Missing > 0 || r.Failed > 0 || r.Rejected > 0
}

// PublishManifest uploads every image listed in the manifest under
// outputDir, then the manifest itself. Object keys are the file names
// joined to prefix. Missing or failed images are reported and counted; the
// manifest is uploaded last so readers never see entries that are not yet
// in the bucket. Entries that are not bare file names are rejected without
// touching the filesystem. A manifest that cannot be read or uploaded is an
// error.
func PublishManifest(ctx context.Context, up Uploader, outputDir, manifestName, prefix string, w io.Writer) (Result, error) {
	if w == nil {
		w = io.Discard
	}
	var result Result

	manifestPath := filepath.Join(outputDir, manifestName)
	names, err := manifest.Read(manifestPath)
	if err != nil {
		return result, err
	}
	fmt.Fprintf(w, "Publishing %d images\n", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !validName(name) {
			fmt.Fprintf(w, "  Rejected: %q\n", name)
			result.Rejected++
			continue
		}

		local := filepath.Join(outputDir, name)
		if _, err := os.Stat(local); errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(w, "  Missing: %s\n", name)
			result.Missing++
			continue
		}

		n, err := up.Upload(ctx, ObjectKey(prefix, name), local, ContentTypePNG)
		if err != nil {
			fmt.Fprintf(w, "  Failed: %s: %v\n", name, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "  Uploaded: %s\n", name)
		result.Uploaded++
		result.Bytes += n
	}

	n, err := up.Upload(ctx, ObjectKey(prefix, manifestName), manifestPath, ContentTypeJSON)
	if err != nil {
		return result, fmt.Errorf("uploading manifest: %w", err)
	}
	result.Bytes += n

	fmt.Fprintf(w, "\nPublished %d images (%s), %d missing, %d failed, %d rejected\n",
		result.Uploaded, humanize.Bytes(uint64(result.Bytes)), result.Missing, result.Failed, result.Rejected)
	return result, nil
}

// validName reports whether name is a plain file name inside the output
// directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && path.Base(name) == name
}

// ObjectKey joins prefix and name with forward slashes.
func ObjectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
