package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// parseGCSPath splits gs://bucket/object.  ok is false for anything else.
func parseGCSPath(p string) (bucket, object string, ok bool, err error) {
	rest := strings.TrimPrefix(p, "gs://")
	if rest == p {
		return "", "", false, nil
	}

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", true, fmt.Errorf("%q is not of the form gs://bucket/object", p)
	}
	return parts[0], parts[1], true, nil
}

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *gcsWriter) Close() error {
	defer w.client.Close()
	if err := w.Writer.Close(); err != nil {
		return fmt.Errorf("while finalizing upload: %w", err)
	}
	return nil
}

// createOutput opens a local file or a GCS object for writing.  Nothing is
// visible in GCS until Close returns without error.
func createOutput(ctx context.Context, p string) (io.WriteCloser, error) {
	bucket, object, isGCS, err := parseGCSPath(p)
	if err != nil {
		return nil, err
	}

	if isGCS {
		client, err := storage.NewClient(ctx, option.WithUserAgent(*userAgent))
		if err != nil {
			return nil, fmt.Errorf("while creating GCS client: %w", err)
		}

		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType(object)
		return &gcsWriter{Writer: w, client: client}, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, fmt.Errorf("while creating output directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("while opening output file: %w", err)
	}
	return f, nil
}

func contentType(object string) string {
	switch path.Ext(object) {
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
