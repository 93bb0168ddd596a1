// Package gcsarchive stores original invoice PDFs in a Cloud Storage
// bucket so every stored transaction can be traced back to its source
// document.
package gcsarchive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Archive wraps the bucket holding original PDFs. It assumes
// Application Default Credentials are configured.
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
}

// New connects to the bucket. Objects are written under prefix, which
// defaults to "invoices" when empty.
func New(ctx context.Context, bucket, prefix string) (*Archive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "invoices"
	}

	return &Archive{client: client, bucket: bucket, prefix: prefix}, nil
}

func (a *Archive) Close() error {
	return a.client.Close()
}

// Put stores the PDF under a fresh object name and returns its gs://
// URI. The original filename travels as object metadata.
func (a *Archive) Put(ctx context.Context, filename string, data []byte) (string, error) {
	objectName := a.prefix + "/" + uuid.NewString() + ".pdf"

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if filename != "" {
		w.Metadata = map[string]string{"original_filename": filename}
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

// Get downloads the object a gs:// URI points at.
func (a *Archive) Get(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := parseURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading bytes: %w", err)
	}

	return data, nil
}

func parseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// Filename extracts the final path element of a gs:// URI, e.g.
// "gs://bucket/invoices/abc.pdf" yields "abc.pdf".
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
