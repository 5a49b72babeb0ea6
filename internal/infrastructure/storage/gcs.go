package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/sangkips/receiptflow-api/internal/config"
	"google.golang.org/api/option"
)

// objectWriter is the subset of *gcs.Writer the uploader relies on.
type objectWriter interface {
	io.Writer
	Close() error
}

// GCSUploader stores documents as objects in a Cloud Storage bucket. The
// bucket is expected to allow public reads for the returned URLs to resolve.
type GCSUploader struct {
	client    *gcs.Client
	bucket    string
	prefix    string
	newWriter func(ctx context.Context, object string) objectWriter
}

// NewGCSUploader constructs a Cloud Storage client from cfg.
func NewGCSUploader(ctx context.Context, cfg config.StorageConfig) (*GCSUploader, error) {
	bucket := strings.TrimSpace(cfg.GCSBucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create client: %w", err)
	}

	u := &GCSUploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(cfg.Folder, "/"),
	}
	u.newWriter = u.bucketWriter
	return u, nil
}

func (u *GCSUploader) bucketWriter(ctx context.Context, object string) objectWriter {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = DocumentContentType
	w.CacheControl = "no-cache"
	return w
}

// Upload writes data to prefix/objectID. Cloud Storage replaces an existing
// object of the same name atomically.
func (u *GCSUploader) Upload(ctx context.Context, objectID string, data []byte) (string, error) {
	if objectID == "" {
		return "", errors.New("storage: object name is required")
	}
	object := path.Join(u.prefix, objectID)

	w := u.newWriter(ctx, object)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: failed to write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: failed to finalize %s: %w", object, err)
	}
	return PublicURL(u.bucket, object), nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

// PublicURL is the anonymous download URL of object in bucket.
func PublicURL(bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(segments, "/")
}
