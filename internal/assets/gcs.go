package assets

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicBase = "https://storage.googleapis.com"

// gcsChunkSize keeps resumable chunks small enough for progress callbacks
// to fire during typical photo uploads.
const gcsChunkSize = 256 * 1024

// GCSUploader stores images in a publicly readable Cloud Storage bucket.
type GCSUploader struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSUploader creates a storage client. An empty credentialsFile falls back
// to application default credentials.
func NewGCSUploader(ctx context.Context, bucket, credentialsFile, publicBaseURL string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket must be provided")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, baseURL: objectBaseURL(publicBaseURL, gcsPublicBase, bucket)}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error) {
	key := objectKey(p.Name)
	tracker := newProgressTracker(int64(len(p.Data)), progress)

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = p.DetectedContentType()
	w.ChunkSize = gcsChunkSize
	w.ProgressFunc = tracker.set

	if _, err := w.Write(p.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs finalize %s: %w", key, err)
	}
	tracker.finish()
	return u.baseURL + "/" + key, nil
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
