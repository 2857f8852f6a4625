package assets

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lovenotes/anniversary/internal/config"
)

// MinIOUploader stores images in a MinIO (or any S3-compatible) bucket that
// is readable by the public.
type MinIOUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIOUploader creates a MinIO client and ensures the bucket exists.
// publicBaseURL prefixes object keys; when empty, <endpoint>/<bucket> is used.
func NewMinIOUploader(cfg config.MinIOConfig, publicBaseURL string) (*MinIOUploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	u := &MinIOUploader{client: mc, bucket: cfg.Bucket, baseURL: minioBaseURL(cfg, publicBaseURL)}

	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, u.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return u, nil
}

func (u *MinIOUploader) Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error) {
	key := objectKey(p.Name)
	tracker := newProgressTracker(int64(len(p.Data)), progress)
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(p.Data), int64(len(p.Data)), minio.PutObjectOptions{
		ContentType: p.DetectedContentType(),
		Progress:    progressSink{t: tracker},
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	tracker.finish()
	return u.baseURL + "/" + key, nil
}

func minioBaseURL(cfg config.MinIOConfig, publicBaseURL string) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return objectBaseURL(publicBaseURL, scheme+"://"+cfg.Endpoint, cfg.Bucket)
}
