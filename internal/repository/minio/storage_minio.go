package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/njprem/travelswipe/internal/repository/ports"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// ImageStorage writes package images into one bucket.
type ImageStorage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewImageStorage wraps client. publicBase, when set, replaces the client
// endpoint in returned URLs (for a CDN or reverse proxy in front of MinIO).
func NewImageStorage(client *minio.Client, bucket, publicBase string) *ImageStorage {
	return &ImageStorage{
		client:     client,
		bucket:     strings.TrimSpace(bucket),
		publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/"),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *ImageStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *ImageStorage) Upload(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put %s: %w", objectName, err)
	}
	return s.objectURL(info.Key), nil
}

func (s *ImageStorage) objectURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + s.bucket + "/" + key
	}
	u := s.client.EndpointURL()
	return u.Scheme + "://" + u.Host + "/" + s.bucket + "/" + key
}

var _ ports.ObjectStorage = (*ImageStorage)(nil)
