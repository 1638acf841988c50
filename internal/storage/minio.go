package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

// MinIOStorage stores assets in an S3-compatible bucket with anonymous read access.
type MinIOStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIO validates connectivity and creates the bucket when it is missing.
func NewMinIO(ctx context.Context, cfg config.StorageConfig) (*MinIOStorage, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.MinIOBucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		if err := cli.SetBucketPolicy(ctx, cfg.MinIOBucket, fmt.Sprintf(publicReadPolicy, cfg.MinIOBucket)); err != nil {
			return nil, fmt.Errorf("set bucket policy: %w", err)
		}
	}

	return &MinIOStorage{
		client:    cli,
		bucket:    cfg.MinIOBucket,
		publicURL: minioPublicBase(cfg),
	}, nil
}

func minioPublicBase(cfg config.StorageConfig) string {
	if cfg.MinIOPublicURL != "" {
		return strings.TrimRight(cfg.MinIOPublicURL, "/")
	}
	scheme := "http"
	if cfg.MinIOUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.MinIOEndpoint, cfg.MinIOBucket)
}

func (m *MinIOStorage) Name() string {
	return "minio"
}

func (m *MinIOStorage) Upload(ctx context.Context, r io.Reader, obj Object) (*Asset, error) {
	key := objectKey(obj)

	info, err := m.client.PutObject(ctx, m.bucket, key, r, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio upload: %w", err)
	}

	return &Asset{
		URL:      m.publicURL + "/" + key,
		PublicID: key,
		Bytes:    info.Size,
		Format:   formatOf(obj.Filename),
	}, nil
}

func (m *MinIOStorage) Delete(ctx context.Context, publicID, _ string) error {
	return m.client.RemoveObject(ctx, m.bucket, publicID, minio.RemoveObjectOptions{})
}
