package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	client        *s3.S3
	uploader      *s3manager.Uploader
	bucket        string
	region        string
	endpoint      string
	cloudFrontURL string
}

func NewS3(cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.S3Bucket == "" || cfg.S3Region == "" {
		return nil, fmt.Errorf("s3 bucket and region are required")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return newS3WithSession(sess, cfg), nil
}

func newS3WithSession(sess *session.Session, cfg config.StorageConfig) *S3Storage {
	return &S3Storage{
		client:        s3.New(sess),
		uploader:      s3manager.NewUploader(sess),
		bucket:        cfg.S3Bucket,
		region:        cfg.S3Region,
		endpoint:      strings.TrimRight(cfg.S3Endpoint, "/"),
		cloudFrontURL: strings.TrimRight(cfg.CloudFrontURL, "/"),
	}
}

func (s *S3Storage) Name() string {
	return "s3"
}

func (s *S3Storage) Upload(ctx context.Context, r io.Reader, obj Object) (*Asset, error) {
	key := objectKey(obj)

	counter := &countingReader{r: r}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        counter,
		ContentType: aws.String(obj.ContentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	return &Asset{
		URL:      s.publicURL(key),
		PublicID: key,
		Bytes:    counter.n,
		Format:   formatOf(obj.Filename),
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID, _ string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}

func (s *S3Storage) publicURL(key string) string {
	switch {
	case s.cloudFrontURL != "":
		return s.cloudFrontURL + "/" + key
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
