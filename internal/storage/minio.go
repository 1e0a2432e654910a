package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"easylesson/config"
	"easylesson/internal/logger"
)

// PresignExpiry is how long returned object URLs stay valid.
const PresignExpiry = 7 * 24 * time.Hour

// MinioClient wraps a MinIO (S3 compatible) bucket.
type MinioClient struct {
	client     *minio.Client
	bucketName string
	log        *logger.Logger
}

// NewMinioClient connects to cfg.Endpoint and creates the bucket if needed.
func NewMinioClient(cfg *config.MinIOConfig, log *logger.Logger) (*MinioClient, error) {
	endpoint, secure := cfg.Endpoint, false
	if strings.Contains(cfg.Endpoint, "://") {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse minio endpoint: %w", err)
		}
		endpoint, secure = u.Host, u.Scheme == "https"
	}
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		log.Info("creating bucket", "bucket", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &MinioClient{
		client:     client,
		bucketName: cfg.BucketName,
		log:        log.With("component", "minio", "bucket", cfg.BucketName),
	}, nil
}

// UploadFile stores data and returns a presigned URL for it. When presigning
// fails the bucket-relative path is returned instead.
func (c *MinioClient) UploadFile(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	info, err := c.client.PutObject(ctx, c.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	c.log.Debug("object uploaded", "object", objectName, "size", info.Size)

	presignedURL, err := c.GetPresignedURL(ctx, objectName, PresignExpiry)
	if err != nil {
		c.log.Warn("presign failed", "object", objectName, "error", err)
		return fmt.Sprintf("/%s/%s", c.bucketName, objectName), nil
	}
	return presignedURL, nil
}

func (c *MinioClient) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := c.client.PresignedGetObject(ctx, c.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return presignedURL.String(), nil
}

func (c *MinioClient) DeleteFile(ctx context.Context, objectName string) error {
	if err := c.client.RemoveObject(ctx, c.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

// ObjectExists reports whether a non-empty object is stored under objectName.
func (c *MinioClient) ObjectExists(ctx context.Context, objectName string) (bool, error) {
	stat, err := c.client.StatObject(ctx, c.bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", objectName, err)
	}
	return stat.Size > 0, nil
}
