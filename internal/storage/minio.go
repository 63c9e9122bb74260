package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/testforge/shopsuite/internal/config"
)

// MinIOConfig contains MinIO connection settings
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// MinIOConfigFrom maps the artifact settings to a MinIOConfig
func MinIOConfigFrom(cfg config.ArtifactsConfig) MinIOConfig {
	return MinIOConfig{
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
		UseSSL:          cfg.S3UseSSL,
		BucketName:      cfg.S3Bucket,
		Region:          cfg.S3Region,
	}
}

// MinIOStore uploads run artifacts to an S3 compatible bucket
type MinIOStore struct {
	client     *minio.Client
	bucketName string
}

var (
	_ Store  = (*MinIOStore)(nil)
	_ Linker = (*MinIOStore)(nil)
	_ Lister = (*MinIOStore)(nil)
)

// NewMinIOStore creates a new MinIO backed store. No request is made until
// EnsureBucket or Save is called.
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("creating minio store: bucket name is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &MinIOStore{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

// Bucket returns the target bucket
func (m *MinIOStore) Bucket() string { return m.bucketName }

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("checking bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}

	return nil
}

// Save uploads data under key and returns its S3 URI
func (m *MinIOStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(key),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", m.bucketName, key), nil
}

// PresignedURL returns a time limited download link for key. With a
// configured region the link is signed locally without a round trip.
func (m *MinIOStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("generating presigned URL: %w", err)
	}
	return url.String(), nil
}

// List lists artifact keys with a given prefix
func (m *MinIOStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, object.Err)
		}
		keys = append(keys, object.Key)
	}

	return keys, nil
}
