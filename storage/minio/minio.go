// Package minio implements storage.Storage against any S3-compatible
// object store via the MinIO client.
package minio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMinio, func(_ storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c, ok := providerCfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("minio: expected *minio.Config, got %T", providerCfg)
		}
		return NewStorage(context.Background(), c, log)
	})
}

// Config holds S3-compatible object store settings.
type Config struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint" validate:"required"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key" validate:"required"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" validate:"required"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket" validate:"required"`
	Region    string `yaml:"region" mapstructure:"region"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// Validate checks the configuration for missing values.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("minio: endpoint is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("minio: credentials are required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("minio: bucket is required")
	}
	return nil
}

// Storage implements storage.Storage on a single bucket of an
// S3-compatible object store.
type Storage struct {
	client *minio.Client
	bucket string
}

// NewStorage creates the client and ensures the configured bucket
// exists.
func NewStorage(ctx context.Context, cfg *Config, log *logger.Logger) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	s := &Storage{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	log.Debug("minio storage ready", map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
	})
	return s, nil
}

// NewStorageWithClient wraps an existing client. Used by tests.
func NewStorageWithClient(client *minio.Client, bucket string) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("minio: client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("minio: bucket is required")
	}
	return &Storage{client: client, bucket: bucket}, nil
}

func (s *Storage) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("minio: make bucket: %w", err)
	}
	return nil
}

// Upload writes data from reader to the given object key.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, reader, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio: put object: %w", err)
	}
	return nil
}

// Download returns a reader for the object at the given key.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	// Stat first so missing objects fail here, not on first read.
	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("minio: stat object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio: get object: %w", err)
	}
	return obj, nil
}

// Delete removes the object at the given key.
func (s *Storage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio: remove object: %w", err)
	}
	return nil
}

// Exists checks whether an object exists at the given key.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("minio: stat object: %w", err)
	}
	return true, nil
}

// URL returns the canonical object URL. Private buckets need SignedURL.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, strings.TrimPrefix(path, "/")), nil
}

// SignedURL returns a pre-signed GET URL valid for the given duration.
func (s *Storage) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio: presign: %w", err)
	}
	return u.String(), nil
}

// List returns metadata for all objects whose key starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list objects: %w", obj.Err)
		}
		files = append(files, storage.FileInfo{
			Path:         obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
	}
	return files, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// compile-time checks
var (
	_ storage.Storage           = (*Storage)(nil)
	_ storage.SignedURLProvider = (*Storage)(nil)
)
