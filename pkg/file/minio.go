package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient defines the subset of *minio.Client used by MinIOStorage.
type MinIOClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinIOConfig configures a MinIO (or other S3-compatible) backend.
type MinIOConfig struct {
	Endpoint  string        `env:"MINIO_ENDPOINT"` // host:port, no scheme
	AccessKey string        `env:"MINIO_ACCESS_KEY"`
	SecretKey string        `env:"MINIO_SECRET_KEY"`
	Bucket    string        `env:"MINIO_BUCKET"`
	Region    string        `env:"MINIO_REGION"`
	UseSSL    bool          `env:"MINIO_USE_SSL"`
	BaseURL   string        `env:"MINIO_PUBLIC_URL"`
	Timeout   time.Duration `env:"MINIO_TIMEOUT" envDefault:"30s"`
}

// MinIOStorage implements ObjectStore on top of minio-go.
// It is safe for concurrent use.
type MinIOStorage struct {
	client  MinIOClient
	bucket  string
	region  string
	baseURL string
	timeout time.Duration
}

// MinIOOption configures MinIOStorage.
type MinIOOption func(*MinIOStorage)

// WithMinIOClient replaces the client built from the config. Useful for tests.
func WithMinIOClient(client MinIOClient) MinIOOption {
	return func(s *MinIOStorage) {
		s.client = client
	}
}

// NewMinIOStorage creates a MinIO-backed store.
func NewMinIOStorage(cfg MinIOConfig, opts ...MinIOOption) (*MinIOStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &MinIOStorage{
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: baseURL,
		timeout: cfg.Timeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("%w: minio credentials are required", ErrInvalidConfig)
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.client = client
	}

	return s, nil
}

// classifyMinIOError maps minio error responses onto the package errors.
func classifyMinIOError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NotFound" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"):
		return fmt.Errorf("%w: %s", ErrFileNotFound, err)
	case resp.Code == "NoSuchBucket":
		return ErrBucketNotFound
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
	case resp.Code == "SlowDown" || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
	}

	return fmt.Errorf("%s operation failed: %w", operation, err)
}

// Put uploads data under key.
func (s *MinIOStorage) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	key, err := cleanKey(key)
	if err != nil {
		return errors.Join(ErrStorageWriteFailed, err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return errors.Join(ErrStorageWriteFailed, classifyMinIOError(err, "upload file"))
	}
	return nil
}

// Delete removes the object. Missing keys are reported as unsuccessful,
// matching the S3 backend.
func (s *MinIOStorage) Delete(ctx context.Context, key string) DeleteResult {
	key, err := cleanKey(key)
	if err != nil {
		return deleteFailed(err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return deleteFailed(classifyMinIOError(err, "check file"))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return deleteFailed(classifyMinIOError(err, "delete file"))
	}

	return DeleteResult{Success: true, Message: deleteOKMessage}
}

// Exists stats the object and separates absence from backend failures.
func (s *MinIOStorage) Exists(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, errors.Join(ErrStorageReadFailed, err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	err = classifyMinIOError(err, "check file")
	if errors.Is(err, ErrFileNotFound) {
		return false, nil
	}
	return false, errors.Join(ErrStorageReadFailed, err)
}

// Sign returns a presigned GET URL.
func (s *MinIOStorage) Sign(ctx context.Context, key string, expiresIn int) (SignedURL, error) {
	key, err := cleanKey(key)
	if err != nil {
		return SignedURL{}, errors.Join(ErrStorageSignFailed, err)
	}

	seconds, ttl := expiry(expiresIn)

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return SignedURL{}, errors.Join(ErrStorageSignFailed, classifyMinIOError(err, "presign file"))
	}

	return SignedURL{URL: u.String(), ExpiresIn: seconds}, nil
}

// URL returns the public URL for a key.
func (s *MinIOStorage) URL(key string) string {
	return s.baseURL + strings.TrimPrefix(key, "/")
}

// Bucket returns the configured bucket name.
func (s *MinIOStorage) Bucket() string { return s.bucket }

// Region returns the configured region, possibly empty.
func (s *MinIOStorage) Region() string { return s.region }
