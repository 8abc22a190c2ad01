package file_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/integrations/pkg/file"
)

// MockS3Client is a mock implementation of the S3Client interface
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

// MockS3Presigner is a mock implementation of the S3Presigner interface
type MockS3Presigner struct {
	mock.Mock
}

func (m *MockS3Presigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

func newTestS3Storage(t *testing.T, client file.S3Client, opts ...file.S3Option) *file.S3Storage {
	t.Helper()
	opts = append([]file.S3Option{file.WithS3Client(client)}, opts...)
	storage, err := file.NewS3Storage(context.Background(), file.S3Config{
		Bucket: "test-bucket",
		Region: "us-east-1",
	}, opts...)
	require.NoError(t, err)
	return storage
}

func TestNewS3Storage(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		storage, err := file.NewS3Storage(context.Background(), file.S3Config{
			Bucket:      "test-bucket",
			Region:      "us-east-1",
			AccessKeyID: "test-key",
			SecretKey:   "test-secret",
		})
		require.NoError(t, err)
		require.NotNil(t, storage)
		assert.Equal(t, "test-bucket", storage.Bucket())
		assert.Equal(t, "us-east-1", storage.Region())
	})

	t.Run("missing bucket", func(t *testing.T) {
		t.Parallel()
		_, err := file.NewS3Storage(context.Background(), file.S3Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
	})

	t.Run("missing region", func(t *testing.T) {
		t.Parallel()
		_, err := file.NewS3Storage(context.Background(), file.S3Config{Bucket: "test-bucket"})
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
	})
}

func TestS3Storage_URL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  file.S3Config
		key  string
		want string
	}{
		{
			name: "virtual hosted style",
			cfg:  file.S3Config{Bucket: "docs", Region: "us-east-2"},
			key:  "uploads/a.pdf",
			want: "https://docs.s3.us-east-2.amazonaws.com/uploads/a.pdf",
		},
		{
			name: "custom endpoint",
			cfg:  file.S3Config{Bucket: "docs", Region: "us-east-1", Endpoint: "http://localhost:9000/"},
			key:  "/uploads/a.pdf",
			want: "http://localhost:9000/docs/uploads/a.pdf",
		},
		{
			name: "public base url",
			cfg:  file.S3Config{Bucket: "docs", Region: "us-east-1", BaseURL: "https://cdn.example.com"},
			key:  "images/x.png",
			want: "https://cdn.example.com/images/x.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			storage, err := file.NewS3Storage(context.Background(), tt.cfg, file.WithS3Client(new(MockS3Client)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, storage.URL(tt.key))
		})
	}
}

func TestS3Storage_Put(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("uploads body with content type and metadata", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		data := []byte("%PDF-1.4 hello")
		meta := map[string]string{"originalName": "a.pdf", "uploadedAt": "2024-01-01T00:00:00Z"}

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "test-bucket" &&
				aws.ToString(in.Key) == "uploads/a.pdf" &&
				aws.ToString(in.ContentType) == "application/pdf" &&
				aws.ToInt64(in.ContentLength) == int64(len(data)) &&
				in.Body != nil &&
				in.Metadata["originalName"] == "a.pdf"
		}), mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		storage := newTestS3Storage(t, client)
		err := storage.Put(ctx, "uploads/a.pdf", data, "application/pdf", meta)
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("defaults content type", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.ContentType) == "application/octet-stream"
		}), mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		storage := newTestS3Storage(t, client)
		require.NoError(t, storage.Put(ctx, "k", []byte("x"), "", nil))
		client.AssertExpectations(t)
	})

	t.Run("backend failure wraps write taxonomy", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"})

		storage := newTestS3Storage(t, client)
		err := storage.Put(ctx, "k", []byte("x"), "text/plain", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrStorageWriteFailed)
		assert.ErrorIs(t, err, file.ErrAccessDenied)
	})

	t.Run("rejects traversal key", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		storage := newTestS3Storage(t, client)

		err := storage.Put(ctx, "../etc/passwd", []byte("x"), "text/plain", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrInvalidPath)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestS3Storage_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("existing key", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)
		client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
			return aws.ToString(in.Key) == "uploads/a.pdf"
		}), mock.Anything).Return(&s3.DeleteObjectOutput{}, nil)

		storage := newTestS3Storage(t, client)
		res := storage.Delete(ctx, "uploads/a.pdf")
		assert.True(t, res.Success)
		assert.Equal(t, "file deleted", res.Message)
		client.AssertExpectations(t)
	})

	t.Run("missing key is unsuccessful", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &types.NotFound{})

		storage := newTestS3Storage(t, client)
		res := storage.Delete(ctx, "never/existed.txt")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "failed to delete file")
		client.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delete failure is reported in result", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)
		client.On("DeleteObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset"))

		storage := newTestS3Storage(t, client)
		res := storage.Delete(ctx, "k")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "connection reset")
	})
}

func TestS3Storage_Exists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)

		ok, err := newTestS3Storage(t, client).Exists(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not found is false without error", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, &types.NotFound{})

		ok, err := newTestS3Storage(t, client).Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no such key code is false without error", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "NoSuchKey"})

		ok, err := newTestS3Storage(t, client).Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transient failure is an error", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "SlowDown"})

		ok, err := newTestS3Storage(t, client).Exists(ctx, "k")
		require.Error(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, err, file.ErrStorageReadFailed)
		assert.ErrorIs(t, err, file.ErrServiceUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, context.DeadlineExceeded)

		_, err := newTestS3Storage(t, client, file.WithS3Timeout(10*time.Millisecond)).Exists(ctx, "k")
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrOperationTimeout)
	})
}

func TestS3Storage_Sign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("default expiry", func(t *testing.T) {
		t.Parallel()
		presigner := new(MockS3Presigner)
		presigner.On("PresignGetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "uploads/a.pdf"
		}), mock.Anything).Return(&v4.PresignedHTTPRequest{
			URL:    "https://test-bucket.s3.amazonaws.com/uploads/a.pdf?X-Amz-Signature=abc",
			Method: http.MethodGet,
		}, nil)

		storage := newTestS3Storage(t, new(MockS3Client), file.WithS3Presigner(presigner))
		signed, err := storage.Sign(ctx, "uploads/a.pdf", 0)
		require.NoError(t, err)
		assert.Equal(t, 3600, signed.ExpiresIn)
		assert.Contains(t, signed.URL, "X-Amz-Signature")
		presigner.AssertExpectations(t)
	})

	t.Run("custom expiry applied to presign options", func(t *testing.T) {
		t.Parallel()
		presigner := new(MockS3Presigner)
		presigner.On("PresignGetObject", mock.Anything, mock.Anything, mock.MatchedBy(func(fns []func(*s3.PresignOptions)) bool {
			var o s3.PresignOptions
			for _, fn := range fns {
				fn(&o)
			}
			return o.Expires == 300*time.Second
		})).Return(&v4.PresignedHTTPRequest{URL: "https://signed"}, nil)

		storage := newTestS3Storage(t, new(MockS3Client), file.WithS3Presigner(presigner))
		signed, err := storage.Sign(ctx, "k", 300)
		require.NoError(t, err)
		assert.Equal(t, 300, signed.ExpiresIn)
		presigner.AssertExpectations(t)
	})

	t.Run("no presigner", func(t *testing.T) {
		t.Parallel()
		storage := newTestS3Storage(t, new(MockS3Client))
		_, err := storage.Sign(ctx, "k", 60)
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrStorageSignFailed)
		assert.ErrorIs(t, err, file.ErrPresignerNotDefined)
	})

	t.Run("presign failure", func(t *testing.T) {
		t.Parallel()
		presigner := new(MockS3Presigner)
		presigner.On("PresignGetObject", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("no credentials"))

		storage := newTestS3Storage(t, new(MockS3Client), file.WithS3Presigner(presigner))
		_, err := storage.Sign(ctx, "k", 60)
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrStorageSignFailed)
	})
}

func TestS3Storage_ErrorClassification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no such bucket", &types.NoSuchBucket{}, file.ErrBucketNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, file.ErrAccessDenied},
		{"request timeout", &smithy.GenericAPIError{Code: "RequestTimeout"}, file.ErrRequestTimeout},
		{"invalid object state", &smithy.GenericAPIError{Code: "InvalidObjectState"}, file.ErrInvalidObjectState},
		{"canceled", context.Canceled, file.ErrOperationCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := new(MockS3Client)
			client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			err := newTestS3Storage(t, client).Put(ctx, "k", []byte("x"), "", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, file.ErrStorageWriteFailed)
		})
	}
}
