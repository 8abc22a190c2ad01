package file

import (
	"context"
	"time"
)

// DefaultSignedURLExpiry is used when Sign is called with a non-positive expiry, in seconds.
const DefaultSignedURLExpiry = 3600

// ObjectStore is the contract of an object-storage backend.
// Implementations hold one long-lived client and are safe for concurrent use.
// None of them retry: a single failed call surfaces immediately.
type ObjectStore interface {
	// Put writes data under key. Failures wrap ErrStorageWriteFailed.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// Delete removes the object. Failures, including a missing key, are reported
	// in the result instead of returned as errors.
	Delete(ctx context.Context, key string) DeleteResult
	// Exists reports whether the object exists. A genuine not-found is (false, nil);
	// any other failure is (false, err) with err wrapping ErrStorageReadFailed.
	Exists(ctx context.Context, key string) (bool, error)
	// Sign issues a time-limited URL for reading the object.
	// Failures wrap ErrStorageSignFailed.
	Sign(ctx context.Context, key string, expiresIn int) (SignedURL, error)
	// URL returns the public URL for the key.
	URL(key string) string
	// Bucket returns the bucket (or root) the store writes to.
	Bucket() string
	// Region returns the backend region, empty when not applicable.
	Region() string
}

// DeleteResult is the best-effort outcome of a delete.
type DeleteResult struct {
	Success bool
	Message string
}

// SignedURL is a time-bounded access grant. It is not persisted and cannot be revoked.
type SignedURL struct {
	URL       string
	ExpiresIn int // seconds
}

func expiry(expiresIn int) (int, time.Duration) {
	if expiresIn <= 0 {
		expiresIn = DefaultSignedURLExpiry
	}
	return expiresIn, time.Duration(expiresIn) * time.Second
}

// withTimeout layers an optional per-operation timeout over the caller context.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

const (
	deleteOKMessage = "file deleted"
)
