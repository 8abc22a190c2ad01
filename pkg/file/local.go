package file

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalConfig configures the filesystem backend used in development.
type LocalConfig struct {
	BaseDir    string `env:"LOCAL_STORAGE_DIR" envDefault:"./storage"`
	BaseURL    string `env:"LOCAL_STORAGE_URL" envDefault:"http://localhost:8080/files/"`
	SigningKey string `env:"LOCAL_STORAGE_SIGNING_KEY"`
}

// LocalStorage implements ObjectStore on the local filesystem.
// All operations are confined to baseDir to prevent path traversal attacks.
// Signed URLs are HMAC-SHA256 tokens verified by Handler.
// User metadata is not persisted.
type LocalStorage struct {
	baseDir    string // Absolute path - all files stored within this directory
	baseURL    string // URL prefix for serving files
	signingKey []byte
	now        func() time.Time
}

// LocalOption defines a function that configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithLocalClock overrides the time source used for signed URL expiry.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(s *LocalStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLocalStorage creates a new local filesystem storage.
// baseDir is resolved to absolute path and created if it doesn't exist.
func NewLocalStorage(cfg LocalConfig, opts ...LocalOption) (*LocalStorage, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("%w: base directory is required", ErrInvalidConfig)
	}
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidConfig)
	}

	absBaseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve base directory: %v", ErrFailedToGetAbsolutePath, err)
	}

	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalStorage{
		baseDir:    absBaseDir,
		baseURL:    baseURL,
		signingKey: []byte(cfg.SigningKey),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Put writes data to baseDir/key through a temporary file and rename,
// so readers never observe a partial file.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrStorageWriteFailed, err)
	}

	absPath, err := s.resolvePath(key)
	if err != nil {
		return errors.Join(ErrStorageWriteFailed, err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Join(ErrStorageWriteFailed, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".upload-*")
	if err != nil {
		return errors.Join(ErrStorageWriteFailed, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageWriteFailed, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageWriteFailed, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err))
	}
	if err := os.Rename(tmpName, absPath); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrStorageWriteFailed, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err))
	}

	return nil
}

// Delete removes a single file. Directories are never removed.
func (s *LocalStorage) Delete(ctx context.Context, key string) DeleteResult {
	if err := ctx.Err(); err != nil {
		return deleteFailed(err)
	}

	absPath, err := s.resolvePath(key)
	if err != nil {
		return deleteFailed(err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return deleteFailed(fmt.Errorf("%w: %s", ErrFileNotFound, key))
		}
		return deleteFailed(fmt.Errorf("%w: %v", ErrFailedToReadFile, err))
	}
	if info.IsDir() {
		return deleteFailed(fmt.Errorf("%w: %s is a directory", ErrInvalidPath, key))
	}

	if err := os.Remove(absPath); err != nil {
		return deleteFailed(fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err))
	}

	return DeleteResult{Success: true, Message: deleteOKMessage}
}

// Exists reports whether a regular file exists at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Join(ErrStorageReadFailed, err)
	}

	absPath, err := s.resolvePath(key)
	if err != nil {
		return false, errors.Join(ErrStorageReadFailed, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Join(ErrStorageReadFailed, fmt.Errorf("%w: %v", ErrFailedToReadFile, err))
	}
	return !info.IsDir(), nil
}

// Sign issues URL?expires=<unix>&signature=<hex> where the signature is
// HMAC-SHA256(signingKey, key + "." + expires).
func (s *LocalStorage) Sign(ctx context.Context, key string, expiresIn int) (SignedURL, error) {
	key, err := cleanKey(key)
	if err != nil {
		return SignedURL{}, errors.Join(ErrStorageSignFailed, err)
	}

	seconds, ttl := expiry(expiresIn)
	expires := s.now().Add(ttl).Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.signature(key, expires))

	return SignedURL{URL: s.URL(key) + "?" + q.Encode(), ExpiresIn: seconds}, nil
}

// VerifySignedURL checks a signature issued by Sign.
func (s *LocalStorage) VerifySignedURL(key string, expires int64, signature string) error {
	if s.now().Unix() > expires {
		return ErrSignatureExpired
	}
	expected := s.signature(strings.TrimPrefix(key, "/"), expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

func (s *LocalStorage) signature(key string, expires int64) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(key + "." + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// Handler serves stored files to holders of a valid signed URL.
// Mount it under the path prefix of BaseURL with the prefix stripped.
func (s *LocalStorage) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
		if err != nil {
			http.Error(w, "missing or invalid expires", http.StatusForbidden)
			return
		}
		if err := s.VerifySignedURL(key, expires, r.URL.Query().Get("signature")); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}

		absPath, err := s.resolvePath(key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		info, err := os.Stat(absPath)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, absPath)
	})
}

// URL returns the public URL for a key.
func (s *LocalStorage) URL(key string) string {
	key = filepath.ToSlash(filepath.Clean(strings.TrimPrefix(key, "/")))
	return s.baseURL + key
}

// Bucket returns the storage root directory.
func (s *LocalStorage) Bucket() string { return s.baseDir }

// Region is not applicable to local storage.
func (s *LocalStorage) Region() string { return "" }

// resolvePath validates and resolves a key within the base directory.
// Ensures all resolved paths stay within baseDir bounds.
func (s *LocalStorage) resolvePath(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.Clean(key)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	return absPath, nil
}
