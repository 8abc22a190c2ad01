package file_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/integrations/pkg/file"
)

func newTestLocalStorage(t *testing.T, opts ...file.LocalOption) (*file.LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := file.NewLocalStorage(file.LocalConfig{
		BaseDir:    dir,
		BaseURL:    "http://localhost:8080/files",
		SigningKey: "test-signing-key",
	}, opts...)
	require.NoError(t, err)
	return storage, dir
}

func TestNewLocalStorage(t *testing.T) {
	t.Parallel()

	t.Run("requires signing key", func(t *testing.T) {
		t.Parallel()
		_, err := file.NewLocalStorage(file.LocalConfig{BaseDir: t.TempDir()})
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
	})

	t.Run("requires base dir", func(t *testing.T) {
		t.Parallel()
		_, err := file.NewLocalStorage(file.LocalConfig{SigningKey: "k"})
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
	})
}

func TestLocalStorage_PutExistsDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage, dir := newTestLocalStorage(t)

	err := storage.Put(ctx, "uploads/nested/a.txt", []byte("hello"), "text/plain", nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "uploads", "nested", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	ok, err := storage.Exists(ctx, "uploads/nested/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	res := storage.Delete(ctx, "uploads/nested/a.txt")
	assert.True(t, res.Success)
	assert.Equal(t, "file deleted", res.Message)

	ok, err = storage.Exists(ctx, "uploads/nested/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	res = storage.Delete(ctx, "uploads/nested/a.txt")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "failed to delete file")
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage, _ := newTestLocalStorage(t)

	err := storage.Put(ctx, "../escape.txt", []byte("x"), "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, file.ErrInvalidPath)
	assert.ErrorIs(t, err, file.ErrStorageWriteFailed)

	_, err = storage.Exists(ctx, "a/../../b")
	assert.ErrorIs(t, err, file.ErrInvalidPath)

	res := storage.Delete(ctx, "")
	assert.False(t, res.Success)
}

func TestLocalStorage_DeleteDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage, dir := newTestLocalStorage(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder"), 0755))

	res := storage.Delete(ctx, "folder")
	assert.False(t, res.Success)
	assert.DirExists(t, filepath.Join(dir, "folder"))

	ok, err := storage.Exists(ctx, "folder")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_URL(t *testing.T) {
	t.Parallel()
	storage, dir := newTestLocalStorage(t)

	assert.Equal(t, "http://localhost:8080/files/images/a.png", storage.URL("/images/a.png"))
	assert.Equal(t, dir, storage.Bucket())
	assert.Empty(t, storage.Region())
}

func TestLocalStorage_SignedURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	storage, _ := newTestLocalStorage(t, file.WithLocalClock(clock))

	signed, err := storage.Sign(ctx, "docs/a.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, 3600, signed.ExpiresIn)
	assert.True(t, strings.HasPrefix(signed.URL, "http://localhost:8080/files/docs/a.pdf?"))

	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), expires)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, storage.VerifySignedURL("docs/a.pdf", expires, u.Query().Get("signature")))
	})

	t.Run("tampered key", func(t *testing.T) {
		t.Parallel()
		err := storage.VerifySignedURL("docs/b.pdf", expires, u.Query().Get("signature"))
		assert.ErrorIs(t, err, file.ErrSignatureInvalid)
	})

	t.Run("tampered expiry", func(t *testing.T) {
		t.Parallel()
		err := storage.VerifySignedURL("docs/a.pdf", expires+60, u.Query().Get("signature"))
		assert.ErrorIs(t, err, file.ErrSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		err := storage.VerifySignedURL("docs/a.pdf", now.Add(-time.Second).Unix(), u.Query().Get("signature"))
		assert.ErrorIs(t, err, file.ErrSignatureExpired)
	})
}

func TestLocalStorage_Handler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage, _ := newTestLocalStorage(t)
	require.NoError(t, storage.Put(ctx, "images/a.png", []byte("png-bytes"), "image/png", nil))

	signed, err := storage.Sign(ctx, "images/a.png", 60)
	require.NoError(t, err)
	u, err := url.Parse(signed.URL)
	require.NoError(t, err)

	handler := http.StripPrefix("/files", storage.Handler())

	t.Run("serves signed request", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "png-bytes", rec.Body.String())
	})

	t.Run("rejects unsigned request", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/images/a.png", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejects bad signature", func(t *testing.T) {
		t.Parallel()
		q := u.Query()
		q.Set("signature", "deadbeef")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/images/a.png?"+q.Encode(), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
