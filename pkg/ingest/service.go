package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/integrations/pkg/file"
	"github.com/dmitrymomot/integrations/pkg/logger"
)

const (
	// DefaultFileFolder is used by IngestFile when no folder is given.
	DefaultFileFolder = "uploads"
	// DefaultImageFolder is used by IngestImage when no folder is given.
	DefaultImageFolder = "images"

	policyUpload = "upload"
	policyImage  = "image"
)

// IncomingFile is a caller-supplied blob. MIMEType, OriginalName and DeclaredSize
// are untrusted; size checks always use len(Bytes).
type IncomingFile struct {
	Bytes        []byte
	MIMEType     string
	OriginalName string
	DeclaredSize int64
}

// StoredObject describes a successfully written object.
// URL and Location carry the same public URL.
type StoredObject struct {
	URL      string
	Key      string
	Bucket   string
	Location string
}

// BucketInfo identifies the storage target.
type BucketInfo struct {
	Bucket string
	Region string
}

// Service validates incoming files and writes accepted ones to an object store.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	store       file.ObjectStore
	logger      *slog.Logger
	observer    Observer
	now         func() time.Time
	maxSize     int64
	verifyWrite bool
}

// Option configures Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxUploadSize overrides file.DefaultMaxUploadSize for both policies.
func WithMaxUploadSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithObserver sets the telemetry sink.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the time source used for the uploadedAt metadata.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVerifyAfterPut makes every ingestion confirm the object exists after writing it.
// A missing object fails the call with ErrNotPersisted.
func WithVerifyAfterPut(verify bool) Option {
	return func(s *Service) {
		s.verifyWrite = verify
	}
}

// NewService creates an ingestion service on top of a shared object store.
func NewService(store file.ObjectStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		observer: nopObserver{},
		now:      time.Now,
		maxSize:  file.DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("ingest"))
	return s
}

// IngestFile applies the generic upload policy and stores the file under folder
// ("uploads" when empty). Rejections wrap ErrInvalidFile and happen before any
// network call.
func (s *Service) IngestFile(ctx context.Context, f IncomingFile, folder string) (*StoredObject, error) {
	if folder == "" {
		folder = DefaultFileFolder
	}

	v := file.ClassifyUpload(s.candidate(f), s.maxSize)
	s.observer.RecordVerdict(policyUpload, v)
	if !v.Accepted() {
		s.logRejection(ctx, policyUpload, f, v)
		return nil, errors.Join(ErrInvalidFile, v.Err())
	}

	return s.put(ctx, policyUpload, f, folder, f.MIMEType)
}

// IngestImage applies the image policy and stores the file under folder
// ("images" when empty). Rejections wrap ErrInvalidImage.
// When acceptance came from the binary signature and the declared type is not an
// image type, the detected type is stored instead of the declared one.
func (s *Service) IngestImage(ctx context.Context, f IncomingFile, folder string) (*StoredObject, error) {
	if folder == "" {
		folder = DefaultImageFolder
	}

	v := file.ClassifyImage(s.candidate(f), s.maxSize)
	s.observer.RecordVerdict(policyImage, v)
	if !v.Accepted() {
		s.logRejection(ctx, policyImage, f, v)
		return nil, errors.Join(ErrInvalidImage, v.Err())
	}

	contentType := f.MIMEType
	if v.Fallback() {
		s.logger.WarnContext(ctx, "declared type disagrees with content, accepted by fallback",
			slog.String("via", string(v.Via)),
			slog.String("detected", v.Detected.MIMEType),
			slog.String("extension", v.Extension),
			slog.String("original_name", f.OriginalName),
			logger.ContentType(f.MIMEType),
		)
		if v.Via == file.SignalSignature && !file.ImageMIMETypes[f.MIMEType] {
			contentType = v.Detected.MIMEType
		}
	}

	return s.put(ctx, policyImage, f, folder, contentType)
}

func (s *Service) put(ctx context.Context, policy string, f IncomingFile, folder, contentType string) (*StoredObject, error) {
	key := file.GenerateKey(folder, f.OriginalName)
	metadata := map[string]string{
		"originalName": f.OriginalName,
		"uploadedAt":   s.now().UTC().Format(time.RFC3339),
	}

	start := time.Now()
	err := s.store.Put(ctx, key, f.Bytes, contentType, metadata)
	if err == nil && s.verifyWrite {
		err = s.verify(ctx, key)
	}
	s.observer.RecordUpload(policy, time.Since(start), len(f.Bytes), err)

	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store file",
			logger.StorageKey(key),
			logger.Bucket(s.store.Bucket()),
			logger.Error(err),
		)
		return nil, err
	}

	url := s.store.URL(key)
	s.logger.InfoContext(ctx, "file stored",
		logger.StorageKey(key),
		logger.Bucket(s.store.Bucket()),
		logger.ContentType(contentType),
		logger.Size(int64(len(f.Bytes))),
		logger.Duration(time.Since(start)),
	)

	return &StoredObject{
		URL:      url,
		Key:      key,
		Bucket:   s.store.Bucket(),
		Location: url,
	}, nil
}

func (s *Service) verify(ctx context.Context, key string) error {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Join(file.ErrStorageReadFailed, fmt.Errorf("%w: %s", ErrNotPersisted, key))
	}
	return nil
}

// Delete removes an object. Failures are reported in the result.
func (s *Service) Delete(ctx context.Context, key string) file.DeleteResult {
	start := time.Now()
	res := s.store.Delete(ctx, key)
	s.observer.RecordDelete(time.Since(start), res.Success)
	if !res.Success {
		s.logger.WarnContext(ctx, "delete failed", logger.StorageKey(key), slog.String("reason", res.Message))
	}
	return res
}

// Exists reports whether an object exists; see file.ObjectStore.Exists.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "existence check failed", logger.StorageKey(key), logger.Error(err))
	}
	return ok, err
}

// SignedURL issues a time-limited read URL. A non-positive expiresIn uses
// file.DefaultSignedURLExpiry.
func (s *Service) SignedURL(ctx context.Context, key string, expiresIn int) (file.SignedURL, error) {
	start := time.Now()
	signed, err := s.store.Sign(ctx, key, expiresIn)
	s.observer.RecordSign(time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign url", logger.StorageKey(key), logger.Error(err))
		return file.SignedURL{}, err
	}
	return signed, nil
}

// BucketInfo returns the configured bucket and region.
func (s *Service) BucketInfo() BucketInfo {
	return BucketInfo{Bucket: s.store.Bucket(), Region: s.store.Region()}
}

func (s *Service) candidate(f IncomingFile) file.Candidate {
	return file.Candidate{Data: f.Bytes, MIMEType: f.MIMEType, Filename: f.OriginalName}
}

func (s *Service) logRejection(ctx context.Context, policy string, f IncomingFile, v file.Verdict) {
	s.logger.InfoContext(ctx, "file rejected",
		slog.String("policy", policy),
		slog.String("status", string(v.Status)),
		slog.String("reason", v.Reason),
		slog.String("original_name", f.OriginalName),
		logger.ContentType(f.MIMEType),
		logger.Size(int64(len(f.Bytes))),
	)
}
