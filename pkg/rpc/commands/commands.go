package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/integrations/pkg/document"
	"github.com/dmitrymomot/integrations/pkg/email"
	"github.com/dmitrymomot/integrations/pkg/file"
	"github.com/dmitrymomot/integrations/pkg/ingest"
	"github.com/dmitrymomot/integrations/pkg/rpc"
)

// FileService is the ingestion surface used by files.* commands.
type FileService interface {
	IngestFile(ctx context.Context, f ingest.IncomingFile, folder string) (*ingest.StoredObject, error)
	IngestImage(ctx context.Context, f ingest.IncomingFile, folder string) (*ingest.StoredObject, error)
	Delete(ctx context.Context, key string) file.DeleteResult
	Exists(ctx context.Context, key string) (bool, error)
	SignedURL(ctx context.Context, key string, expiresIn int) (file.SignedURL, error)
	BucketInfo() ingest.BucketInfo
}

// DocumentLookup resolves identity documents for document.* commands.
type DocumentLookup interface {
	Lookup(ctx context.Context, docType, number string) (*document.Result, error)
}

// Deps are the collaborators behind the command groups. A nil collaborator
// leaves its group unregistered.
type Deps struct {
	Files     FileService
	Email     email.Client
	Documents DocumentLookup
	Logger    *slog.Logger
	Now       func() time.Time
}

// Register adds every command group whose collaborator is set.
func Register(r *rpc.Router, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Files != nil {
		registerFiles(r, deps)
	}
	if deps.Email != nil {
		registerEmail(r, deps)
	}
	if deps.Documents != nil {
		registerDocument(r, deps)
	}
}

// ErrorMappings maps domain sentinels onto envelope categories. Order matters:
// policy rejections are checked before storage failures.
func ErrorMappings() []rpc.Mapping {
	return []rpc.Mapping{
		{Target: ingest.ErrInvalidFile, Status: http.StatusBadRequest, Category: rpc.CategoryInvalidFile},
		{Target: ingest.ErrInvalidImage, Status: http.StatusBadRequest, Category: rpc.CategoryInvalidImage},
		{Target: file.ErrStorageWriteFailed, Status: http.StatusBadGateway, Category: rpc.CategoryStorageWriteFailed},
		{Target: file.ErrStorageReadFailed, Status: http.StatusBadGateway, Category: rpc.CategoryStorageReadFailed},
		{Target: file.ErrStorageSignFailed, Status: http.StatusBadGateway, Category: rpc.CategoryStorageSignFailed},
		{Target: document.ErrInvalidDocumentType, Status: http.StatusBadRequest, Category: rpc.CategoryValidation},
		{Target: document.ErrInvalidNumber, Status: http.StatusBadRequest, Category: rpc.CategoryValidation},
		{Target: document.ErrDocumentNotFound, Status: http.StatusNotFound, Category: rpc.CategoryNotFound},
		{Target: document.ErrUpstreamFailed, Status: http.StatusBadGateway, Category: rpc.CategoryUpstreamFailed},
		{Target: email.ErrInvalidMessage, Status: http.StatusBadRequest, Category: rpc.CategoryValidation},
	}
}

// Empty is the request type of commands without a payload.
type Empty struct{}

// HealthResponse is returned by the *.health commands.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// isoMillis matches the millisecond UTC timestamps callers already parse.
const isoMillis = "2006-01-02T15:04:05.000Z"

func health(service string, now func() time.Time) rpc.HandlerFunc {
	return rpc.Handle(func(context.Context, Empty) (HealthResponse, error) {
		return HealthResponse{
			Status:    "OK",
			Service:   service,
			Timestamp: now().UTC().Format(isoMillis),
		}, nil
	})
}
