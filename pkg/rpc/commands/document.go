package commands

import (
	"context"

	"github.com/dmitrymomot/integrations/pkg/document"
	"github.com/dmitrymomot/integrations/pkg/rpc"
)

// ValidateDocumentRequest is the payload of document.validateDocument.
type ValidateDocumentRequest struct {
	DocumentType   string `json:"documentType" validate:"required,oneof=dni ruc"`
	NumberDocument string `json:"numberDocument" validate:"required,numeric"`
}

func registerDocument(r *rpc.Router, deps Deps) {
	docs := deps.Documents
	r.Register("document.validateDocument", rpc.Handle(
		func(ctx context.Context, req ValidateDocumentRequest) (*document.Result, error) {
			return docs.Lookup(ctx, req.DocumentType, req.NumberDocument)
		},
	))
}
