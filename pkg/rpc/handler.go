package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Handler is a typed command handler. R is decoded from the payload and
// validated before the handler runs.
//
//	router.Register("document.validateDocument", rpc.Handle(
//		func(ctx context.Context, req ValidateRequest) (*document.Result, error) {
//			return docs.Lookup(ctx, req.DocumentType, req.NumberDocument)
//		},
//	))
type Handler[R, S any] func(ctx context.Context, req R) (S, error)

// Handle adapts a typed Handler to HandlerFunc.
func Handle[R, S any](h Handler[R, S]) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req R
		if err := Decode(payload, &req); err != nil {
			return nil, err
		}
		if err := Validate(req); err != nil {
			return nil, err
		}
		return h(ctx, req)
	}
}

// Decode unmarshals payload into v. An empty or null payload leaves v untouched.
func Decode(payload json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
