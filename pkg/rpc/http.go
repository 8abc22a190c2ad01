package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodySize fits a 10 MiB upload after base64 expansion plus the envelope.
const DefaultMaxBodySize int64 = 16 << 20

type httpConfig struct {
	maxBodySize int64
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*httpConfig)

// WithMaxBodySize caps the request body. Larger bodies get 413.
func WithMaxBodySize(n int64) HTTPOption {
	if n <= 0 {
		panic("WithMaxBodySize: size must be > 0")
	}
	return func(c *httpConfig) { c.maxBodySize = n }
}

// HTTPHandler exposes the router as POST /{command}. Mount it under a prefix:
//
//	r.Mount("/rpc", rpc.HTTPHandler(router))
//
// Successful replies are the JSON result with status 200. Failures use the
// envelope status and the body {"error": Error}.
func HTTPHandler(router *Router, opts ...HTTPOption) http.Handler {
	cfg := &httpConfig{maxBodySize: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Post("/{command}", func(w http.ResponseWriter, req *http.Request) {
		cmd := chi.URLParam(req, "command")

		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, cfg.maxBodySize))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, NewError(http.StatusRequestEntityTooLarge, CategoryValidation,
					fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)))
				return
			}
			writeError(w, FromError(fmt.Errorf("%w: %v", ErrInvalidPayload, err)))
			return
		}

		result, rpcErr := router.Dispatch(req.Context(), cmd, body)
		if rpcErr != nil {
			writeError(w, rpcErr)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"namespace": router.Namespace(),
			"commands":  router.Commands(),
		})
	})
	return r
}

type errorBody struct {
	Error *Error `json:"error"`
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, errorBody{Error: e})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
