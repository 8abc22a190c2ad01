package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category is the machine-checkable error class carried in every failed reply.
type Category string

const (
	CategoryValidation         Category = "VALIDATION"
	CategoryInvalidFile        Category = "INVALID_FILE"
	CategoryInvalidImage       Category = "INVALID_IMAGE"
	CategoryStorageWriteFailed Category = "STORAGE_WRITE_FAILED"
	CategoryStorageReadFailed  Category = "STORAGE_READ_FAILED"
	CategoryStorageSignFailed  Category = "STORAGE_SIGN_FAILED"
	CategoryNotFound           Category = "NOT_FOUND"
	CategoryUpstreamFailed     Category = "UPSTREAM_FAILED"
	CategoryUnknownCommand     Category = "UNKNOWN_COMMAND"
	CategoryTimeout            Category = "TIMEOUT"
	CategoryInternal           Category = "INTERNAL"
)

// Error is the caller-facing failure envelope.
type Error struct {
	Status   int               `json:"status"`
	Category Category          `json:"category"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Category, e.Status, e.Message)
}

// NewError creates an envelope with the given status and category.
func NewError(status int, category Category, message string) *Error {
	return &Error{Status: status, Category: category, Message: message}
}

// Mapping binds a sentinel error to an envelope status and category.
type Mapping struct {
	Target   error
	Status   int
	Category Category
}

// FromError converts err into an envelope. An *Error anywhere in the chain is
// returned as is; otherwise the first mapping whose Target matches wins.
// Unmapped errors become INTERNAL with a generic message.
func FromError(err error, mappings ...Mapping) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return NewError(m.Status, m.Category, message(err))
		}
	}

	switch {
	case errors.Is(err, ErrUnknownCommand):
		return NewError(http.StatusNotFound, CategoryUnknownCommand, message(err))
	case errors.Is(err, ErrInvalidPayload):
		return NewError(http.StatusBadRequest, CategoryValidation, message(err))
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(http.StatusGatewayTimeout, CategoryTimeout, "request timed out")
	}

	return NewError(http.StatusInternalServerError, CategoryInternal, "internal error")
}

// message flattens errors.Join output onto one line.
func message(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
