package document

import "errors"

var (
	ErrInvalidConfig       = errors.New("document: invalid config")
	ErrInvalidDocumentType = errors.New("document: type must be dni or ruc")
	ErrInvalidNumber       = errors.New("document: invalid document number")
	ErrDocumentNotFound    = errors.New("document: not found")
	ErrUpstreamFailed      = errors.New("document: upstream request failed")
)
