package ingest

import "errors"

var (
	// ErrInvalidFile is returned when a file fails the generic upload policy.
	ErrInvalidFile = errors.New("invalid file")
	// ErrInvalidImage is returned when a file fails the image policy.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNotPersisted is returned by the post-write check when the object is not visible after Put.
	ErrNotPersisted = errors.New("object not found after upload")
)
