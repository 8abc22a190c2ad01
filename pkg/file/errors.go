package file

import "errors"

var (
	// Validation errors, raised before any backend call
	ErrInvalidPath        = errors.New("invalid path") // Prevents path traversal attacks
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed size")
	ErrMIMETypeNotAllowed = errors.New("MIME type is not allowed")
	ErrNotImage           = errors.New("not a valid image")

	// Storage taxonomy surfaced to callers
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrStorageReadFailed  = errors.New("storage read failed")
	ErrStorageSignFailed  = errors.New("storage sign failed")

	// Backend conditions, joined with the taxonomy errors above
	ErrFileNotFound       = errors.New("file not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrInvalidObjectState = errors.New("invalid object state")

	// Context and cancellation errors
	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	// Local filesystem errors
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
	ErrFailedToWriteFile       = errors.New("failed to write file")
	ErrFailedToReadFile        = errors.New("failed to read file")
	ErrFailedToDeleteFile      = errors.New("failed to delete file")
	ErrFailedToGetAbsolutePath = errors.New("failed to get absolute path")

	// Signed URL verification
	ErrSignatureExpired = errors.New("signed url expired")
	ErrSignatureInvalid = errors.New("signed url signature mismatch")

	// Configuration errors
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrFailedToLoadConfig  = errors.New("failed to load AWS config")
	ErrPresignerNotDefined = errors.New("presign client is not configured")
)
