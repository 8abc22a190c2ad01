package file

import (
	"path/filepath"
	"strings"
)

// DefaultMaxUploadSize is the upper bound for a single uploaded blob (10 MiB).
const DefaultMaxUploadSize int64 = 10 << 20

// Candidate is the immutable input of the classifier.
// Data is the actual content; MIMEType and Filename are caller-supplied and untrusted.
type Candidate struct {
	Data     []byte
	MIMEType string
	Filename string
}

var (
	// UploadMIMETypes is the exact-match allow-list of the generic upload policy.
	UploadMIMETypes = map[string]bool{
		"image/jpeg":         true,
		"image/jpg":          true,
		"image/png":          true,
		"image/gif":          true,
		"image/webp":         true,
		"application/pdf":    true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
		"text/plain": true,
		"text/csv":   true,
	}

	// ImageMIMETypes are the declared types accepted outright by the image policy.
	ImageMIMETypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	// ImageExtensions are the lowercase extensions accepted by the image policy fallback.
	ImageExtensions = map[string]bool{
		"jpg":  true,
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
)

// Extension returns the lowercase substring after the last dot of the filename,
// without the dot. Returns an empty string when the name has no extension.
//
// Example:
//
//	ext := file.Extension("photo.JPG") // "jpg"
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// SanitizeFilename removes any path components and dangerous characters from a filename.
// Returns "unnamed" for empty or special directory references.
//
// Example:
//
//	safe := file.SanitizeFilename("../../../etc/passwd") // Returns "passwd"
//	safe = file.SanitizeFilename("C:\\Windows\\file.txt") // Returns "file.txt"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}

	return filename
}

// cleanKey normalizes a storage key and rejects traversal sequences.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidPath
	}
	return key, nil
}
