package file

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateKey builds a storage key of the form folder/<uuid>.<ext>.
// The extension is whatever follows the last dot of the sanitized originalName, case preserved.
// Names without a dot produce a key without extension; an empty folder produces
// a key at the bucket root.
//
// Example:
//
//	key := file.GenerateKey("images", "avatar.png") // "images/1b4e28ba-....png"
func GenerateKey(folder, originalName string) string {
	name := uuid.New().String()
	originalName = SanitizeFilename(originalName)

	if idx := strings.LastIndex(originalName, "."); idx >= 0 && idx < len(originalName)-1 {
		name += "." + originalName[idx+1:]
	}

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
