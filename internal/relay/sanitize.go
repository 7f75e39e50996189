package relay

import (
	"path/filepath"
	"regexp"
	"unicode/utf8"
)

const maxFileNameBytes = 255

var (
	illegalFileNameChars  = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlFileNameChars  = regexp.MustCompile(`[\x00-\x1f\x{80}-\x{9f}]`)
	reservedFileName      = regexp.MustCompile(`^\.+$`)
	windowsReservedName   = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	windowsTrailingPeriod = regexp.MustCompile(`[. ]+$`)
)

// SanitizeFilename strips path separators and characters that are illegal in a file name
// on common filesystems. The result may be empty.
func SanitizeFilename(name string) string {
	name = illegalFileNameChars.ReplaceAllString(name, "")
	name = controlFileNameChars.ReplaceAllString(name, "")
	name = reservedFileName.ReplaceAllString(name, "")
	name = windowsReservedName.ReplaceAllString(name, "")
	name = windowsTrailingPeriod.ReplaceAllString(name, "")

	return truncateUTF8(name, maxFileNameBytes)
}

// StoredName builds the name a file is uploaded under: a random id plus the extension
// of the sanitized original name.
func StoredName(id, originalName string) string {
	return id + filepath.Ext(SanitizeFilename(originalName))
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
