package relay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain name", input: "report.pdf", expected: "report.pdf"},
		{name: "unix traversal", input: "../../etc/passwd", expected: "....etcpasswd"},
		{name: "windows path", input: `C:\Users\me\photo.JPG`, expected: "CUsersmephoto.JPG"},
		{name: "illegal characters", input: `a<b>c:d"e|f?g*h.txt`, expected: "abcdefgh.txt"},
		{name: "control characters", input: "line\nbreak\t.md", expected: "linebreak.md"},
		{name: "only dots", input: "..", expected: ""},
		{name: "windows reserved", input: "CON.txt", expected: ""},
		{name: "trailing dots and spaces", input: "notes.txt. . ", expected: "notes.txt"},
		{name: "unicode kept", input: "résumé.docx", expected: "résumé.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesOnRuneBoundary(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 200))

	assert.LessOrEqual(t, len(got), maxFileNameBytes)
	assert.Equal(t, strings.Repeat("é", 127), got)
}

func TestStoredName(t *testing.T) {
	tests := []struct {
		original string
		expected string
	}{
		{original: "report.pdf", expected: "abc.pdf"},
		{original: "archive.tar.gz", expected: "abc.gz"},
		{original: "../secret/.env", expected: "abc.env"},
		{original: "README", expected: "abc"},
		{original: "", expected: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			assert.Equal(t, tt.expected, StoredName("abc", tt.original))
		})
	}
}
