package domain

import "io"

// RawFile is a single entry of an upload batch as received from the client.
type RawFile struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Content      []byte
}

// SanitizedFile is the form of a RawFile that leaves the process.
type SanitizedFile struct {
	StoredName string
	MimeType   string
	SizeBytes  int64
	Content    []byte
}

// FileDescriptor describes a file that was accepted by the document store.
type FileDescriptor struct {
	OriginalName string `json:"filename"`
	MimeType     string `json:"mimetype"`
	SizeLabel    string `json:"size"`
	PublicURL    string `json:"url"`
	ExternalID   string `json:"file_id"`
}

// ResolvedFile is the transient fetch location the store returned for an identifier.
type ResolvedFile struct {
	FileID   string
	FilePath string
	URL      string
}

// FileStream is an open download. Body must be closed by the consumer.
type FileStream struct {
	FileName    string
	ContentType string
	Size        int64 // -1 when unknown

	Body io.ReadCloser
}
