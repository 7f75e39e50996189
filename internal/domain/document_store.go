package domain

import (
	"context"
	"io"
)

// DocumentStore is the external service that keeps file bytes for the relay.
type DocumentStore interface {
	UploadDocument(ctx context.Context, params UploadDocumentParams) (UploadDocumentResult, error)
	// ResolveFile returns ErrNotFound when the store does not know the identifier.
	ResolveFile(ctx context.Context, params ResolveFileParams) (ResolvedFile, error)
	OpenFile(ctx context.Context, file ResolvedFile) (OpenFileResult, error)
}

type UploadDocumentParams struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Content     []byte
}

type UploadDocumentResult struct {
	FileID string
}

type ResolveFileParams struct {
	FileID string
}

type OpenFileResult struct {
	ContentType   string
	ContentLength int64 // -1 when unknown

	Body io.ReadCloser
}
