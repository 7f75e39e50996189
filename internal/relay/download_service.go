package relay

import (
	"context"
	"errors"
	"strings"

	"github.com/flowbaker/filerelay/internal/domain"

	"github.com/rs/zerolog/log"
)

const PlaceholderFileName = "downloaded_file"

// DownloadService resolves an external file identifier and opens its byte stream.
// Nothing is buffered beyond a single read-ahead chunk.
type DownloadService struct {
	store domain.DocumentStore
}

type DownloadServiceDependencies struct {
	Store domain.DocumentStore
}

func NewDownloadService(deps DownloadServiceDependencies) *DownloadService {
	return &DownloadService{
		store: deps.Store,
	}
}

func (s *DownloadService) Download(ctx context.Context, fileID string) (domain.FileStream, error) {
	if strings.TrimSpace(fileID) == "" {
		return domain.FileStream{}, domain.ErrNotFound
	}

	resolved, err := s.store.ResolveFile(ctx, domain.ResolveFileParams{FileID: fileID})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FileStream{}, err
		}
		return domain.FileStream{}, &domain.RelayError{FileID: fileID, Op: "resolve", Err: err}
	}

	opened, err := s.store.OpenFile(ctx, resolved)
	if err != nil {
		return domain.FileStream{}, &domain.RelayError{FileID: fileID, Op: "fetch", Err: err}
	}

	body, err := peekBody(opened.Body)
	if err != nil {
		_ = opened.Body.Close()
		return domain.FileStream{}, &domain.RelayError{FileID: fileID, Op: "read", Err: err}
	}

	contentType := opened.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	fileName := FileNameFromPath(resolved.FilePath)

	log.Debug().
		Str("file_id", fileID).
		Str("file_name", fileName).
		Str("content_type", contentType).
		Int64("size", opened.ContentLength).
		Msg("Relaying file")

	return domain.FileStream{
		FileName:    fileName,
		ContentType: contentType,
		Size:        opened.ContentLength,
		Body:        body,
	}, nil
}

// FileNameFromPath returns the segment after the last slash, or PlaceholderFileName when it is empty.
func FileNameFromPath(filePath string) string {
	name := filePath[strings.LastIndex(filePath, "/")+1:]
	if name == "" {
		return PlaceholderFileName
	}
	return name
}
