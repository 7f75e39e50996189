package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowbaker/filerelay/internal/domain"
	"github.com/flowbaker/filerelay/internal/format"
	"github.com/flowbaker/filerelay/internal/identifier"
	"github.com/flowbaker/filerelay/pkg/batch"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const defaultContentType = "application/octet-stream"

// UploadService pushes a batch of files to the document store.
//
// A batch either succeeds as a whole or fails as a whole. Files that the store
// accepted before a sibling failed stay stored upstream and are only logged.
type UploadService struct {
	store          domain.DocumentStore
	generateID     func() string
	maxConcurrency int
}

type UploadServiceDependencies struct {
	Store domain.DocumentStore

	// IDGenerator defaults to identifier.Generate.
	IDGenerator func() string
	// MaxConcurrency caps parallel store calls per batch; zero means unbounded.
	MaxConcurrency int
}

func NewUploadService(deps UploadServiceDependencies) *UploadService {
	generateID := deps.IDGenerator
	if generateID == nil {
		generateID = identifier.Generate
	}

	return &UploadService{
		store:          deps.Store,
		generateID:     generateID,
		maxConcurrency: deps.MaxConcurrency,
	}
}

type preparedFile struct {
	raw       domain.RawFile
	sanitized domain.SanitizedFile
	sizeLabel string
}

// Upload stores every file and returns their descriptors in input order.
func (s *UploadService) Upload(ctx context.Context, files []domain.RawFile, baseURL string) ([]domain.FileDescriptor, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	prepared := make([]preparedFile, len(files))
	for i, file := range files {
		p, err := s.prepare(file)
		if err != nil {
			return nil, &domain.UploadError{Index: i, FileName: file.OriginalName, Err: err}
		}
		prepared[i] = p
	}

	baseURL = strings.TrimRight(baseURL, "/")

	outcomes := batch.Settle(ctx, len(prepared), batch.Options{MaxConcurrency: s.maxConcurrency},
		func(ctx context.Context, index int) (domain.FileDescriptor, error) {
			return s.uploadOne(ctx, prepared[index], baseURL)
		})

	if failed, ok := batch.FirstFailure(outcomes); ok {
		s.logOrphans(outcomes)

		return nil, &domain.UploadError{
			Index:    failed.Index,
			FileName: files[failed.Index].OriginalName,
			Err:      failed.Err,
		}
	}

	descriptors := batch.Values(outcomes)

	log.Info().
		Int("files", len(descriptors)).
		Strs("file_ids", lo.Map(descriptors, func(d domain.FileDescriptor, _ int) string { return d.ExternalID })).
		Msg("Batch uploaded")

	return descriptors, nil
}

func (s *UploadService) prepare(file domain.RawFile) (preparedFile, error) {
	sizeLabel, err := format.FormatBytes(file.SizeBytes)
	if err != nil {
		return preparedFile{}, err
	}

	mimeType := file.MimeType
	if mimeType == "" || mimeType == defaultContentType {
		mimeType = mimetype.Detect(file.Content).String()
	}

	return preparedFile{
		raw: file,
		sanitized: domain.SanitizedFile{
			StoredName: StoredName(s.generateID(), file.OriginalName),
			MimeType:   mimeType,
			SizeBytes:  file.SizeBytes,
			Content:    file.Content,
		},
		sizeLabel: sizeLabel,
	}, nil
}

func (s *UploadService) uploadOne(ctx context.Context, file preparedFile, baseURL string) (domain.FileDescriptor, error) {
	result, err := s.store.UploadDocument(ctx, domain.UploadDocumentParams{
		FileName:    file.sanitized.StoredName,
		ContentType: file.sanitized.MimeType,
		SizeBytes:   file.sanitized.SizeBytes,
		Content:     file.sanitized.Content,
	})
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("failed to upload %s: %w", file.sanitized.StoredName, err)
	}

	return domain.FileDescriptor{
		OriginalName: file.raw.OriginalName,
		MimeType:     file.sanitized.MimeType,
		SizeLabel:    file.sizeLabel,
		PublicURL:    baseURL + "/file/" + result.FileID,
		ExternalID:   result.FileID,
	}, nil
}

// logOrphans records files that were stored upstream although their batch failed.
func (s *UploadService) logOrphans(outcomes []batch.Outcome[domain.FileDescriptor]) {
	orphans := batch.Values(outcomes)
	if len(orphans) == 0 {
		return
	}

	log.Warn().
		Int("orphaned", len(orphans)).
		Strs("file_ids", lo.Map(orphans, func(d domain.FileDescriptor, _ int) string { return d.ExternalID })).
		Msg("Batch failed after some files were stored; they are not reported to the client")
}
