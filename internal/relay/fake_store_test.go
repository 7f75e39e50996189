package relay

import (
	"context"
	"io"
	"sync"

	"github.com/flowbaker/filerelay/internal/domain"
)

type fakeStore struct {
	mu sync.Mutex

	uploadFunc  func(params domain.UploadDocumentParams) (domain.UploadDocumentResult, error)
	resolveFunc func(params domain.ResolveFileParams) (domain.ResolvedFile, error)
	openFunc    func(file domain.ResolvedFile) (domain.OpenFileResult, error)

	uploads    []domain.UploadDocumentParams
	openCalled int
}

func (f *fakeStore) UploadDocument(ctx context.Context, params domain.UploadDocumentParams) (domain.UploadDocumentResult, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, params)
	f.mu.Unlock()

	return f.uploadFunc(params)
}

func (f *fakeStore) ResolveFile(ctx context.Context, params domain.ResolveFileParams) (domain.ResolvedFile, error) {
	return f.resolveFunc(params)
}

func (f *fakeStore) OpenFile(ctx context.Context, file domain.ResolvedFile) (domain.OpenFileResult, error) {
	f.mu.Lock()
	f.openCalled++
	f.mu.Unlock()

	return f.openFunc(file)
}

func (f *fakeStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

type failingReader struct {
	err error
}

func (r failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}
