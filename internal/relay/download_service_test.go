package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/flowbaker/filerelay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveTo(filePath string) func(domain.ResolveFileParams) (domain.ResolvedFile, error) {
	return func(params domain.ResolveFileParams) (domain.ResolvedFile, error) {
		return domain.ResolvedFile{
			FileID:   params.FileID,
			FilePath: filePath,
			URL:      "https://files.example.com/" + filePath,
		}, nil
	}
}

func TestDownloadService_StreamsFile(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("file contents")}
	store := &fakeStore{
		resolveFunc: resolveTo("documents/file_42.pdf"),
		openFunc: func(file domain.ResolvedFile) (domain.OpenFileResult, error) {
			assert.Equal(t, "https://files.example.com/documents/file_42.pdf", file.URL)
			return domain.OpenFileResult{ContentType: "application/pdf", ContentLength: 13, Body: body}, nil
		},
	}
	service := NewDownloadService(DownloadServiceDependencies{Store: store})

	stream, err := service.Download(context.Background(), "BQACAgIAAx")
	require.NoError(t, err)

	assert.Equal(t, "file_42.pdf", stream.FileName)
	assert.Equal(t, "application/pdf", stream.ContentType)
	assert.Equal(t, int64(13), stream.Size)

	data, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))

	require.NoError(t, stream.Body.Close())
	assert.True(t, body.closed)
}

func TestDownloadService_FileNameAndContentTypeFallbacks(t *testing.T) {
	store := &fakeStore{
		resolveFunc: resolveTo("documents/"),
		openFunc: func(file domain.ResolvedFile) (domain.OpenFileResult, error) {
			return domain.OpenFileResult{ContentLength: -1, Body: io.NopCloser(strings.NewReader(""))}, nil
		},
	}
	service := NewDownloadService(DownloadServiceDependencies{Store: store})

	stream, err := service.Download(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, PlaceholderFileName, stream.FileName)
	assert.Equal(t, "application/octet-stream", stream.ContentType)

	data, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDownloadService_UnknownIdentifierSkipsFetch(t *testing.T) {
	store := &fakeStore{
		resolveFunc: func(params domain.ResolveFileParams) (domain.ResolvedFile, error) {
			return domain.ResolvedFile{}, domain.ErrNotFound
		},
		openFunc: func(file domain.ResolvedFile) (domain.OpenFileResult, error) {
			t.Fatal("byte stream must not be fetched")
			return domain.OpenFileResult{}, nil
		},
	}
	service := NewDownloadService(DownloadServiceDependencies{Store: store})

	_, err := service.Download(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.openCalled)
}

func TestDownloadService_BlankIdentifier(t *testing.T) {
	service := NewDownloadService(DownloadServiceDependencies{Store: &fakeStore{}})

	_, err := service.Download(context.Background(), "  ")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloadService_RelayErrors(t *testing.T) {
	errUpstream := errors.New("connection reset")

	tests := []struct {
		name  string
		store *fakeStore
		op    string
	}{
		{
			name: "resolve transport failure",
			store: &fakeStore{
				resolveFunc: func(params domain.ResolveFileParams) (domain.ResolvedFile, error) {
					return domain.ResolvedFile{}, errUpstream
				},
			},
			op: "resolve",
		},
		{
			name: "fetch failure",
			store: &fakeStore{
				resolveFunc: resolveTo("documents/a.txt"),
				openFunc: func(file domain.ResolvedFile) (domain.OpenFileResult, error) {
					return domain.OpenFileResult{}, errUpstream
				},
			},
			op: "fetch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewDownloadService(DownloadServiceDependencies{Store: tt.store})

			_, err := service.Download(context.Background(), "abc")

			var relayErr *domain.RelayError
			require.ErrorAs(t, err, &relayErr)
			assert.Equal(t, tt.op, relayErr.Op)
			assert.Equal(t, "abc", relayErr.FileID)
			assert.ErrorIs(t, err, errUpstream)
			assert.NotErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestDownloadService_FailureBeforeFirstByteIsReported(t *testing.T) {
	errUpstream := errors.New("stream broke")
	body := &trackingBody{Reader: failingReader{err: errUpstream}}
	store := &fakeStore{
		resolveFunc: resolveTo("documents/a.txt"),
		openFunc: func(file domain.ResolvedFile) (domain.OpenFileResult, error) {
			return domain.OpenFileResult{ContentType: "text/plain", Body: body}, nil
		},
	}
	service := NewDownloadService(DownloadServiceDependencies{Store: store})

	_, err := service.Download(context.Background(), "abc")

	var relayErr *domain.RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, "read", relayErr.Op)
	assert.ErrorIs(t, err, errUpstream)
	assert.True(t, body.closed)
}

func TestFileNameFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "documents/file_1.pdf", expected: "file_1.pdf"},
		{path: "file_1.pdf", expected: "file_1.pdf"},
		{path: "a/b/c/photo.jpg", expected: "photo.jpg"},
		{path: "documents/", expected: PlaceholderFileName},
		{path: "", expected: PlaceholderFileName},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileNameFromPath(tt.path))
		})
	}
}
