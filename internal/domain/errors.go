package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch = errors.New("no files uploaded")
	ErrNotFound   = errors.New("file not found")
)

// UploadError reports a failed batch. It carries the first failing file in input order.
type UploadError struct {
	Index    int
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q (#%d) failed: %v", e.FileName, e.Index, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RelayError reports an upstream failure while resolving or streaming a file.
type RelayError struct {
	FileID string
	Op     string
	Err    error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s for file %s: %v", e.Op, e.FileID, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}
