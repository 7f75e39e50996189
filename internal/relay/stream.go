package relay

import (
	"bufio"
	"errors"
	"io"
)

const streamBufferSize = 32 * 1024

type peekedBody struct {
	*bufio.Reader
	io.Closer
}

// peekBody reads ahead one byte so that an upstream failure is reported before
// anything is written to the client. An empty body is not an error.
func peekBody(body io.ReadCloser) (io.ReadCloser, error) {
	reader := bufio.NewReaderSize(body, streamBufferSize)

	if _, err := reader.Peek(1); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &peekedBody{Reader: reader, Closer: body}, nil
}
