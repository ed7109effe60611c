package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriteCloser struct {
	writeErr error
	closeErr error
	written  []byte
	closed   int
}

func (s *stubWriteCloser) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *stubWriteCloser) Close() error {
	s.closed++
	return s.closeErr
}

func TestWriteAndCloseReportsCloseFailure(t *testing.T) {
	w := &stubWriteCloser{closeErr: errors.New("disk full")}
	err := writeAndClose(w, []byte("data"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []byte("data"), w.written)
	assert.Equal(t, 1, w.closed)
}

func TestWriteAndCloseClosesAfterWriteFailure(t *testing.T) {
	w := &stubWriteCloser{writeErr: errors.New("broken pipe")}
	err := writeAndClose(w, []byte("data"))
	assert.ErrorContains(t, err, "broken pipe")
	assert.Equal(t, 1, w.closed)
}

func TestWriteNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteNewFile(path, []byte("a\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))

	err = WriteNewFile(path, []byte("b\n"))
	assert.True(t, errors.Is(err, os.ErrExist))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))
}
