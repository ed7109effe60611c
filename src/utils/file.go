package utils

import (
	"fmt"
	"io"
	"os"
)

// -----------------------------------------------------------------------------

// WriteNewFile creates path, which must not exist yet, and writes content to it.
// A failed write or close removes the partial file. An existing path yields an
// error matching os.ErrExist.
func WriteNewFile(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if err := writeAndClose(f, content); err != nil {
		os.Remove(path)
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// writeAndClose always closes w and reports the first failure.
func writeAndClose(w io.WriteCloser, content []byte) error {
	if _, err := w.Write(content); err != nil {
		w.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
