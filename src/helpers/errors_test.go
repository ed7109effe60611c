package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"traffic-publisher/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewFetchError("analytics request failed", 0, cause)

	assert.Equal(t, "analytics request failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewConfigurationError("missing token", nil)
	assert.Equal(t, "missing token", bare.Error())
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("run aborted: %w", NewPublishError("traffic_data/a.json", "update failed", errors.New("409")))

	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.Equal(t, "traffic_data/a.json", pubErr.Path)

	assert.True(t, IsExtractionError(fmt.Errorf("x: %w", NewExtractionError("bad xlsx", nil))))
	assert.False(t, IsExtractionError(err))
	assert.True(t, IsConfigurationError(NewConfigurationError("no key", nil)))
}

func TestErrorHandlerCountsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	h := NewErrorHandler(logger.NewLogger(&buf, "test", "INFO"))

	h.Handle(nil, "noop")
	h.Handle(errors.New("boom"), "manifest publish")

	assert.Equal(t, 1, h.ErrorCount)
	assert.Contains(t, buf.String(), "Error in manifest publish: boom")

	h.ResetErrorCount()
	assert.Zero(t, h.ErrorCount)
}
