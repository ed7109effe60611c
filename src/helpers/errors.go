package helpers

import (
	"errors"
	"fmt"

	"traffic-publisher/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ConfigurationError: missing or invalid credentials/config. Fatal at construction.
type ConfigurationError struct{ PipelineError }

// ExtractionError: an attachment could not be decoded. The attachment is skipped.
type ExtractionError struct{ PipelineError }

// FetchError: the analytics API call failed. StatusCode is 0 for transport failures.
type FetchError struct {
	PipelineError
	StatusCode int
}

// PublishError: a remote store operation failed for Path.
type PublishError struct {
	PipelineError
	Path string
}

// ManifestPublishError: the upload summary could not be published.
type ManifestPublishError struct{ PipelineError }

// -----------------------------------------------------------------------------

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{PipelineError{Message: msg, Cause: cause}}
}

func NewExtractionError(msg string, cause error) *ExtractionError {
	return &ExtractionError{PipelineError{Message: msg, Cause: cause}}
}

func NewFetchError(msg string, status int, cause error) *FetchError {
	return &FetchError{PipelineError: PipelineError{Message: msg, Cause: cause}, StatusCode: status}
}

func NewPublishError(path string, msg string, cause error) *PublishError {
	return &PublishError{PipelineError: PipelineError{Message: msg, Cause: cause}, Path: path}
}

func NewManifestPublishError(msg string, cause error) *ManifestPublishError {
	return &ManifestPublishError{PipelineError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsExtractionError reports whether err wraps an ExtractionError.
func IsExtractionError(err error) bool {
	var target *ExtractionError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs errors that are swallowed rather than returned, so every
// dropped failure still leaves a trace with its operation context.
type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{
		Logger: log.Named("ErrorHandler"),
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// Handle logs err with context and counts it. Nil errors are ignored.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.ErrorCount++
	e.Logger.Error("Error in %s: %v", context, err)
}

// -----------------------------------------------------------------------------

// ErrFileNotFound marks a remote path that does not exist yet.
var ErrFileNotFound = errors.New("file not found")
