package errors

import "fmt"

// New creates a new PlatformError with the given code and message.
// The error classification is determined by the error code using default mappings.
//
// Example:
//
//	err := errors.New(errors.CodeNotFound, "no such file or directory")
func New(code ErrorCode, message string) PlatformError {
	return &platformError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a new PlatformError with a formatted message.
//
// Example:
//
//	err := errors.Newf(errors.CodeInvalidInput, "chunk size %d out of range [1, %d]", n, maxChunk)
func Newf(code ErrorCode, format string, args ...interface{}) PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}

// promote returns err as a PlatformError, converting plain errors to CodeUnknown.
func promote(err error) PlatformError {
	var platformErr PlatformError
	if As(err, &platformErr) {
		return platformErr
	}
	return &platformError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}

// copyContext returns a shallow copy of ctx with room for extra entries.
func copyContext(ctx map[string]interface{}, extra int) map[string]interface{} {
	if ctx == nil && extra == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(ctx)+extra)
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
