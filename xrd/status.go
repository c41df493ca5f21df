package xrd

import (
	"errors"
	"fmt"
)

// XRootD kXR_* error codes, plus the POSIX errnos servers sometimes return.
const (
	ErrArgInvalid    = 3000
	ErrArgMissing    = 3001
	ErrArgTooLong    = 3002
	ErrFileLocked    = 3003
	ErrFileNotOpen   = 3004
	ErrFSError       = 3005
	ErrInvalidReq    = 3006
	ErrIOError       = 3007
	ErrNoMemory      = 3008
	ErrNoSpace       = 3009
	ErrNotAuthorized = 3010
	ErrNotFound      = 3011
	ErrServerError   = 3012
	ErrUnsupported   = 3013
	ErrNoServer      = 3014
	ErrNotFile       = 3015
	ErrIsDirectory   = 3016
	ErrCancelled     = 3017
	ErrItExists      = 3018
	ErrChkSumErr     = 3019
	ErrInProgress    = 3020
	ErrOverQuota     = 3021
	ErrSigVerErr     = 3022
	ErrDecryptErr    = 3023
	ErrOverloaded    = 3024
	ErrFSReadOnly    = 3025
	ErrBadPayload    = 3026
	ErrAttrNotFound  = 3027
	ErrTLSRequired   = 3028
	ErrNoReplicas    = 3029
	ErrAuthFailed    = 3030
	ErrImpossible    = 3031
	ErrConflict      = 3032
	ErrTooManyErrs   = 3033
	ErrReqTimedOut   = 3034
	ErrTimerExpired  = 3035

	PosixENOENT    = 2
	PosixEACCES    = 13
	PosixEEXIST    = 17
	PosixENOTDIR   = 20
	PosixEISDIR    = 21
	PosixEINVAL    = 22
	PosixENOTEMPTY = 39
)

// Status is the outcome of a failed remote call. It implements error.
type Status struct {
	Code    int
	Message string
	// Fatal marks an unrecoverable failure of the session itself.
	Fatal bool
	// Err is the underlying transport error, if any.
	Err error
}

// NewStatus returns a non-fatal status with a formatted message.
func NewStatus(code int, format string, args ...interface{}) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error renders "[ERROR] message (errno N)" the way the xrootd client does.
func (s *Status) Error() string {
	kind := "ERROR"
	if s.Fatal {
		kind = "FATAL"
	}
	return fmt.Sprintf("[%s] %s (errno %d)", kind, s.Message, s.Code)
}

// Unwrap returns the transport error, if any.
func (s *Status) Unwrap() error { return s.Err }

// AsStatus extracts a *Status from err's chain.
func AsStatus(err error) (*Status, bool) {
	var st *Status
	if errors.As(err, &st) {
		return st, true
	}
	return nil, false
}
