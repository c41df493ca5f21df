// Package errs translates remote failures into the filesystem error taxonomy.
package errs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// Context keys attached to translated errors.
const (
	KeyOp      = "op"
	KeyPath    = "path"
	KeyErrno   = "errno"
	KeyMessage = "remote_message"
)

// Code maps an xrootd status to an error code.
func Code(st *xrd.Status) xerrors.ErrorCode {
	if st.Fatal {
		return xerrors.CodeRemoteIO
	}
	switch st.Code {
	case xrd.ErrNotFound, xrd.PosixENOENT:
		return xerrors.CodeNotFound
	case xrd.ErrItExists, xrd.ErrInvalidReq, xrd.PosixEEXIST:
		// 3006 is the legacy (v4) "exists" errno.
		return xerrors.CodeAlreadyExists
	case xrd.ErrFSError:
		// The server only distinguishes the two through the message.
		if strings.HasSuffix(strings.TrimSpace(st.Message), "not a directory") {
			return xerrors.CodeNotADirectory
		}
		return xerrors.CodeDirectoryNotEmpty
	case xrd.PosixENOTDIR, xrd.ErrNotFile:
		return xerrors.CodeNotADirectory
	case xrd.PosixENOTEMPTY:
		return xerrors.CodeDirectoryNotEmpty
	case xrd.ErrIsDirectory, xrd.PosixEISDIR:
		return xerrors.CodeIsADirectory
	case xrd.ErrNotAuthorized, xrd.ErrFSReadOnly, xrd.PosixEACCES:
		return xerrors.CodeForbidden
	case xrd.ErrAuthFailed:
		return xerrors.CodeUnauthorized
	case xrd.ErrArgInvalid, xrd.ErrArgMissing, xrd.ErrArgTooLong, xrd.ErrBadPayload, xrd.PosixEINVAL:
		return xerrors.CodeInvalidInput
	case xrd.ErrUnsupported:
		return xerrors.CodeNotImplemented
	case xrd.ErrNoServer, xrd.ErrOverloaded:
		return xerrors.CodeUnavailable
	case xrd.ErrReqTimedOut, xrd.ErrTimerExpired:
		return xerrors.CodeTimeout
	default:
		return xerrors.CodeRemoteIO
	}
}

// Translate converts a client failure into a PlatformError carrying op, path,
// errno and the remote message. PlatformErrors pass through with op and path
// added. Returns nil if err is nil.
func Translate(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var platformErr xerrors.PlatformError
	if errors.As(err, &platformErr) {
		return withOpPath(platformErr, op, path)
	}

	if st, ok := xrd.AsStatus(err); ok {
		out := xerrors.WrapWithContext(st, Code(st), st.Message, map[string]interface{}{
			KeyOp:      op,
			KeyPath:    path,
			KeyErrno:   st.Code,
			KeyMessage: st.Message,
		})
		if st.Fatal {
			out = xerrors.WithClassification(out, xerrors.ClassificationPermanent)
		}
		return out
	}

	code := xerrors.CodeRemoteIO
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = xerrors.CodeTimeout
	case errors.Is(err, context.Canceled):
		code = xerrors.CodeRemoteIO
	case errors.Is(err, pathutil.ErrInvalidPath):
		code = xerrors.CodeInvalidInput
	case errors.As(err, &netErr) && netErr.Timeout():
		code = xerrors.CodeTimeout
	case errors.As(err, &netErr):
		code = xerrors.CodeNetwork
	}
	return xerrors.WrapWithContext(err, code, err.Error(), map[string]interface{}{
		KeyOp:   op,
		KeyPath: path,
	})
}

func withOpPath(err xerrors.PlatformError, op, path string) error {
	ctx := err.Context()
	if _, ok := ctx[KeyOp]; ok {
		return err
	}
	return xerrors.WithContextMap(err, map[string]interface{}{KeyOp: op, KeyPath: path})
}

// PathError wraps an error in a fs.PathError for the given operation and path.
// If the error is nil, returns nil.
func PathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// Remote translates err and wraps it in a fs.PathError. name is the
// caller-visible path, remote the absolute server path.
func Remote(op, name, remote string, err error) error {
	if err == nil {
		return nil
	}
	return PathError(op, name, Translate(op, remote, err))
}

// Invalid returns an INVALID_INPUT error wrapped in a fs.PathError.
func Invalid(op, name, format string, args ...interface{}) error {
	return PathError(op, name, xerrors.WithContextMap(
		xerrors.New(xerrors.CodeInvalidInput, fmt.Sprintf(format, args...)),
		map[string]interface{}{KeyOp: op, KeyPath: name},
	))
}

// New returns an error with the given code wrapped in a fs.PathError.
func New(op, name string, code xerrors.ErrorCode, format string, args ...interface{}) error {
	return PathError(op, name, xerrors.WithContextMap(
		xerrors.Newf(code, format, args...),
		map[string]interface{}{KeyOp: op, KeyPath: name},
	))
}

// Closed returns the error for an operation on a closed handle.
func Closed(op, name string) error {
	return New(op, name, xerrors.CodeInvalidState, "file already closed")
}
