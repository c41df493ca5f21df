package errors

import (
	stderrors "errors"
	"io/fs"
)

// ErrNotEmpty is returned when a directory cannot be removed because it still
// has children. The io/fs package has no equivalent sentinel.
var ErrNotEmpty = stderrors.New("directory not empty")

// sentinelFor returns the io/fs (or package) sentinel matched by errors carrying code.
func sentinelFor(code ErrorCode) error {
	switch code {
	case CodeNotFound:
		return fs.ErrNotExist
	case CodeAlreadyExists:
		return fs.ErrExist
	case CodeForbidden, CodeUnauthorized:
		return fs.ErrPermission
	case CodeInvalidInput, CodeNotADirectory, CodeIsADirectory:
		return fs.ErrInvalid
	case CodeInvalidState:
		return fs.ErrClosed
	case CodeDirectoryNotEmpty:
		return ErrNotEmpty
	case CodeNotImplemented:
		return stderrors.ErrUnsupported
	default:
		return nil
	}
}
