package core

import (
	"errors"
	"io/fs"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
)

var (
	// ErrNotExist is returned when a file or directory does not exist.
	// Re-exported from io/fs for convenience.
	ErrNotExist = fs.ErrNotExist

	// ErrExist is returned when a file or directory already exists.
	// Re-exported from io/fs for convenience.
	ErrExist = fs.ErrExist

	// ErrPermission is returned when permission is denied.
	// Re-exported from io/fs for convenience.
	ErrPermission = fs.ErrPermission

	// ErrInvalid is returned for invalid arguments: bad paths, bad seek
	// targets, bad modes, or a file given where a directory is expected.
	ErrInvalid = fs.ErrInvalid

	// ErrClosed is returned when an operation is performed on a closed file.
	// Re-exported from io/fs for convenience.
	ErrClosed = fs.ErrClosed

	// ErrNotEmpty is returned when removing a directory that still has children.
	ErrNotEmpty = xerrors.ErrNotEmpty

	// ErrUnsupported is returned when an operation is not supported by the provider.
	ErrUnsupported = errors.ErrUnsupported
)
