package core

import (
	"io"
	"io/fs"
)

// FSType represents the underlying type of filesystem implementation.
type FSType int

const (
	// FSTypeUnknown indicates the filesystem type is unknown or unspecified.
	FSTypeUnknown FSType = iota
	// FSTypeLocal indicates a local filesystem (e.g., disk-backed).
	FSTypeLocal
	// FSTypeMemory indicates an in-memory filesystem.
	FSTypeMemory
	// FSTypeRemote indicates a remote filesystem (e.g., an XRootD endpoint).
	FSTypeRemote
)

// String returns a string representation of the FSType.
func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// FS is the capability contract a mounted filesystem satisfies.
// FS explicitly embeds fs.FS for stdlib compatibility.
//
// It is composed of ReadFS, WriteFS, ManageFS, BulkFS, WalkFS and ChrootFS.
// Callers should depend on FS (or the narrowest sub-interface they need)
// rather than on a concrete provider type.
type FS interface {
	fs.FS
	ReadFS
	WriteFS
	ManageFS
	BulkFS
	WalkFS
	ChrootFS

	// Type returns the underlying filesystem type.
	Type() FSType
}

// ReadFS defines read-only filesystem operations.
type ReadFS interface {
	// Open opens the named file for reading.
	// Callers can type-assert the result to File.
	Open(name string) (fs.File, error)

	// Stat returns file metadata. A missing path fails with fs.ErrNotExist.
	// If there is an error, it will be of type *fs.PathError.
	Stat(name string) (fs.FileInfo, error)

	// ReadDir returns the entries of the named directory sorted by filename.
	// A missing path fails with fs.ErrNotExist and a file fails with fs.ErrInvalid.
	ReadDir(name string) ([]fs.DirEntry, error)

	// ReadFile reads the named file and returns its contents.
	// A successful call returns err == nil, not err == EOF.
	ReadFile(name string) ([]byte, error)

	// Exists reports whether the named file or directory exists.
	// A false result with a non-nil error means existence could not be
	// determined, not that the path is absent.
	Exists(name string) (bool, error)
}

// WriteFS defines write operations.
type WriteFS interface {
	// Create creates or truncates the named file for writing.
	Create(name string) (File, error)

	// OpenFile opens a file with the specified os flags (O_RDONLY, O_WRONLY,
	// O_RDWR, O_CREATE, O_TRUNC, O_EXCL, O_APPEND).
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)

	// WriteFile writes data to the named file, creating or truncating it.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Mkdir creates a new directory. It fails with fs.ErrExist if the path
	// is already present.
	Mkdir(name string, perm fs.FileMode) error

	// MkdirAll creates a directory along with any necessary parents.
	// If path is already a directory, MkdirAll does nothing and returns nil.
	MkdirAll(path string, perm fs.FileMode) error
}

// ManageFS defines single-object management operations.
type ManageFS interface {
	// Remove removes the named file. A directory fails with fs.ErrInvalid.
	Remove(name string) error

	// RemoveDir removes the named empty directory. A file fails with
	// fs.ErrInvalid and a non-empty directory with ErrNotEmpty.
	RemoveDir(name string) error

	// RemoveAll removes path and any children it contains.
	// If the path does not exist, RemoveAll returns nil.
	RemoveAll(path string) error

	// Rename renames (moves) oldpath to newpath in one remote call.
	Rename(oldpath, newpath string) error
}

// BulkFS defines tree-wide operations that fan out per-entry work.
//
// Leaf failures do not abort sibling work. When any leaf fails the call
// returns an aggregate error that unwraps to every leaf failure.
type BulkFS interface {
	// Copy copies the file or directory tree at src to dst. dst must not exist.
	Copy(src, dst string) error

	// Move moves the file or directory tree at src to dst. dst must not exist.
	Move(src, dst string) error

	// RemoveTree removes the directory at path and everything below it.
	RemoveTree(path string) error
}

// WalkFS defines directory tree traversal operations.
type WalkFS interface {
	// Walk walks the file tree rooted at root in lexical order, calling walkFn
	// for each file or directory in the tree, including root.
	Walk(root string, walkFn fs.WalkDirFunc) error
}

// ChrootFS defines the ability to create scoped filesystem views.
type ChrootFS interface {
	// Chroot returns a filesystem scoped to the given directory.
	// All operations on the returned FS are relative to dir and cannot
	// access paths outside of dir. dir must exist and be a directory.
	Chroot(dir string) (FS, error)
}

// File represents an open file handle.
// File extends fs.File with write operations.
//
// A File is owned by the caller that opened it and is not safe for
// concurrent use.
type File interface {
	fs.File

	// Write writes len(p) bytes from p to the file.
	// Write must return a non-nil error if it returns n < len(p).
	io.Writer

	// Name returns the name of the file as provided to Open or Create.
	Name() string
}

// Optional File capabilities (use type assertions):
//
// - io.Seeker: Seek(offset int64, whence int) (int64, error)
// - io.ReaderAt: ReadAt(p []byte, off int64) (n int, err error)
// - Truncater: Truncate(size int64) error
// - Syncer: Sync() error
// - Sizer: Size() (int64, error)

// Truncater allows truncating a file to a specified size.
//
//	if t, ok := file.(Truncater); ok {
//	    err := t.Truncate(size)
//	}
type Truncater interface {
	// Truncate changes the size of the file.
	// It does not change the I/O offset.
	Truncate(size int64) error
}

// Syncer allows syncing file contents to stable storage.
type Syncer interface {
	// Sync commits the current contents of the file to stable storage.
	Sync() error
}

// Sizer reports the total size of an open file.
type Sizer interface {
	// Size returns the file size in bytes. Implementations may cache the
	// value for the lifetime of the handle.
	Size() (int64, error)
}
