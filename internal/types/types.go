// Package types provides the fs.FileInfo and fs.DirEntry implementations
// for remote entries.
package types // nolint:revive // Internal package with clear purpose

import (
	"io/fs"
	"time"

	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// FileInfo implements fs.FileInfo for a remote path.
type FileInfo struct {
	FileName string
	Stat     xrd.StatInfo
}

// NewFileInfo creates a FileInfo named name from server stat data.
func NewFileInfo(name string, st xrd.StatInfo) *FileInfo {
	return &FileInfo{FileName: name, Stat: st}
}

// Name returns the base name of the file.
func (fi *FileInfo) Name() string { return fi.FileName }

// Size returns the length in bytes.
func (fi *FileInfo) Size() int64 { return fi.Stat.Size }

// Mode returns mode bits synthesized from the xrootd stat flags.
func (fi *FileInfo) Mode() fs.FileMode { return fi.Stat.Mode() }

// ModTime returns the modification time.
func (fi *FileInfo) ModTime() time.Time { return fi.Stat.ModTime }

// IsDir reports whether this describes a directory.
func (fi *FileInfo) IsDir() bool { return fi.Stat.IsDir() }

// Sys returns the raw xrd.StatInfo, including the offline and pending flags.
func (fi *FileInfo) Sys() interface{} { return fi.Stat }

// DirEntry implements fs.DirEntry for one element of a listing.
type DirEntry struct {
	info *FileInfo
}

// NewDirEntry wraps a listing element.
func NewDirEntry(e xrd.DirEntry) *DirEntry {
	return &DirEntry{info: NewFileInfo(e.Name, e.StatInfo)}
}

// DirEntryFromInfo adapts a FileInfo, used for the root of a walk.
func DirEntryFromInfo(fi *FileInfo) *DirEntry {
	return &DirEntry{info: fi}
}

func (e *DirEntry) Name() string               { return e.info.Name() }
func (e *DirEntry) IsDir() bool                { return e.info.IsDir() }
func (e *DirEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e *DirEntry) Info() (fs.FileInfo, error) { return e.info, nil }

// Compile-time interface checks.
var (
	_ fs.FileInfo = (*FileInfo)(nil)
	_ fs.DirEntry = (*DirEntry)(nil)
)
