package xrd

import (
	"io/fs"
	"time"
)

// OpenFlags are kXR_open option bits.
type OpenFlags uint16

const (
	OpenDelete  OpenFlags = 0x0002 // kXR_delete: create, truncating any existing file
	OpenForce   OpenFlags = 0x0004
	OpenNew     OpenFlags = 0x0008 // kXR_new: create, failing if the file exists
	OpenRead    OpenFlags = 0x0010
	OpenUpdate  OpenFlags = 0x0020
	OpenAsync   OpenFlags = 0x0040
	OpenRefresh OpenFlags = 0x0080
	OpenMkpath  OpenFlags = 0x0100
	OpenAppend  OpenFlags = 0x0200
)

// Has reports whether all bits of o are set.
func (f OpenFlags) Has(o OpenFlags) bool { return f&o == o }

// Writable reports whether the flags open a file for writing.
func (f OpenFlags) Writable() bool {
	return f&(OpenUpdate|OpenDelete|OpenNew|OpenAppend) != 0
}

// AccessMode are kXR_* permission bits used by open and mkdir.
type AccessMode uint16

const (
	ModeOwnerRead    AccessMode = 0x100
	ModeOwnerWrite   AccessMode = 0x080
	ModeOwnerExec    AccessMode = 0x040
	ModeGroupRead    AccessMode = 0x020
	ModeGroupWrite   AccessMode = 0x010
	ModeGroupExec    AccessMode = 0x008
	ModeOtherRead    AccessMode = 0x004
	ModeOtherWrite   AccessMode = 0x002
	ModeOtherExec    AccessMode = 0x001
	ModeDefaultFile             = ModeOwnerRead | ModeOwnerWrite | ModeGroupRead | ModeOtherRead
	ModeDefaultDir              = ModeDefaultFile | ModeOwnerExec | ModeGroupExec | ModeOtherExec
)

// AccessModeFrom converts unix permission bits. The protocol bit layout
// matches the unix one, so only the permission bits are kept.
func AccessModeFrom(perm fs.FileMode) AccessMode {
	return AccessMode(perm.Perm())
}

// StatFlags are kXR_stat flag bits.
type StatFlags uint32

const (
	StatXset     StatFlags = 1
	StatIsDir    StatFlags = 2
	StatOther    StatFlags = 4
	StatOffline  StatFlags = 8
	StatReadable StatFlags = 16
	StatWritable StatFlags = 32
	StatPOSCPend StatFlags = 64
)

// StatInfo is the server's view of a path.
type StatInfo struct {
	Size    int64
	ModTime time.Time
	Flags   StatFlags
}

// IsDir reports whether the entry is a directory.
func (s StatInfo) IsDir() bool { return s.Flags&StatIsDir != 0 }

// Mode synthesizes an fs.FileMode from the flags.
func (s StatInfo) Mode() fs.FileMode {
	var m fs.FileMode
	if s.Flags&StatReadable != 0 {
		m |= 0o444
	}
	if s.Flags&StatWritable != 0 {
		m |= 0o200
	}
	if s.Flags&StatXset != 0 {
		m |= 0o111
	}
	if s.IsDir() {
		m |= fs.ModeDir
	} else if s.Flags&StatOther != 0 {
		m |= fs.ModeIrregular
	}
	return m
}

// DirEntry is one element of a directory listing.
type DirEntry struct {
	Name string
	StatInfo
}
