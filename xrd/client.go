// Package xrd defines the narrow XRootD client contract the filesystem is
// built on, together with the protocol's status codes and flag bits.
//
// The production transport is go-hep's xrootd client (see DialHEP). Tests use
// the in-memory server in package xrdtest.
package xrd

import (
	"context"
	"net/url"
	"time"
)

// Client is one session against an XRootD endpoint. Every method is a
// blocking round trip; failures are returned as *Status where the server
// reported one, or as the raw transport error otherwise.
//
// Paths are absolute server paths and never carry a query string.
type Client interface {
	Open(ctx context.Context, path string, flags OpenFlags, mode AccessMode) (File, error)
	Stat(ctx context.Context, path string) (StatInfo, error)
	DirList(ctx context.Context, path string) ([]DirEntry, error)
	Mkdir(ctx context.Context, path string, mode AccessMode, recursive bool) error
	Rm(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Mv(ctx context.Context, src, dst string) error
	// Checksum returns the server's stored checksum of path as
	// "<algorithm> <value>".
	Checksum(ctx context.Context, path string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// File is one open remote file. Offsets are absolute; the remote side has no
// cursor.
type File interface {
	// ReadAt reads up to len(p) bytes at off. The server may return fewer
	// bytes than requested; zero bytes with a nil error means end of file.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// WriteAt writes all of p at off.
	WriteAt(ctx context.Context, p []byte, off int64) error
	Stat(ctx context.Context) (StatInfo, error)
	Truncate(ctx context.Context, size int64) error
	Sync(ctx context.Context) error
	Close(ctx context.Context) error
}

// VerifyingCloser is implemented by files whose close request can carry the
// expected final size. The server then refuses the close when the stored
// file does not match.
type VerifyingCloser interface {
	CloseVerify(ctx context.Context, size int64) error
}

// Session carries the connection-level parameters of one endpoint.
//
// Query is the opaque query string of the root URL. It belongs to the
// session and is applied once when the session is established; it is never
// appended to file or directory paths.
type Session struct {
	Address string
	User    string
	Query   url.Values

	// Client knobs passed through to the transport.
	RequestTimeout    time.Duration
	TimeoutResolution time.Duration
	ConnectionWindow  time.Duration
	ConnectionRetry   int
}

// Dialer establishes a session.
type Dialer func(ctx context.Context, s Session) (Client, error)
