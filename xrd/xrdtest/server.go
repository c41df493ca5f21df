// Package xrdtest provides an in-memory XRootD server for tests.
//
// The server stores its namespace in a go-billy memfs, answers with the same
// errno values a real xrootd daemon uses, and can inject faults, short reads
// and silent data loss on close.
package xrdtest

import (
	"context"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// Operation names accepted by Fail and reported by Calls.
const (
	OpOpen     = "open"
	OpStat     = "stat"
	OpDirList  = "dirlist"
	OpMkdir    = "mkdir"
	OpRm       = "rm"
	OpRmdir    = "rmdir"
	OpMv       = "mv"
	OpChecksum = "checksum"
	OpPing     = "ping"
	OpRead     = "read"
	OpWrite    = "write"
	OpFstat    = "fstat"
	OpTruncate = "truncate"
	OpSync     = "sync"
	OpClose    = "close"
)

// Call is one request received by the server.
type Call struct {
	Op   string
	Path string
}

type fault struct {
	op, path string
}

// Server is an in-memory xrootd namespace. It is safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	bfs      billy.Filesystem
	faults   map[fault]*xrd.Status
	lose     map[string]bool
	shrink   map[string]bool
	maxRead  int
	sessions []xrd.Session
	calls    []Call
	open     int
}

// NewServer returns an empty server whose namespace holds only "/".
func NewServer() *Server {
	return &Server{
		bfs:    memfs.New(),
		faults: make(map[fault]*xrd.Status),
		lose:   make(map[string]bool),
		shrink: make(map[string]bool),
	}
}

// Dial records the session and returns a client bound to the server.
// It satisfies xrd.Dialer.
func (s *Server) Dial(_ context.Context, sess xrd.Session) (xrd.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.faultLocked("dial", sess.Address); st != nil {
		return nil, st
	}
	s.sessions = append(s.sessions, sess)
	return &client{srv: s}, nil
}

// Client returns a client without recording a session.
func (s *Server) Client() xrd.Client {
	return &client{srv: s}
}

// Fail makes every later op on p fail with st. An empty p matches any path.
func (s *Server) Fail(op, p string, st *xrd.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[fault{op: op, path: p}] = st
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[fault]*xrd.Status)
}

// LoseOnClose makes the next close of a handle on p succeed while deleting
// the file, the way a failed replica commit looks to the client.
func (s *Server) LoseOnClose(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lose[p] = true
}

// ShrinkOnClose makes the next close of a handle on p succeed while
// dropping the last byte of the file.
func (s *Server) ShrinkOnClose(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shrink[p] = true
}

// SetMaxReadSize caps the bytes returned by a single read. Zero disables the cap.
func (s *Server) SetMaxReadSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxRead = n
}

// Sessions returns the sessions established through Dial.
func (s *Server) Sessions() []xrd.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]xrd.Session(nil), s.sessions...)
}

// Calls returns the received requests, optionally filtered by op.
func (s *Server) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// OpenHandles returns the number of handles not yet closed.
func (s *Server) OpenHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// WriteFile seeds a file, creating parent directories.
func (s *Server) WriteFile(p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = clean(p)
	if err := s.bfs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := s.bfs.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// MkdirAll seeds a directory.
func (s *Server) MkdirAll(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bfs.MkdirAll(clean(p), 0o755)
}

// ReadFile returns the stored content of p.
func (s *Server) ReadFile(p string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.bfs.Open(clean(p))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Exists reports whether p is present in the namespace.
func (s *Server) Exists(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.statLocked(clean(p))
	return err == nil
}

func clean(p string) string {
	return path.Clean("/" + p)
}

// record logs the call and returns the injected fault for it, if any.
// Callers hold s.mu.
func (s *Server) record(op, p string) *xrd.Status {
	s.calls = append(s.calls, Call{Op: op, Path: p})
	return s.faultLocked(op, p)
}

func (s *Server) faultLocked(op, p string) *xrd.Status {
	if st, ok := s.faults[fault{op: op, path: p}]; ok {
		return st
	}
	if st, ok := s.faults[fault{op: op}]; ok {
		return st
	}
	return nil
}

func (s *Server) statLocked(p string) (xrd.StatInfo, error) {
	if p == "/" {
		return xrd.StatInfo{Flags: xrd.StatIsDir | xrd.StatReadable | xrd.StatWritable | xrd.StatXset}, nil
	}
	fi, err := s.bfs.Stat(p)
	if err != nil {
		return xrd.StatInfo{}, xrd.NewStatus(xrd.ErrNotFound, "Unable to stat %s; no such file or directory", p)
	}
	info := xrd.StatInfo{Size: fi.Size(), ModTime: fi.ModTime(), Flags: xrd.StatReadable | xrd.StatWritable}
	if fi.IsDir() {
		info.Size = 4096
		info.Flags |= xrd.StatIsDir | xrd.StatXset
	}
	return info, nil
}

// parentLocked checks that the parent of p is an existing directory.
func (s *Server) parentLocked(op, p string) *xrd.Status {
	parent := path.Dir(p)
	info, err := s.statLocked(parent)
	if err != nil {
		return xrd.NewStatus(xrd.ErrNotFound, "Unable to %s %s; no such file or directory", op, p)
	}
	if !info.IsDir() {
		return xrd.NewStatus(xrd.ErrFSError, "Unable to %s %s; not a directory", op, p)
	}
	return nil
}

func (s *Server) childrenLocked(p string) ([]os.FileInfo, error) {
	return s.bfs.ReadDir(p)
}

type client struct {
	srv *Server
}

var _ xrd.Client = (*client)(nil)

func (c *client) Open(_ context.Context, p string, flags xrd.OpenFlags, _ xrd.AccessMode) (xrd.File, error) {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpOpen, p); st != nil {
		return nil, st
	}

	info, statErr := s.statLocked(p)
	exists := statErr == nil
	if exists && info.IsDir() {
		return nil, xrd.NewStatus(xrd.ErrIsDirectory, "Unable to open %s; is a directory", p)
	}

	osFlag := os.O_RDONLY
	switch {
	case flags.Has(xrd.OpenNew):
		if exists {
			return nil, xrd.NewStatus(xrd.ErrItExists, "Unable to create %s; file exists", p)
		}
		osFlag = os.O_RDWR | os.O_CREATE
	case flags.Has(xrd.OpenDelete):
		osFlag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case flags.Has(xrd.OpenUpdate) || flags.Has(xrd.OpenAppend):
		osFlag = os.O_RDWR
		if !exists {
			return nil, xrd.NewStatus(xrd.ErrNotFound, "Unable to open %s; no such file or directory", p)
		}
	default:
		if !exists {
			return nil, xrd.NewStatus(xrd.ErrNotFound, "Unable to open %s; no such file or directory", p)
		}
	}

	if !exists {
		if flags.Has(xrd.OpenMkpath) {
			if err := s.bfs.MkdirAll(path.Dir(p), 0o755); err != nil {
				return nil, xrd.NewStatus(xrd.ErrIOError, "%v", err)
			}
		} else if st := s.parentLocked("open", p); st != nil {
			return nil, st
		}
	}

	bf, err := s.bfs.OpenFile(p, osFlag, 0o644)
	if err != nil {
		return nil, xrd.NewStatus(xrd.ErrIOError, "Unable to open %s; %v", p, err)
	}
	s.open++
	return &file{srv: s, path: p, bf: bf, writable: flags.Writable()}, nil
}

func (c *client) Stat(_ context.Context, p string) (xrd.StatInfo, error) {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpStat, p); st != nil {
		return xrd.StatInfo{}, st
	}
	return s.statLocked(p)
}

func (c *client) DirList(_ context.Context, p string) ([]xrd.DirEntry, error) {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpDirList, p); st != nil {
		return nil, st
	}
	info, err := s.statLocked(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, xrd.NewStatus(xrd.ErrFSError, "Unable to open directory %s; not a directory", p)
	}
	children, err := s.childrenLocked(p)
	if err != nil {
		return nil, xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	out := make([]xrd.DirEntry, 0, len(children))
	for _, fi := range children {
		ci, err := s.statLocked(path.Join(p, fi.Name()))
		if err != nil {
			continue
		}
		out = append(out, xrd.DirEntry{Name: fi.Name(), StatInfo: ci})
	}
	// Real servers return directory order; reverse it so callers cannot
	// accidentally depend on lexical order.
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (c *client) Mkdir(_ context.Context, p string, _ xrd.AccessMode, recursive bool) error {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpMkdir, p); st != nil {
		return st
	}
	if info, err := s.statLocked(p); err == nil {
		if recursive && info.IsDir() {
			return nil
		}
		return xrd.NewStatus(xrd.ErrItExists, "Unable to create directory %s; file exists", p)
	}
	if recursive {
		for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
			if info, err := s.statLocked(dir); err == nil && !info.IsDir() {
				return xrd.NewStatus(xrd.ErrFSError, "Unable to create directory %s; not a directory", p)
			}
		}
	} else if st := s.parentLocked("create directory", p); st != nil {
		return st
	}
	if err := s.bfs.MkdirAll(p, 0o755); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

func (c *client) Rm(_ context.Context, p string) error {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpRm, p); st != nil {
		return st
	}
	info, err := s.statLocked(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return xrd.NewStatus(xrd.ErrIsDirectory, "Unable to remove %s; is a directory", p)
	}
	if err := s.bfs.Remove(p); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

func (c *client) Rmdir(_ context.Context, p string) error {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpRmdir, p); st != nil {
		return st
	}
	info, err := s.statLocked(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return xrd.NewStatus(xrd.ErrFSError, "Unable to remove directory %s; not a directory", p)
	}
	children, err := s.childrenLocked(p)
	if err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	if len(children) > 0 {
		return xrd.NewStatus(xrd.ErrFSError, "Unable to remove directory %s; directory not empty", p)
	}
	if err := s.bfs.Remove(p); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

func (c *client) Mv(_ context.Context, src, dst string) error {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpMv, src); st != nil {
		return st
	}
	if _, err := s.statLocked(src); err != nil {
		return err
	}
	if _, err := s.statLocked(dst); err == nil {
		return xrd.NewStatus(xrd.ErrItExists, "Unable to rename %s; destination %s exists", src, dst)
	}
	if dst == src || strings.HasPrefix(dst, src+"/") {
		return xrd.NewStatus(xrd.ErrArgInvalid, "Unable to rename %s into itself", src)
	}
	if st := s.parentLocked("rename to", dst); st != nil {
		return st
	}
	if err := s.bfs.Rename(src, dst); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

// Checksum answers a checksum query with the adler32 of the stored file,
// the default algorithm of an xrootd daemon.
func (c *client) Checksum(_ context.Context, p string) (string, error) {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpChecksum, p); st != nil {
		return "", st
	}
	info, err := s.statLocked(p)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", xrd.NewStatus(xrd.ErrIsDirectory, "Unable to checksum %s; is a directory", p)
	}
	bf, err := s.bfs.Open(p)
	if err != nil {
		return "", xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	defer bf.Close()
	h := adler32.New()
	if _, err := io.Copy(h, bf); err != nil {
		return "", xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return fmt.Sprintf("adler32 %08x", h.Sum32()), nil
}

func (c *client) Ping(_ context.Context) error {
	s := c.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(OpPing, ""); st != nil {
		return st
	}
	return nil
}

func (c *client) Close() error { return nil }

var _ xrd.VerifyingCloser = (*file)(nil)

type file struct {
	srv      *Server
	path     string
	bf       billy.File
	writable bool
	closed   bool
}

func (f *file) check(op string) *xrd.Status {
	if st := f.srv.record(op, f.path); st != nil {
		return st
	}
	if f.closed {
		return xrd.NewStatus(xrd.ErrFileNotOpen, "file handle for %s is not open", f.path)
	}
	return nil
}

func (f *file) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := f.check(OpRead); st != nil {
		return 0, st
	}
	if s.maxRead > 0 && len(p) > s.maxRead {
		p = p[:s.maxRead]
	}
	n, err := f.bf.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return n, nil
}

func (f *file) WriteAt(_ context.Context, p []byte, off int64) error {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := f.check(OpWrite); st != nil {
		return st
	}
	if !f.writable {
		return xrd.NewStatus(xrd.ErrNotAuthorized, "file %s is not open for writing", f.path)
	}
	if _, err := f.bf.Seek(off, io.SeekStart); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	if _, err := f.bf.Write(p); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

func (f *file) Stat(_ context.Context) (xrd.StatInfo, error) {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := f.check(OpFstat); st != nil {
		return xrd.StatInfo{}, st
	}
	return s.statLocked(f.path)
}

func (f *file) Truncate(_ context.Context, size int64) error {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := f.check(OpTruncate); st != nil {
		return st
	}
	if !f.writable {
		return xrd.NewStatus(xrd.ErrNotAuthorized, "file %s is not open for writing", f.path)
	}
	if err := f.bf.Truncate(size); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	return nil
}

func (f *file) Sync(_ context.Context) error {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := f.check(OpSync); st != nil {
		return st
	}
	return nil
}

func (f *file) Close(_ context.Context) error {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.closeLocked()
}

// CloseVerify closes the handle and then checks that the committed file
// holds size bytes, as a server does for a close request carrying a size.
func (f *file) CloseVerify(_ context.Context, size int64) error {
	s := f.srv
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := f.closeLocked(); err != nil {
		return err
	}
	info, err := s.statLocked(f.path)
	if err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "file %s vanished during close", f.path)
	}
	if info.Size != size {
		return xrd.NewStatus(xrd.ErrIOError, "file %s holds %d bytes at close, expected %d", f.path, info.Size, size)
	}
	return nil
}

// closeLocked releases the handle, then applies any loss or shrink armed
// for its path. Callers hold s.mu.
func (f *file) closeLocked() error {
	s := f.srv
	if st := f.check(OpClose); st != nil {
		if !f.closed {
			f.closed = true
			s.open--
			_ = f.bf.Close()
		}
		return st
	}
	f.closed = true
	s.open--
	if err := f.bf.Close(); err != nil {
		return xrd.NewStatus(xrd.ErrIOError, "%v", err)
	}
	if s.lose[f.path] {
		delete(s.lose, f.path)
		_ = s.bfs.Remove(f.path)
	}
	if s.shrink[f.path] {
		delete(s.shrink, f.path)
		if info, err := s.statLocked(f.path); err == nil && info.Size > 0 {
			if bf, err := s.bfs.OpenFile(f.path, os.O_RDWR, 0o644); err == nil {
				_ = bf.Truncate(info.Size - 1)
				_ = bf.Close()
			}
		}
	}
	return nil
}
