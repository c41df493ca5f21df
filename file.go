package xrootd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/cespare/xxhash/v2"

	"github.com/jmgilman/go/fs/xrootd/core"
	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/errs"
	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
	"github.com/jmgilman/go/fs/xrootd/internal/types"
	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// Open opens the named file for reading.
func (f *FS) Open(name string) (fs.File, error) {
	file, err := f.openFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Create creates or truncates the named file for reading and writing.
func (f *FS) Create(name string) (core.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile opens a file with the specified os flags. O_APPEND positions
// every write at the end of the file.
func (f *FS) OpenFile(name string, flag int, perm fs.FileMode) (core.File, error) {
	file, err := f.openFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// OpenMode opens a file with a mode string; see ParseMode.
func (f *FS) OpenMode(name, mode string) (*File, error) {
	flag, err := ParseMode(mode)
	if err != nil {
		return nil, errs.Invalid("open", name, "%v", err)
	}
	return f.openFile(name, flag, 0o666)
}

func (f *FS) openRemote(remote string, flags xrd.OpenFlags, mode xrd.AccessMode) (xrd.File, error) {
	var rf xrd.File
	err := f.call("open", remote, func(ctx context.Context) error {
		var err error
		rf, err = f.sess.client.Open(ctx, remote, flags, mode)
		return err
	})
	return rf, err
}

func (f *FS) openFile(name string, flag int, perm fs.FileMode) (*File, error) {
	remote, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}

	mode := xrd.AccessModeFrom(perm)
	if mode == 0 {
		mode = xrd.ModeDefaultFile
	}

	plan := planOpen(flag)
	used := plan.flags
	rf, err := f.openRemote(remote, plan.flags, mode)
	if err != nil && plan.fallback != 0 && errors.Is(err, fs.ErrNotExist) {
		used = plan.fallback
		rf, err = f.openRemote(remote, plan.fallback, mode)
		if err != nil && errors.Is(err, fs.ErrExist) {
			// Created by someone else in between.
			used = plan.flags
			rf, err = f.openRemote(remote, plan.flags, mode)
		}
	}
	if err != nil {
		return nil, errs.PathError("open", name, err)
	}

	file := &File{fs: f, name: name, remote: remote, flag: flag, rf: rf, size: -1}
	if used == xrd.OpenNew || used == xrd.OpenDelete {
		file.size = 0
	}
	if plan.truncate {
		if err := file.Truncate(0); err != nil {
			file.abort()
			return nil, err
		}
	}
	if file.size == 0 && writable(flag) && f.cfg.VerifyChecksum {
		file.digest = xxhash.New()
	}
	if writable(flag) && file.size < 0 {
		// Seeds append positioning and close-time verification.
		if _, err := file.Size(); err != nil {
			file.abort()
			return nil, err
		}
	}
	if flag&os.O_APPEND != 0 {
		file.cursor = file.size
	}
	return file, nil
}

// File is an open remote file. It is owned by the caller that opened it
// and is not safe for concurrent use.
//
// Reads and writes are split into calls of at most the configured chunk
// size. Small writes are buffered and flushed before any read, seek to a
// non-contiguous position, sync, truncate or close.
type File struct {
	fs     *FS
	name   string
	remote string
	flag   int
	rf     xrd.File

	cursor int64
	size   int64 // -1 until known; includes buffered writes

	buf    []byte
	bufOff int64

	// digest covers bytes written sequentially from offset zero.
	digest    *xxhash.Digest
	digestEnd int64

	closed bool
}

// Compile-time interface checks.
var (
	_ core.File      = (*File)(nil)
	_ io.Seeker      = (*File)(nil)
	_ io.ReaderAt    = (*File)(nil)
	_ core.Truncater = (*File)(nil)
	_ core.Syncer    = (*File)(nil)
	_ core.Sizer     = (*File)(nil)
)

// Name returns the name given to Open.
func (fl *File) Name() string {
	return fl.name
}

func (fl *File) check(op string, read, write bool) error {
	if fl.closed {
		return errs.Closed(op, fl.name)
	}
	if read && !readable(fl.flag) {
		return errs.Invalid(op, fl.name, "file not opened for reading")
	}
	if write && !writable(fl.flag) {
		return errs.Invalid(op, fl.name, "file not opened for writing")
	}
	return nil
}

// abort releases the remote handle after a failed open.
func (fl *File) abort() {
	_ = fl.fs.release("close", fl.remote, func(ctx context.Context) error {
		return fl.rf.Close(ctx)
	})
	fl.closed = true
}

// Read reads up to len(p) bytes at the cursor. It keeps issuing bounded
// reads until p is full or the server returns zero bytes, so a short read
// from the server is never mistaken for end of file.
func (fl *File) Read(p []byte) (int, error) {
	if err := fl.check("read", true, false); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := fl.flush("read"); err != nil {
		return 0, err
	}
	n, err := fl.readAt("read", p, fl.cursor)
	fl.cursor += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadAll reads from the cursor to end of file.
func (fl *File) ReadAll() ([]byte, error) {
	if err := fl.check("read", true, false); err != nil {
		return nil, err
	}
	if err := fl.flush("read"); err != nil {
		return nil, err
	}

	hint := int64(512)
	if size, err := fl.Size(); err == nil && size > fl.cursor {
		hint = size - fl.cursor + 1
	}
	out := make([]byte, 0, hint)
	for {
		if len(out) == cap(out) {
			out = append(out, 0)[:len(out)]
		}
		free := out[len(out):cap(out)]
		n, err := fl.readAt("read", free, fl.cursor)
		out = out[:len(out)+n]
		fl.cursor += int64(n)
		if err != nil {
			return out, err
		}
		if n < len(free) {
			return out, nil
		}
	}
}

// ReadAt reads len(p) bytes at off without moving the cursor.
func (fl *File) ReadAt(p []byte, off int64) (int, error) {
	if err := fl.check("readat", true, false); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, errs.Invalid("readat", fl.name, "negative offset %d", off)
	}
	if err := fl.flush("readat"); err != nil {
		return 0, err
	}
	n, err := fl.readAt("readat", p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// readAt fills p from off with calls of at most ReadChunkSize bytes and
// stops early only on a zero-byte read.
func (fl *File) readAt(op string, p []byte, off int64) (int, error) {
	chunk := int(fl.fs.cfg.ReadChunkSize)
	n := 0
	for n < len(p) {
		want := len(p) - n
		if want > chunk {
			want = chunk
		}
		var k int
		err := fl.fs.call("read", fl.remote, func(ctx context.Context) error {
			var err error
			k, err = fl.rf.ReadAt(ctx, p[n:n+want], off+int64(n))
			return err
		})
		if err == nil && (k < 0 || k > want) {
			return n, errs.New(op, fl.name, xerrors.CodeRemoteIO,
				"server returned %d bytes for a %d byte read at offset %d", k, want, off+int64(n))
		}
		if k < 0 || k > want {
			k = 0
		}
		n += k
		fl.fs.metrics.addBytes("read", k)
		if err != nil {
			return n, errs.PathError(op, fl.name, err)
		}
		if k == 0 {
			break
		}
	}
	return n, nil
}

// Write writes p at the cursor.
func (fl *File) Write(p []byte) (int, error) {
	if err := fl.check("write", false, true); err != nil {
		return 0, err
	}
	if fl.flag&os.O_APPEND != 0 {
		fl.cursor = fl.size
	}
	if len(p) == 0 {
		return 0, nil
	}

	if len(fl.buf) > 0 && fl.bufOff+int64(len(fl.buf)) != fl.cursor {
		if err := fl.flush("write"); err != nil {
			return 0, err
		}
	}
	if len(fl.buf)+len(p) <= fl.fs.cfg.BufferSize {
		if len(fl.buf) == 0 {
			fl.bufOff = fl.cursor
		}
		fl.buf = append(fl.buf, p...)
		fl.advance(len(p))
		return len(p), nil
	}

	if err := fl.flush("write"); err != nil {
		return 0, err
	}
	n, err := fl.writeAt("write", p, fl.cursor)
	fl.advance(n)
	return n, err
}

func (fl *File) advance(n int) {
	fl.cursor += int64(n)
	if fl.cursor > fl.size {
		fl.size = fl.cursor
	}
}

// writeAt writes p at off in calls of at most WriteChunkSize bytes,
// stopping at the first failing chunk.
func (fl *File) writeAt(op string, p []byte, off int64) (int, error) {
	chunk := int(fl.fs.cfg.WriteChunkSize)
	n := 0
	for n < len(p) {
		end := n + chunk
		if end > len(p) {
			end = len(p)
		}
		part, at := p[n:end], off+int64(n)
		err := fl.fs.call("write", fl.remote, func(ctx context.Context) error {
			return fl.rf.WriteAt(ctx, part, at)
		})
		if err != nil {
			return n, errs.PathError(op, fl.name, err)
		}
		fl.track(part, at)
		fl.fs.metrics.addBytes("write", len(part))
		n = end
	}
	return n, nil
}

func (fl *File) track(part []byte, at int64) {
	if fl.digest == nil {
		return
	}
	if at != fl.digestEnd {
		fl.digest = nil
		return
	}
	_, _ = fl.digest.Write(part)
	fl.digestEnd += int64(len(part))
}

// flush writes any buffered bytes. The buffer is dropped even on failure;
// acknowledged chunks are never re-sent.
func (fl *File) flush(op string) error {
	if len(fl.buf) == 0 {
		return nil
	}
	buf, off := fl.buf, fl.bufOff
	fl.buf = fl.buf[:0]
	_, err := fl.writeAt(op, buf, off)
	return err
}

// Seek sets the cursor. Negative targets fail with fs.ErrInvalid, and so do
// targets past end of file on read-only handles.
func (fl *File) Seek(offset int64, whence int) (int64, error) {
	if fl.closed {
		return 0, errs.Closed("seek", fl.name)
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = fl.cursor + offset
	case io.SeekEnd:
		size, err := fl.Size()
		if err != nil {
			return 0, err
		}
		target = size + offset
	default:
		return 0, errs.Invalid("seek", fl.name, "invalid whence %d", whence)
	}

	if target < 0 {
		return 0, errs.Invalid("seek", fl.name, "negative position %d", target)
	}
	if !writable(fl.flag) && target > 0 {
		size, err := fl.Size()
		if err != nil {
			return 0, err
		}
		if target > size {
			return 0, errs.Invalid("seek", fl.name, "position %d beyond end of file (%d bytes)", target, size)
		}
	}
	fl.cursor = target
	return target, nil
}

// Tell returns the cursor.
func (fl *File) Tell() (int64, error) {
	if fl.closed {
		return 0, errs.Closed("tell", fl.name)
	}
	return fl.cursor, nil
}

// Size returns the file size. The server is asked once; the value is then
// cached for the lifetime of the handle and only updated by this handle's
// own writes and truncations.
func (fl *File) Size() (int64, error) {
	if fl.closed {
		return 0, errs.Closed("size", fl.name)
	}
	if fl.size >= 0 {
		return fl.size, nil
	}
	st, err := fl.remoteStat("size")
	if err != nil {
		return 0, err
	}
	fl.size = st.Size
	return fl.size, nil
}

func (fl *File) remoteStat(op string) (xrd.StatInfo, error) {
	var st xrd.StatInfo
	err := fl.fs.call("fstat", fl.remote, func(ctx context.Context) error {
		var err error
		st, err = fl.rf.Stat(ctx)
		return err
	})
	if err != nil {
		return xrd.StatInfo{}, errs.PathError(op, fl.name, err)
	}
	return st, nil
}

// Stat returns fresh server metadata for the open file.
func (fl *File) Stat() (fs.FileInfo, error) {
	if fl.closed {
		return nil, errs.Closed("stat", fl.name)
	}
	if err := fl.flush("stat"); err != nil {
		return nil, err
	}
	st, err := fl.remoteStat("stat")
	if err != nil {
		return nil, err
	}
	return types.NewFileInfo(path.Base(pathutil.Clean(fl.name)), st), nil
}

// Truncate changes the file size without moving the cursor.
func (fl *File) Truncate(size int64) error {
	if err := fl.check("truncate", false, true); err != nil {
		return err
	}
	if size < 0 {
		return errs.Invalid("truncate", fl.name, "negative size %d", size)
	}
	if err := fl.flush("truncate"); err != nil {
		return err
	}
	err := fl.fs.call("truncate", fl.remote, func(ctx context.Context) error {
		return fl.rf.Truncate(ctx, size)
	})
	if err != nil {
		return errs.PathError("truncate", fl.name, err)
	}
	fl.size = size
	if fl.digest != nil && size != fl.digestEnd {
		fl.digest = nil
	}
	return nil
}

// Sync flushes buffered bytes and asks the server to commit the file.
func (fl *File) Sync() error {
	if fl.closed {
		return errs.Closed("sync", fl.name)
	}
	if err := fl.flush("sync"); err != nil {
		return err
	}
	return errs.PathError("sync", fl.name, fl.fs.call("sync", fl.remote, func(ctx context.Context) error {
		return fl.rf.Sync(ctx)
	}))
}

// Close flushes buffered bytes, closes the remote handle and, for writable
// handles, checks that the server holds the written file at the expected
// size. Servers that accept a size with the close request check it
// themselves; otherwise the file is stat'ed after close. The handle is
// closed even when an error is returned, including when the FS context is
// done. Closing an already closed handle is a no-op and issues no remote
// call.
func (fl *File) Close() error {
	if fl.closed {
		return nil
	}

	flushErr := fl.flush("close")
	verifying := flushErr == nil && writable(fl.flag) && !fl.fs.cfg.SkipCloseVerify
	vc, sized := fl.rf.(xrd.VerifyingCloser)
	sized = sized && verifying
	closeErr := fl.fs.release("close", fl.remote, func(ctx context.Context) error {
		if sized {
			return vc.CloseVerify(ctx, fl.size)
		}
		return fl.rf.Close(ctx)
	})
	fl.closed = true
	fl.buf = nil

	switch {
	case flushErr != nil:
		return flushErr
	case closeErr != nil && sized:
		return fl.rejected(closeErr)
	case closeErr != nil:
		return errs.PathError("close", fl.name, closeErr)
	case sized && fl.checksummed():
		return fl.report(fl.verifyChecksum())
	case sized:
		return fl.report(nil)
	case verifying:
		return fl.verify()
	}
	return nil
}

// rejected explains a failed sized close. A server refusing the close
// because the size is wrong reports a generic I/O error, so the file is
// stat'ed to tell data loss apart from other failures.
func (fl *File) rejected(closeErr error) error {
	if _, ok := xrd.AsStatus(closeErr); !ok {
		return errs.PathError("close", fl.name, closeErr)
	}
	if err := fl.compare(); err != nil {
		return fl.report(err)
	}
	return errs.PathError("close", fl.name, closeErr)
}

func (fl *File) checksummed() bool {
	return fl.fs.cfg.VerifyChecksum && fl.digest != nil && fl.digestEnd == fl.size
}

func (fl *File) verify() error {
	return fl.report(fl.compare())
}

// compare checks the server's view of a closed file against what this
// handle wrote.
func (fl *File) compare() error {
	var st xrd.StatInfo
	err := fl.fs.release("stat", fl.remote, func(ctx context.Context) error {
		var err error
		st, err = fl.fs.sess.client.Stat(ctx, fl.remote)
		return err
	})

	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = errs.New("close", fl.name, xerrors.CodeDataLoss,
			"%s missing after close acknowledged %d bytes", fl.remote, fl.size)
	case err != nil:
		err = errs.PathError("close", fl.name, err)
	case st.Size != fl.size:
		err = errs.New("close", fl.name, xerrors.CodeDataLoss,
			"%s holds %d bytes after close, expected %d", fl.remote, st.Size, fl.size)
	case fl.checksummed():
		err = fl.verifyChecksum()
	}
	return err
}

func (fl *File) report(err error) error {
	fl.fs.metrics.observeVerify(err)
	if err != nil {
		fl.fs.logger.WarnContext(fl.fs.ctx, "close verification failed", "path", fl.remote, "error", err)
	}
	return err
}

// verifyChecksum reads the closed file back and compares its xxhash64
// digest with the one taken while writing.
func (fl *File) verifyChecksum() error {
	got, err := fl.fs.contentDigest(fl.name)
	if err != nil {
		return err
	}
	if want := fl.digest.Sum64(); got != want {
		return errs.New("close", fl.name, xerrors.CodeDataLoss,
			"%s digest %016x after close, expected %016x", fl.remote, got, want)
	}
	return nil
}

// contentDigest streams the named file through xxhash64.
func (f *FS) contentDigest(name string) (uint64, error) {
	file, err := f.openFile(name, os.O_RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	h := xxhash.New()
	if _, err := io.CopyBuffer(h, file, make([]byte, f.copyBufferSize())); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
