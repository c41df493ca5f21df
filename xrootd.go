package xrootd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/jmgilman/go/fs/xrootd/core"
	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/errs"
	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
	"github.com/jmgilman/go/fs/xrootd/internal/types"
	"github.com/jmgilman/go/fs/xrootd/internal/walk"
	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// session is the remote session shared by an FS and its views.
type session struct {
	client xrd.Client
	owned  bool
	once   sync.Once
	err    error
}

func (s *session) close() error {
	s.once.Do(func() {
		if s.owned {
			s.err = s.client.Close()
		}
	})
	return s.err
}

// FS implements core.FS for an XRootD endpoint.
//
// An FS is safe for concurrent use. Views returned by Chroot and
// WithContext share the session of their parent.
type FS struct {
	sess     *session
	endpoint Endpoint
	base     string
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics
	ctx      context.Context
}

// Compile-time interface checks.
var (
	_ core.FS      = (*FS)(nil)
	_ fs.StatFS    = (*FS)(nil)
	_ fs.ReadDirFS = (*FS)(nil)
)

// newFS builds a filesystem over an established client.
func newFS(ctx context.Context, client xrd.Client, owned bool, ep Endpoint, cfg Config) *FS {
	return &FS{
		sess:     &session{client: client, owned: owned},
		endpoint: ep,
		base:     ep.BasePath,
		cfg:      cfg,
		logger:   cfg.Logger.With("endpoint", ep.Address()),
		metrics:  newMetrics(cfg.Registerer),
		ctx:      context.WithoutCancel(ctx),
	}
}

// WithContext returns a view whose remote calls and bulk dispatch observe ctx.
func (f *FS) WithContext(ctx context.Context) *FS {
	view := *f
	view.ctx = ctx
	return &view
}

// Endpoint returns the endpoint of this view. Its BasePath reflects Chroot.
func (f *FS) Endpoint() Endpoint {
	return f.endpoint.withBase(f.base)
}

// Type returns core.FSTypeRemote.
func (f *FS) Type() core.FSType {
	return core.FSTypeRemote
}

// Close closes the session if it was dialed by the filesystem. Views share
// the session, so closing any of them closes it for all.
func (f *FS) Close() error {
	return f.sess.close()
}

// Ping issues a liveness round trip.
func (f *FS) Ping(ctx context.Context) error {
	return errs.PathError("ping", ".", f.callCtx(ctx, "ping", f.base, func(ctx context.Context) error {
		return f.sess.client.Ping(ctx)
	}))
}

// call runs one remote call against the view context.
func (f *FS) call(op, remote string, fn func(ctx context.Context) error) error {
	return f.callCtx(f.ctx, op, remote, fn)
}

// callCtx runs one remote call, translating its failure and recording
// metrics and a debug log line.
func (f *FS) callCtx(ctx context.Context, op, remote string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return errs.Translate(op, remote, err)
	}
	start := time.Now()
	err := errs.Translate(op, remote, fn(ctx))
	f.metrics.observeCall(op, start, err)
	if err != nil {
		f.logger.DebugContext(ctx, "remote call failed",
			"op", op, "path", remote, "duration_ms", time.Since(start).Milliseconds(), "error", err)
	} else {
		f.logger.DebugContext(ctx, "remote call",
			"op", op, "path", remote, "duration_ms", time.Since(start).Milliseconds())
	}
	return err
}

// release runs a call that frees a server-side handle. It must reach the
// server even after the view context is done, so it runs detached from
// cancellation and is bounded by RequestTimeout alone.
func (f *FS) release(op, remote string, fn func(ctx context.Context) error) error {
	ctx := context.WithoutCancel(f.ctx)
	if d := seconds(f.cfg.RequestTimeout); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return f.callCtx(ctx, op, remote, fn)
}

// resolve maps a virtual name to its absolute remote path.
func (f *FS) resolve(op, name string) (string, error) {
	remote, err := pathutil.Resolve(f.base, name)
	if err != nil {
		return "", errs.Invalid(op, name, "invalid path %q", name)
	}
	return remote, nil
}

func (f *FS) stat(op, name string) (xrd.StatInfo, string, error) {
	remote, err := f.resolve(op, name)
	if err != nil {
		return xrd.StatInfo{}, "", err
	}
	var st xrd.StatInfo
	err = f.call("stat", remote, func(ctx context.Context) error {
		var err error
		st, err = f.sess.client.Stat(ctx, remote)
		return err
	})
	if err != nil {
		return xrd.StatInfo{}, remote, errs.PathError(op, name, err)
	}
	return st, remote, nil
}

// Stat returns file information for the named file.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	st, _, err := f.stat("stat", name)
	if err != nil {
		return nil, err
	}
	return types.NewFileInfo(path.Base(pathutil.Clean(name)), st), nil
}

// Exists reports whether the named file or directory exists.
func (f *FS) Exists(name string) (bool, error) {
	_, _, err := f.stat("exists", name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadDir lists the named directory sorted by filename.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	remote, err := f.resolve("readdir", name)
	if err != nil {
		return nil, err
	}

	var list []xrd.DirEntry
	err = f.call("dirlist", remote, func(ctx context.Context) error {
		var err error
		list, err = f.sess.client.DirList(ctx, remote)
		return err
	})
	if err != nil {
		return nil, errs.PathError("readdir", name, err)
	}

	entries := make([]fs.DirEntry, 0, len(list))
	for _, e := range list {
		if e.Name == "" || e.Name == "." || e.Name == ".." {
			continue
		}
		entries = append(entries, types.NewDirEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// ReadFile reads the named file and returns its contents.
func (f *FS) ReadFile(name string) ([]byte, error) {
	file, err := f.openFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	data, err := file.ReadAll()
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile writes data to the named file, creating or truncating it.
// The close status, including the integrity check, is returned.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	file, err := f.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, werr := file.Write(data)
	cerr := file.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// Mkdir creates a directory. It fails with fs.ErrExist if the path exists.
func (f *FS) Mkdir(name string, perm fs.FileMode) error {
	remote, err := f.resolve("mkdir", name)
	if err != nil {
		return err
	}
	return errs.PathError("mkdir", name, f.call("mkdir", remote, func(ctx context.Context) error {
		return f.sess.client.Mkdir(ctx, remote, dirMode(perm), false)
	}))
}

// MkdirAll creates a directory and any missing parents. An existing
// directory is not an error; an existing file fails with fs.ErrExist.
func (f *FS) MkdirAll(name string, perm fs.FileMode) error {
	st, remote, err := f.stat("mkdir", name)
	switch {
	case err == nil && st.IsDir():
		return nil
	case err == nil:
		return errs.New("mkdir", name, xerrors.CodeAlreadyExists, "%s exists and is not a directory", remote)
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return errs.PathError("mkdir", name, f.call("mkdir", remote, func(ctx context.Context) error {
		return f.sess.client.Mkdir(ctx, remote, dirMode(perm), true)
	}))
}

func dirMode(perm fs.FileMode) xrd.AccessMode {
	if perm.Perm() == 0 {
		return xrd.ModeDefaultDir
	}
	return xrd.AccessModeFrom(perm)
}

// Remove removes the named file. A directory fails with fs.ErrInvalid.
func (f *FS) Remove(name string) error {
	remote, err := f.resolve("remove", name)
	if err != nil {
		return err
	}
	return errs.PathError("remove", name, f.call("rm", remote, func(ctx context.Context) error {
		return f.sess.client.Rm(ctx, remote)
	}))
}

// RemoveDir removes the named empty directory. A file fails with
// fs.ErrInvalid and a non-empty directory with core.ErrNotEmpty.
func (f *FS) RemoveDir(name string) error {
	remote, err := f.resolve("removedir", name)
	if err != nil {
		return err
	}
	return errs.PathError("removedir", name, f.call("rmdir", remote, func(ctx context.Context) error {
		return f.sess.client.Rmdir(ctx, remote)
	}))
}

// RemoveAll removes path and any children it contains.
// A missing path is not an error.
func (f *FS) RemoveAll(name string) error {
	st, _, err := f.stat("removeall", name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return f.Remove(name)
	}
	return f.RemoveTree(name)
}

// Rename renames oldpath to newpath with a single remote mv.
func (f *FS) Rename(oldpath, newpath string) error {
	src, err := f.resolve("rename", oldpath)
	if err != nil {
		return err
	}
	dst, err := f.resolve("rename", newpath)
	if err != nil {
		return err
	}
	return errs.PathError("rename", oldpath, f.call("mv", src, func(ctx context.Context) error {
		return f.sess.client.Mv(ctx, src, dst)
	}))
}

// Walk walks the file tree rooted at root in lexical order.
func (f *FS) Walk(root string, walkFn fs.WalkDirFunc) error {
	root = pathutil.Clean(root)
	info, err := f.Stat(root)
	if err != nil {
		err = walkFn(root, nil, err)
		if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
			return nil
		}
		return err
	}
	entry := types.DirEntryFromInfo(info.(*types.FileInfo))
	return walk.Walk(root, entry, f.ReadDir, walkFn)
}

// Chroot returns a view scoped to dir. dir must be an existing directory.
func (f *FS) Chroot(dir string) (core.FS, error) {
	st, remote, err := f.stat("chroot", dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, errs.New("chroot", dir, xerrors.CodeNotADirectory, "%s is not a directory", remote)
	}
	view := *f
	view.base = remote
	return &view, nil
}

// Checksum returns the checksum the server keeps for the named file, as
// "<algorithm> <value>" (for example "adler32 1a0b045d").
func (f *FS) Checksum(name string) (string, error) {
	remote, err := f.resolve("checksum", name)
	if err != nil {
		return "", err
	}
	var sum string
	err = f.call("checksum", remote, func(ctx context.Context) error {
		var err error
		sum, err = f.sess.client.Checksum(ctx, remote)
		return err
	})
	if err != nil {
		return "", errs.PathError("checksum", name, err)
	}
	return sum, nil
}

func (f *FS) copyBufferSize() int {
	const maxCopyBuffer = 8 << 20
	if f.cfg.ReadChunkSize < maxCopyBuffer {
		return int(f.cfg.ReadChunkSize)
	}
	return maxCopyBuffer
}
