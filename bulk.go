package xrootd

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/errs"
	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
	"github.com/jmgilman/go/fs/xrootd/internal/walk"
	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// bulk tracks one tree-wide operation. Leaf failures are collected into a
// TreeError instead of stopping the operation.
type bulk struct {
	f     *FS
	op    string
	name  string
	id    string
	start time.Time
	tree  *xerrors.TreeError
	abort atomic.Bool
}

func (f *FS) newBulk(op, name string) *bulk {
	b := &bulk{
		f:     f,
		op:    op,
		name:  name,
		id:    uuid.NewString(),
		start: time.Now(),
		tree:  xerrors.NewTreeError(op, name),
	}
	b.tree.OpID = b.id
	f.logger.DebugContext(f.ctx, "bulk operation started", "op_id", b.id, "op", op, "path", name)
	return b
}

// stopped reports whether no further leaves should be dispatched.
func (b *bulk) stopped() bool {
	return b.abort.Load() || b.f.ctx.Err() != nil
}

// fail records a leaf failure. A fatal status stops further dispatch.
func (b *bulk) fail(leafOp, name string, err error) {
	b.tree.Add(leafOp, name, err)
	b.f.logger.WarnContext(b.f.ctx, "leaf operation failed",
		"op_id", b.id, "op", leafOp, "path", name, "error", err)
	if st, ok := xrd.AsStatus(err); ok && st.Fatal {
		b.abort.Store(true)
	}
}

// dispatch runs leaf for every entry not skipped, at most Parallelism at a
// time, and waits for all of them.
func (b *bulk) dispatch(leafOp string, entries []walk.Entry, leaf func(walk.Entry) error, skip func(walk.Entry) bool) {
	var g errgroup.Group
	g.SetLimit(b.f.cfg.Parallelism)
	for _, e := range entries {
		if b.stopped() {
			break
		}
		if skip != nil && skip(e) {
			continue
		}
		g.Go(func() error {
			// A slot may free up only after a fatal failure.
			if b.stopped() {
				return nil
			}
			err := leaf(e)
			b.f.metrics.observeLeaf(leafOp, err)
			if err != nil {
				b.fail(leafOp, e.Path, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// underFailure reports whether a recorded failure names e or one of its
// ancestors.
func (b *bulk) underFailure(e walk.Entry) bool {
	for _, leaf := range b.tree.Failures() {
		if pathutil.Within(leaf.Path, e.Path) {
			return true
		}
	}
	return false
}

// holdsFailure reports whether a recorded failure lies inside the
// directory e. Such a directory cannot become empty.
func (b *bulk) holdsFailure(e walk.Entry) bool {
	for _, leaf := range b.tree.Failures() {
		if pathutil.Within(e.Path, leaf.Path) {
			return true
		}
	}
	return false
}

func (b *bulk) enumerate(root string) (*walk.Tree, error) {
	return walk.Enumerate(b.f.ctx, root, b.f.ReadDir, func(dir string, err error) {
		b.f.metrics.observeLeaf("dirlist", err)
		b.fail("dirlist", dir, err)
	})
}

// finish records a cancellation, logs a summary and returns the aggregate.
func (b *bulk) finish() error {
	if err := b.f.ctx.Err(); err != nil {
		b.tree.Add(b.op, b.name, errs.Translate(b.op, b.name, err))
	}
	b.f.logger.InfoContext(b.f.ctx, "bulk operation finished",
		"op_id", b.id, "op", b.op, "path", b.name,
		"failures", b.tree.Len(), "duration_ms", time.Since(b.start).Milliseconds())
	return b.tree.ErrOrNil()
}

// rebase maps p from below the directory from to below the directory to.
func rebase(p, from, to string) string {
	return to + strings.TrimPrefix(p, from)
}

// RemoveTree removes the directory name and everything below it.
//
// Files are removed in parallel, then directories level by level, deepest
// first. Every failed leaf is reported in a *errors.TreeError; a directory
// still holding a failed entry is left in place without a report of its
// own. Removing the root of the filesystem removes its contents only.
func (f *FS) RemoveTree(name string) error {
	st, remote, err := f.stat("removetree", name)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return errs.New("removetree", name, xerrors.CodeNotADirectory, "%s is not a directory", remote)
	}

	root := pathutil.Clean(name)
	b := f.newBulk("removetree", root)
	tree, err := b.enumerate(root)
	if tree == nil {
		return err
	}
	if err != nil {
		return b.finish()
	}

	b.dispatch("remove", tree.Files, func(e walk.Entry) error {
		return f.Remove(e.Path)
	}, nil)

	for _, level := range tree.ByDepth() {
		if b.stopped() {
			break
		}
		b.dispatch("removedir", level, func(e walk.Entry) error {
			return f.RemoveDir(e.Path)
		}, func(e walk.Entry) bool {
			return e.Path == "." || b.holdsFailure(e)
		})
	}
	return b.finish()
}

// checkTarget validates the source and destination of Copy and Move.
func (f *FS) checkTarget(op, src, dst string) (xrd.StatInfo, error) {
	st, _, err := f.stat(op, src)
	if err != nil {
		return xrd.StatInfo{}, err
	}
	dstRemote, err := f.resolve(op, dst)
	if err != nil {
		return xrd.StatInfo{}, err
	}
	exists, err := f.Exists(dst)
	if err != nil {
		return xrd.StatInfo{}, err
	}
	if exists {
		return xrd.StatInfo{}, errs.New(op, dst, xerrors.CodeAlreadyExists, "%s already exists", dstRemote)
	}
	if st.IsDir() && pathutil.Within(src, dst) {
		return xrd.StatInfo{}, errs.Invalid(op, dst, "cannot %s %s into itself", op, src)
	}
	return st, nil
}

// mkdirTree creates the destination directories of tree parents first,
// skipping the root. Failures are recorded against the source directory.
func (b *bulk) mkdirTree(tree *walk.Tree, src, dst string) {
	for _, d := range tree.Dirs {
		if b.stopped() {
			return
		}
		if d.Path == src || b.underFailure(d) {
			continue
		}
		err := b.f.Mkdir(rebase(d.Path, src, dst), 0)
		b.f.metrics.observeLeaf("mkdir", err)
		if err != nil {
			b.fail("mkdir", d.Path, err)
		}
	}
}

// Copy copies the file or directory src to dst, which must not exist.
// Directory copies create the destination tree first and then copy files in
// parallel; leaf failures are reported in a *errors.TreeError.
func (f *FS) Copy(src, dst string) error {
	st, err := f.checkTarget("copy", src, dst)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return f.copyFile(src, dst)
	}

	from, to := pathutil.Clean(src), pathutil.Clean(dst)
	b := f.newBulk("copy", from)
	tree, err := b.enumerate(from)
	if tree == nil {
		return err
	}
	if err != nil {
		return b.finish()
	}
	if err := f.Mkdir(to, 0); err != nil {
		return err
	}

	b.mkdirTree(tree, from, to)
	b.dispatch("copy", tree.Files, func(e walk.Entry) error {
		return f.copyFile(e.Path, rebase(e.Path, from, to))
	}, b.underFailure)
	return b.finish()
}

// copyFile streams src into a newly created dst.
func (f *FS) copyFile(src, dst string) error {
	in, err := f.openFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := f.openFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0)
	if err != nil {
		return err
	}
	if _, err := io.CopyBuffer(out, in, make([]byte, f.copyBufferSize())); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Move moves the file or directory src to dst, which must not exist.
// A file is moved with a single remote mv. A directory is recreated at dst,
// its files are moved in parallel and the emptied source directories are
// removed deepest first.
func (f *FS) Move(src, dst string) error {
	st, err := f.checkTarget("move", src, dst)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return f.Rename(src, dst)
	}

	from, to := pathutil.Clean(src), pathutil.Clean(dst)
	b := f.newBulk("move", from)
	tree, err := b.enumerate(from)
	if tree == nil {
		return err
	}
	if err != nil {
		return b.finish()
	}
	if err := f.Mkdir(to, 0); err != nil {
		return err
	}

	b.mkdirTree(tree, from, to)
	b.dispatch("move", tree.Files, func(e walk.Entry) error {
		return f.Rename(e.Path, rebase(e.Path, from, to))
	}, b.underFailure)

	for _, level := range tree.ByDepth() {
		if b.stopped() {
			break
		}
		b.dispatch("removedir", level, func(e walk.Entry) error {
			return f.RemoveDir(e.Path)
		}, b.holdsFailure)
	}
	return b.finish()
}
