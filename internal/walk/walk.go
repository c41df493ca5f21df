// Package walk provides directory tree traversal over a listing function.
package walk

import (
	"context"
	"errors"
	"io/fs"

	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
)

// ListFunc lists the directory at the virtual path name, sorted by name.
type ListFunc func(name string) ([]fs.DirEntry, error)

// Walk calls fn for root and every entry below it in lexical order, with the
// same contract as fs.WalkDir: returning fs.SkipDir from a directory skips
// it, returning fs.SkipDir from a file skips the rest of its directory, and
// fs.SkipAll stops the walk without error.
func Walk(root string, rootEntry fs.DirEntry, list ListFunc, fn fs.WalkDirFunc) error {
	err := walkDir(root, rootEntry, list, fn)
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func walkDir(name string, d fs.DirEntry, list ListFunc, fn fs.WalkDirFunc) error {
	if err := fn(name, d, nil); err != nil || !d.IsDir() {
		if errors.Is(err, fs.SkipDir) && d.IsDir() {
			err = nil
		}
		return err
	}

	entries, err := list(name)
	if err != nil {
		// Second call reports the listing failure.
		err = fn(name, d, err)
		if err != nil {
			if errors.Is(err, fs.SkipDir) && d.IsDir() {
				err = nil
			}
			return err
		}
	}

	for _, entry := range entries {
		child := pathutil.Join(name, entry.Name())
		if err := walkDir(child, entry, list, fn); err != nil {
			if errors.Is(err, fs.SkipDir) {
				break
			}
			return err
		}
	}
	return nil
}

// Entry is one element of an enumerated tree.
type Entry struct {
	Path  string
	IsDir bool
	Size  int64
}

// Tree is an enumerated subtree.
type Tree struct {
	// Dirs lists the root and every directory below it, parents before
	// children.
	Dirs []Entry
	// Files lists every non-directory entry.
	Files []Entry
}

// ByDepth groups Dirs by depth, deepest level first.
func (t *Tree) ByDepth() [][]Entry {
	levels := map[int][]Entry{}
	maxDepth := 0
	for _, d := range t.Dirs {
		depth := pathutil.Depth(d.Path)
		levels[depth] = append(levels[depth], d)
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	out := make([][]Entry, 0, len(levels))
	for depth := maxDepth; depth >= 0; depth-- {
		if lvl, ok := levels[depth]; ok {
			out = append(out, lvl)
		}
	}
	return out
}

// Enumerate lists the tree below root depth-first with repeated list calls.
//
// A failure to list root is returned. A failure to list a subdirectory is
// passed to onError and the subdirectory is kept in Dirs without children.
// Enumeration stops early when ctx is done.
func Enumerate(ctx context.Context, root string, list ListFunc, onError func(name string, err error)) (*Tree, error) {
	tree := &Tree{}
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return tree, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tree.Dirs = append(tree.Dirs, Entry{Path: dir, IsDir: true})

		entries, err := list(dir)
		if err != nil {
			if dir == root {
				return nil, err
			}
			if onError != nil {
				onError(dir, err)
			}
			continue
		}

		// Push in reverse so the lexically first subdirectory is visited next.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			child := pathutil.Join(dir, e.Name())
			if e.IsDir() {
				stack = append(stack, child)
				continue
			}
			var size int64
			if info, err := e.Info(); err == nil {
				size = info.Size()
			}
			tree.Files = append(tree.Files, Entry{Path: child, Size: size})
		}
	}
	return tree, nil
}
