package fstest

import (
	"errors"
	"io/fs"
	"path"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestBulkFS tests Copy, Move and RemoveTree.
func TestBulkFS(t *testing.T, filesystem core.FS) {
	TestBulkFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestBulkFSWithConfig tests bulk operations with behavior configuration.
func TestBulkFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	tree := map[string]string{
		"a.txt":       "a",
		"sub/b.txt":   "b",
		"sub/c.txt":   "c",
		"sub/deep/d":  "d",
		"other/e.txt": "e",
	}
	seed := func(t *testing.T, root string) {
		t.Helper()
		if err := filesystem.MkdirAll(root+"/empty", 0755); err != nil {
			t.Fatalf("MkdirAll(%s/empty): setup failed: %v", root, err)
		}
		for name, content := range tree {
			full := root + "/" + name
			if err := filesystem.MkdirAll(path.Dir(full), 0755); err != nil {
				t.Fatalf("MkdirAll(%s): setup failed: %v", path.Dir(full), err)
			}
			if err := filesystem.WriteFile(full, []byte(content), 0644); err != nil {
				t.Fatalf("WriteFile(%s): setup failed: %v", full, err)
			}
		}
	}

	run(t, config, "BulkFS", "CopyFile", func(t *testing.T) {
		if err := filesystem.WriteFile("copy-src.txt", []byte("payload"), 0644); err != nil {
			t.Fatalf("WriteFile(copy-src.txt): setup failed: %v", err)
		}
		if err := filesystem.Copy("copy-src.txt", "copy-dst.txt"); err != nil {
			t.Fatalf("Copy(copy-src.txt, copy-dst.txt): got error %v", err)
		}
		expectContent(t, filesystem, "copy-src.txt", []byte("payload"))
		expectContent(t, filesystem, "copy-dst.txt", []byte("payload"))
	})

	run(t, config, "BulkFS", "CopyTree", func(t *testing.T) {
		seed(t, "copytree")
		if err := filesystem.Copy("copytree", "copytree2"); err != nil {
			t.Fatalf("Copy(copytree, copytree2): got error %v", err)
		}
		for name, content := range tree {
			expectContent(t, filesystem, "copytree/"+name, []byte(content))
			expectContent(t, filesystem, "copytree2/"+name, []byte(content))
		}
		if info, err := filesystem.Stat("copytree2/empty"); err != nil || !info.IsDir() {
			t.Errorf("Stat(copytree2/empty): got (%v, %v), want a directory", info, err)
		}
	})

	run(t, config, "BulkFS", "CopyOntoExisting", func(t *testing.T) {
		for _, name := range []string{"exists-a.txt", "exists-b.txt"} {
			if err := filesystem.WriteFile(name, []byte(name), 0644); err != nil {
				t.Fatalf("WriteFile(%s): setup failed: %v", name, err)
			}
		}
		if err := filesystem.Copy("exists-a.txt", "exists-b.txt"); !errors.Is(err, fs.ErrExist) {
			t.Errorf("Copy onto existing file: got error %v, want fs.ErrExist", err)
		}
		expectContent(t, filesystem, "exists-b.txt", []byte("exists-b.txt"))
	})

	run(t, config, "BulkFS", "CopyIntoItself", func(t *testing.T) {
		seed(t, "selfcopy")
		if err := filesystem.Copy("selfcopy", "selfcopy/inner"); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Copy(selfcopy, selfcopy/inner): got error %v, want fs.ErrInvalid", err)
		}
	})

	run(t, config, "BulkFS", "MoveFile", func(t *testing.T) {
		if err := filesystem.WriteFile("move-src.txt", []byte("moved"), 0644); err != nil {
			t.Fatalf("WriteFile(move-src.txt): setup failed: %v", err)
		}
		if err := filesystem.Move("move-src.txt", "move-dst.txt"); err != nil {
			t.Fatalf("Move(move-src.txt, move-dst.txt): got error %v", err)
		}
		expectMissing(t, filesystem, "move-src.txt")
		expectContent(t, filesystem, "move-dst.txt", []byte("moved"))
	})

	run(t, config, "BulkFS", "MoveTree", func(t *testing.T) {
		seed(t, "movetree")
		if err := filesystem.Move("movetree", "moved"); err != nil {
			t.Fatalf("Move(movetree, moved): got error %v", err)
		}
		expectMissing(t, filesystem, "movetree")
		for name, content := range tree {
			expectContent(t, filesystem, "moved/"+name, []byte(content))
		}
	})

	run(t, config, "BulkFS", "RemoveTree", func(t *testing.T) {
		seed(t, "rmtree")
		if err := filesystem.RemoveTree("rmtree"); err != nil {
			t.Fatalf("RemoveTree(rmtree): got error %v", err)
		}
		expectMissing(t, filesystem, "rmtree")
	})

	run(t, config, "BulkFS", "RemoveTreeNotExist", func(t *testing.T) {
		if err := filesystem.RemoveTree("nonexistent"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("RemoveTree(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
	})
}
