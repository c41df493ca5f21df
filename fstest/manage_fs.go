package fstest

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestManageFS tests Remove, RemoveDir, RemoveAll and Rename.
func TestManageFS(t *testing.T, filesystem core.FS) {
	TestManageFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestManageFSWithConfig tests file management with behavior configuration.
func TestManageFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	run(t, config, "ManageFS", "RemoveFile", func(t *testing.T) {
		if err := filesystem.WriteFile("rm.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(rm.txt): setup failed: %v", err)
		}
		if err := filesystem.Remove("rm.txt"); err != nil {
			t.Fatalf("Remove(rm.txt): got error %v", err)
		}
		expectMissing(t, filesystem, "rm.txt")
	})

	run(t, config, "ManageFS", "RemoveOnDirectory", func(t *testing.T) {
		if err := filesystem.Mkdir("rmdir-target", 0755); err != nil {
			t.Fatalf("Mkdir(rmdir-target): setup failed: %v", err)
		}
		if err := filesystem.Remove("rmdir-target"); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Remove(rmdir-target): got error %v, want fs.ErrInvalid", err)
		}
	})

	run(t, config, "ManageFS", "RemoveNotExist", func(t *testing.T) {
		if err := filesystem.Remove("nonexistent"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Remove(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
	})

	run(t, config, "ManageFS", "RemoveDir", func(t *testing.T) {
		if err := filesystem.MkdirAll("full/child", 0755); err != nil {
			t.Fatalf("MkdirAll(full/child): setup failed: %v", err)
		}
		if err := filesystem.RemoveDir("full"); !errors.Is(err, core.ErrNotEmpty) {
			t.Errorf("RemoveDir(full): got error %v, want core.ErrNotEmpty", err)
		}
		if err := filesystem.RemoveDir("full/child"); err != nil {
			t.Errorf("RemoveDir(full/child): got error %v", err)
		}
		if err := filesystem.WriteFile("full/file.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(full/file.txt): setup failed: %v", err)
		}
		if err := filesystem.RemoveDir("full/file.txt"); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("RemoveDir(full/file.txt): got error %v, want fs.ErrInvalid", err)
		}
	})

	run(t, config, "ManageFS", "RemoveAll", func(t *testing.T) {
		if err := filesystem.MkdirAll("parent/child1", 0755); err != nil {
			t.Fatalf("MkdirAll(parent/child1): setup failed: %v", err)
		}
		for _, name := range []string{"parent/file1.txt", "parent/child1/file2.txt"} {
			if err := filesystem.WriteFile(name, []byte("x"), 0644); err != nil {
				t.Fatalf("WriteFile(%s): setup failed: %v", name, err)
			}
		}
		if err := filesystem.RemoveAll("parent"); err != nil {
			t.Fatalf("RemoveAll(parent): got error %v", err)
		}
		expectMissing(t, filesystem, "parent")
		if err := filesystem.RemoveAll("parent"); err != nil {
			t.Errorf("RemoveAll(parent) on missing path: got error %v, want nil", err)
		}
	})

	run(t, config, "ManageFS", "RenameFile", func(t *testing.T) {
		if err := filesystem.WriteFile("old.txt", []byte("renamed"), 0644); err != nil {
			t.Fatalf("WriteFile(old.txt): setup failed: %v", err)
		}
		if err := filesystem.Rename("old.txt", "new.txt"); err != nil {
			t.Fatalf("Rename(old.txt, new.txt): got error %v", err)
		}
		expectMissing(t, filesystem, "old.txt")
		expectContent(t, filesystem, "new.txt", []byte("renamed"))
	})

	run(t, config, "ManageFS", "RenameDirectory", func(t *testing.T) {
		if err := filesystem.MkdirAll("olddir", 0755); err != nil {
			t.Fatalf("MkdirAll(olddir): setup failed: %v", err)
		}
		if err := filesystem.WriteFile("olddir/f.txt", []byte("inside"), 0644); err != nil {
			t.Fatalf("WriteFile(olddir/f.txt): setup failed: %v", err)
		}
		if err := filesystem.Rename("olddir", "newdir"); err != nil {
			t.Fatalf("Rename(olddir, newdir): got error %v", err)
		}
		expectMissing(t, filesystem, "olddir")
		expectContent(t, filesystem, "newdir/f.txt", []byte("inside"))
	})
}
