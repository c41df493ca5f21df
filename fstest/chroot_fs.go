package fstest

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestChrootFS tests scoped filesystem views and boundary enforcement.
func TestChrootFS(t *testing.T, filesystem core.FS) {
	TestChrootFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestChrootFSWithConfig tests scoped views with behavior configuration.
func TestChrootFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	if err := filesystem.MkdirAll("chroot-dir/nested", 0755); err != nil {
		t.Fatalf("MkdirAll(chroot-dir/nested): setup failed: %v", err)
	}
	if err := filesystem.WriteFile("chroot-dir/inside.txt", []byte("inside"), 0644); err != nil {
		t.Fatalf("WriteFile(chroot-dir/inside.txt): setup failed: %v", err)
	}
	if err := filesystem.WriteFile("outside.txt", []byte("outside"), 0644); err != nil {
		t.Fatalf("WriteFile(outside.txt): setup failed: %v", err)
	}

	run(t, config, "ChrootFS", "ChrootToSubdirectory", func(t *testing.T) {
		view, err := filesystem.Chroot("chroot-dir")
		if err != nil {
			t.Fatalf("Chroot(chroot-dir): got error %v", err)
		}
		expectContent(t, view, "inside.txt", []byte("inside"))
		expectMissing(t, view, "outside.txt")

		if err := view.WriteFile("new.txt", []byte("new"), 0644); err != nil {
			t.Fatalf("view.WriteFile(new.txt): got error %v", err)
		}
		expectContent(t, filesystem, "chroot-dir/new.txt", []byte("new"))
	})

	run(t, config, "ChrootFS", "PathTraversalPrevention", func(t *testing.T) {
		view, err := filesystem.Chroot("chroot-dir")
		if err != nil {
			t.Fatalf("Chroot(chroot-dir): got error %v", err)
		}
		for _, name := range []string{"../outside.txt", "nested/../../outside.txt", "/../outside.txt"} {
			if _, err := view.ReadFile(name); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("view.ReadFile(%q): got error %v, want fs.ErrNotExist", name, err)
			}
		}
		if err := view.WriteFile("/escape.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("view.WriteFile(/escape.txt): got error %v", err)
		}
		expectMissing(t, filesystem, "escape.txt")
		expectContent(t, filesystem, "chroot-dir/escape.txt", []byte("x"))
	})

	run(t, config, "ChrootFS", "ChrootOnChroot", func(t *testing.T) {
		view, err := filesystem.Chroot("chroot-dir")
		if err != nil {
			t.Fatalf("Chroot(chroot-dir): got error %v", err)
		}
		nested, err := view.Chroot("nested")
		if err != nil {
			t.Fatalf("view.Chroot(nested): got error %v", err)
		}
		if err := nested.WriteFile("n.txt", []byte("n"), 0644); err != nil {
			t.Fatalf("nested.WriteFile(n.txt): got error %v", err)
		}
		expectContent(t, filesystem, "chroot-dir/nested/n.txt", []byte("n"))
	})

	run(t, config, "ChrootFS", "ChrootInvalidTarget", func(t *testing.T) {
		if _, err := filesystem.Chroot("nonexistent"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Chroot(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
		if _, err := filesystem.Chroot("outside.txt"); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Chroot(outside.txt): got error %v, want fs.ErrInvalid", err)
		}
	})
}
