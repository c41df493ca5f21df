package fstest

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestWalkFS tests directory tree traversal with Walk.
func TestWalkFS(t *testing.T, filesystem core.FS) {
	TestWalkFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestWalkFSWithConfig tests tree traversal with behavior configuration.
func TestWalkFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	for _, name := range []string{"walkroot/subdir2", "walkroot/subdir1", "walkroot/empty"} {
		if err := filesystem.MkdirAll(name, 0755); err != nil {
			t.Fatalf("MkdirAll(%s): setup failed: %v", name, err)
		}
	}
	for _, name := range []string{"walkroot/root.txt", "walkroot/subdir1/file1.txt", "walkroot/subdir2/file2.txt"} {
		if err := filesystem.WriteFile(name, []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile(%s): setup failed: %v", name, err)
		}
	}

	collect := func(t *testing.T, root string, skip string) []string {
		t.Helper()
		var visited []string
		err := filesystem.Walk(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			if path == skip && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk(%s): got error %v, want nil", root, err)
		}
		return visited
	}

	run(t, config, "WalkFS", "LexicalOrder", func(t *testing.T) {
		got := collect(t, "walkroot", "")
		want := []string{
			"walkroot",
			"walkroot/empty",
			"walkroot/root.txt",
			"walkroot/subdir1",
			"walkroot/subdir1/file1.txt",
			"walkroot/subdir2",
			"walkroot/subdir2/file2.txt",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Walk(walkroot): got %v, want %v", got, want)
		}
	})

	run(t, config, "WalkFS", "SkipDir", func(t *testing.T) {
		got := collect(t, "walkroot", "walkroot/subdir1")
		want := []string{
			"walkroot",
			"walkroot/empty",
			"walkroot/root.txt",
			"walkroot/subdir1",
			"walkroot/subdir2",
			"walkroot/subdir2/file2.txt",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Walk(walkroot) skipping subdir1: got %v, want %v", got, want)
		}
	})

	run(t, config, "WalkFS", "FileRoot", func(t *testing.T) {
		got := collect(t, "walkroot/root.txt", "")
		if !reflect.DeepEqual(got, []string{"walkroot/root.txt"}) {
			t.Errorf("Walk(walkroot/root.txt): got %v", got)
		}
	})

	run(t, config, "WalkFS", "MissingRoot", func(t *testing.T) {
		err := filesystem.Walk("nonexistent", func(_ string, _ fs.DirEntry, err error) error {
			return err
		})
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Walk(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
	})
}
