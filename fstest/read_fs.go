package fstest

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestReadFS tests read operations: Open, Stat, ReadDir, ReadFile, Exists.
func TestReadFS(t *testing.T, filesystem core.FS) {
	TestReadFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestReadFSWithConfig tests read operations with behavior configuration.
func TestReadFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	testContent := []byte("test file content")

	if err := filesystem.MkdirAll("testdir/sub", 0755); err != nil {
		t.Fatalf("MkdirAll(testdir/sub): setup failed: %v", err)
	}
	for _, name := range []string{"testdir/b.txt", "testdir/a.txt", "testdir/c.txt"} {
		if err := filesystem.WriteFile(name, testContent, 0644); err != nil {
			t.Fatalf("WriteFile(%s): setup failed: %v", name, err)
		}
	}

	run(t, config, "ReadFS", "Open", func(t *testing.T) {
		f, err := filesystem.Open("testdir/a.txt")
		if err != nil {
			t.Fatalf("Open(testdir/a.txt): got error %v, want nil", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("ReadAll(): got error %v", err)
		}
		if !bytes.Equal(data, testContent) {
			t.Errorf("ReadAll(): got %q, want %q", data, testContent)
		}
	})

	run(t, config, "ReadFS", "ReadAtEOFReturnsZero", func(t *testing.T) {
		f, err := filesystem.Open("testdir/a.txt")
		if err != nil {
			t.Fatalf("Open(testdir/a.txt): got error %v, want nil", err)
		}
		defer f.Close()

		if _, err := io.ReadAll(f); err != nil {
			t.Fatalf("ReadAll(): got error %v", err)
		}
		n, err := f.Read(make([]byte, 8))
		if n != 0 || !errors.Is(err, io.EOF) {
			t.Errorf("Read() at EOF: got (%d, %v), want (0, io.EOF)", n, err)
		}
	})

	run(t, config, "ReadFS", "StatFile", func(t *testing.T) {
		info, err := filesystem.Stat("testdir/a.txt")
		if err != nil {
			t.Fatalf("Stat(testdir/a.txt): got error %v, want nil", err)
		}
		if info.IsDir() {
			t.Errorf("Stat(testdir/a.txt): IsDir() = true, want false")
		}
		if info.Name() != "a.txt" {
			t.Errorf("Stat(testdir/a.txt): Name() = %q, want %q", info.Name(), "a.txt")
		}
		if info.Size() != int64(len(testContent)) {
			t.Errorf("Stat(testdir/a.txt): Size() = %d, want %d", info.Size(), len(testContent))
		}
	})

	run(t, config, "ReadFS", "StatDir", func(t *testing.T) {
		info, err := filesystem.Stat("testdir")
		if err != nil {
			t.Fatalf("Stat(testdir): got error %v, want nil", err)
		}
		if !info.IsDir() {
			t.Errorf("Stat(testdir): IsDir() = false, want true")
		}
	})

	run(t, config, "ReadFS", "StatNotExist", func(t *testing.T) {
		_, err := filesystem.Stat("nonexistent")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			t.Errorf("Stat(nonexistent): got %T, want *fs.PathError", err)
		}
	})

	run(t, config, "ReadFS", "ReadDirSorted", func(t *testing.T) {
		entries, err := filesystem.ReadDir("testdir")
		if err != nil {
			t.Fatalf("ReadDir(testdir): got error %v, want nil", err)
		}
		want := []string{"a.txt", "b.txt", "c.txt", "sub"}
		if len(entries) != len(want) {
			t.Fatalf("ReadDir(testdir): got %d entries, want %d", len(entries), len(want))
		}
		for i, e := range entries {
			if e.Name() != want[i] {
				t.Errorf("ReadDir(testdir)[%d]: got %q, want %q", i, e.Name(), want[i])
			}
		}
		if !entries[3].IsDir() {
			t.Errorf("ReadDir(testdir): sub IsDir() = false, want true")
		}
	})

	run(t, config, "ReadFS", "ReadDirNotExist", func(t *testing.T) {
		_, err := filesystem.ReadDir("nonexistent")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("ReadDir(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
	})

	run(t, config, "ReadFS", "ReadDirOnFile", func(t *testing.T) {
		_, err := filesystem.ReadDir("testdir/a.txt")
		if !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("ReadDir(testdir/a.txt): got error %v, want fs.ErrInvalid", err)
		}
	})

	run(t, config, "ReadFS", "ReadFile", func(t *testing.T) {
		data, err := filesystem.ReadFile("testdir/b.txt")
		if err != nil {
			t.Fatalf("ReadFile(testdir/b.txt): got error %v, want nil", err)
		}
		if !bytes.Equal(data, testContent) {
			t.Errorf("ReadFile(testdir/b.txt): got %q, want %q", data, testContent)
		}
	})

	run(t, config, "ReadFS", "OpenNotExist", func(t *testing.T) {
		_, err := filesystem.Open("nonexistent")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Open(nonexistent): got error %v, want fs.ErrNotExist", err)
		}
	})

	run(t, config, "ReadFS", "Exists", func(t *testing.T) {
		for name, want := range map[string]bool{
			"testdir/a.txt": true,
			"testdir":       true,
			"nonexistent":   false,
		} {
			got, err := filesystem.Exists(name)
			if err != nil {
				t.Errorf("Exists(%q): got error %v, want nil", name, err)
				continue
			}
			if got != want {
				t.Errorf("Exists(%q): got %v, want %v", name, got, want)
			}
		}
	})
}
