package fstest

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestWriteFS tests write operations: Create, OpenFile, WriteFile, Mkdir, MkdirAll.
func TestWriteFS(t *testing.T, filesystem core.FS) {
	TestWriteFSWithConfig(t, filesystem, FSTestConfig{})
}

// TestWriteFSWithConfig tests write operations with behavior configuration.
func TestWriteFSWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	run(t, config, "WriteFS", "CreateAndWrite", func(t *testing.T) {
		f, err := filesystem.Create("created.txt")
		if err != nil {
			t.Fatalf("Create(created.txt): got error %v, want nil", err)
		}
		if f.Name() != "created.txt" {
			t.Errorf("Name(): got %q, want %q", f.Name(), "created.txt")
		}
		if _, err := f.Write([]byte("hello ")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if _, err := f.Write([]byte("world")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		expectContent(t, filesystem, "created.txt", []byte("hello world"))
	})

	run(t, config, "WriteFS", "CreateTruncates", func(t *testing.T) {
		if err := filesystem.WriteFile("trunc.txt", []byte("long original content"), 0644); err != nil {
			t.Fatalf("WriteFile(trunc.txt): setup failed: %v", err)
		}
		f, err := filesystem.Create("trunc.txt")
		if err != nil {
			t.Fatalf("Create(trunc.txt): got error %v", err)
		}
		if _, err := f.Write([]byte("short")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		expectContent(t, filesystem, "trunc.txt", []byte("short"))
	})

	run(t, config, "WriteFS", "WriteEmptyFile", func(t *testing.T) {
		if err := filesystem.WriteFile("empty.txt", nil, 0644); err != nil {
			t.Fatalf("WriteFile(empty.txt): got error %v", err)
		}
		expectContent(t, filesystem, "empty.txt", []byte{})
	})

	run(t, config, "WriteFS", "CreateInNonExistentDir", func(t *testing.T) {
		_, err := filesystem.Create("missing/dir/file.txt")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Create(missing/dir/file.txt): got error %v, want fs.ErrNotExist", err)
		}
	})

	run(t, config, "WriteFS", "ExclusiveCreate", func(t *testing.T) {
		if err := filesystem.WriteFile("excl.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(excl.txt): setup failed: %v", err)
		}
		_, err := filesystem.OpenFile("excl.txt", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if !errors.Is(err, fs.ErrExist) {
			t.Errorf("OpenFile(excl.txt, O_EXCL): got error %v, want fs.ErrExist", err)
		}
	})

	run(t, config, "WriteFS", "AppendMode", func(t *testing.T) {
		if err := filesystem.WriteFile("append.txt", []byte("abc"), 0644); err != nil {
			t.Fatalf("WriteFile(append.txt): setup failed: %v", err)
		}
		f, err := filesystem.OpenFile("append.txt", os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			t.Fatalf("OpenFile(append.txt, O_APPEND): got error %v", err)
		}
		if _, err := f.Write([]byte("def")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		expectContent(t, filesystem, "append.txt", []byte("abcdef"))
	})

	run(t, config, "WriteFS", "ReadOnlyHandleRejectsWrite", func(t *testing.T) {
		if err := filesystem.WriteFile("ro.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(ro.txt): setup failed: %v", err)
		}
		f, err := filesystem.OpenFile("ro.txt", os.O_RDONLY, 0)
		if err != nil {
			t.Fatalf("OpenFile(ro.txt): got error %v", err)
		}
		defer f.Close()
		if _, err := f.Write([]byte("y")); err == nil {
			t.Errorf("Write() on read-only handle: got nil error")
		}
	})

	run(t, config, "WriteFS", "Mkdir", func(t *testing.T) {
		if err := filesystem.Mkdir("newdir", 0755); err != nil {
			t.Fatalf("Mkdir(newdir): got error %v", err)
		}
		info, err := filesystem.Stat("newdir")
		if err != nil || !info.IsDir() {
			t.Fatalf("Stat(newdir): got (%v, %v), want a directory", info, err)
		}
		if err := filesystem.Mkdir("newdir", 0755); !errors.Is(err, fs.ErrExist) {
			t.Errorf("Mkdir(newdir) twice: got error %v, want fs.ErrExist", err)
		}
	})

	run(t, config, "WriteFS", "MkdirAll", func(t *testing.T) {
		if err := filesystem.MkdirAll("deep/nested/dir", 0755); err != nil {
			t.Fatalf("MkdirAll(deep/nested/dir): got error %v", err)
		}
		if err := filesystem.MkdirAll("deep/nested/dir", 0755); err != nil {
			t.Errorf("MkdirAll(deep/nested/dir) twice: got error %v, want nil", err)
		}
		if err := filesystem.WriteFile("deep/file.txt", []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(deep/file.txt): setup failed: %v", err)
		}
		if err := filesystem.MkdirAll("deep/file.txt", 0755); !errors.Is(err, fs.ErrExist) {
			t.Errorf("MkdirAll(deep/file.txt): got error %v, want fs.ErrExist", err)
		}
	})
}

// expectContent fails t unless name holds want.
func expectContent(t *testing.T, filesystem core.FS, name string, want []byte) {
	t.Helper()
	got, err := filesystem.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile(%s): got error %v", name, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadFile(%s): got %q, want %q", name, got, want)
	}
}

// expectMissing fails t unless name is absent.
func expectMissing(t *testing.T, filesystem core.FS, name string) {
	t.Helper()
	if _, err := filesystem.Stat(name); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(%s): got error %v, want fs.ErrNotExist", name, err)
	}
}
