package fstest

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/jmgilman/go/fs/xrootd/core"
)

// TestFileCapabilities tests the optional File capabilities: io.Seeker,
// io.ReaderAt, core.Truncater, core.Syncer and core.Sizer. Unsupported
// capabilities are skipped.
func TestFileCapabilities(t *testing.T, filesystem core.FS) {
	TestFileCapabilitiesWithConfig(t, filesystem, FSTestConfig{})
}

// TestFileCapabilitiesWithConfig tests file capabilities with behavior configuration.
func TestFileCapabilitiesWithConfig(t *testing.T, filesystem core.FS, config FSTestConfig) {
	content := []byte("0123456789abcdef")
	if err := filesystem.WriteFile("caps.bin", content, 0644); err != nil {
		t.Fatalf("WriteFile(caps.bin): setup failed: %v", err)
	}

	open := func(t *testing.T, flag int) core.File {
		t.Helper()
		f, err := filesystem.OpenFile("caps.bin", flag, 0)
		if err != nil {
			t.Fatalf("OpenFile(caps.bin): got error %v", err)
		}
		t.Cleanup(func() { _ = f.Close() })
		return f
	}

	run(t, config, "FileCapabilities", "Seeker", func(t *testing.T) {
		f := open(t, os.O_RDONLY)
		s, ok := f.(io.Seeker)
		if !ok {
			t.Skip("file does not implement io.Seeker")
		}

		for _, tc := range []struct {
			offset int64
			whence int
			want   int64
		}{
			{4, io.SeekStart, 4},
			{2, io.SeekCurrent, 6},
			{-3, io.SeekEnd, 13},
			{0, io.SeekEnd, 16},
		} {
			got, err := s.Seek(tc.offset, tc.whence)
			if err != nil || got != tc.want {
				t.Errorf("Seek(%d, %d): got (%d, %v), want (%d, nil)", tc.offset, tc.whence, got, err, tc.want)
			}
		}

		if _, err := s.Seek(13, io.SeekStart); err != nil {
			t.Fatalf("Seek(13, SeekStart): got error %v", err)
		}
		buf := make([]byte, 3)
		if _, err := io.ReadFull(f, buf); err != nil || !bytes.Equal(buf, content[13:]) {
			t.Errorf("Read after Seek: got (%q, %v), want %q", buf, err, content[13:])
		}

		if _, err := s.Seek(-1, io.SeekStart); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("Seek(-1, SeekStart): got error %v, want fs.ErrInvalid", err)
		}
	})

	run(t, config, "FileCapabilities", "ReaderAt", func(t *testing.T) {
		f := open(t, os.O_RDONLY)
		r, ok := f.(io.ReaderAt)
		if !ok {
			t.Skip("file does not implement io.ReaderAt")
		}
		buf := make([]byte, 4)
		if n, err := r.ReadAt(buf, 10); err != nil || n != 4 || !bytes.Equal(buf, content[10:14]) {
			t.Errorf("ReadAt(4, 10): got (%d, %q, %v)", n, buf, err)
		}
		if n, err := r.ReadAt(buf, 14); n != 2 || !errors.Is(err, io.EOF) {
			t.Errorf("ReadAt(4, 14): got (%d, %v), want (2, io.EOF)", n, err)
		}
		// The cursor is untouched.
		head := make([]byte, 2)
		if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, content[:2]) {
			t.Errorf("Read after ReadAt: got (%q, %v), want %q", head, err, content[:2])
		}
	})

	run(t, config, "FileCapabilities", "Sizer", func(t *testing.T) {
		f := open(t, os.O_RDONLY)
		s, ok := f.(core.Sizer)
		if !ok {
			t.Skip("file does not implement core.Sizer")
		}
		if n, err := s.Size(); err != nil || n != int64(len(content)) {
			t.Errorf("Size(): got (%d, %v), want (%d, nil)", n, err, len(content))
		}
	})

	run(t, config, "FileCapabilities", "Truncater", func(t *testing.T) {
		if err := filesystem.WriteFile("trunc.bin", content, 0644); err != nil {
			t.Fatalf("WriteFile(trunc.bin): setup failed: %v", err)
		}
		f, err := filesystem.OpenFile("trunc.bin", os.O_RDWR, 0)
		if err != nil {
			t.Fatalf("OpenFile(trunc.bin): got error %v", err)
		}
		tr, ok := f.(core.Truncater)
		if !ok {
			_ = f.Close()
			t.Skip("file does not implement core.Truncater")
		}
		if err := tr.Truncate(5); err != nil {
			t.Fatalf("Truncate(5): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		expectContent(t, filesystem, "trunc.bin", content[:5])
	})

	run(t, config, "FileCapabilities", "Syncer", func(t *testing.T) {
		f, err := filesystem.Create("sync.bin")
		if err != nil {
			t.Fatalf("Create(sync.bin): got error %v", err)
		}
		defer f.Close()
		s, ok := f.(core.Syncer)
		if !ok {
			t.Skip("file does not implement core.Syncer")
		}
		if _, err := f.Write([]byte("synced")); err != nil {
			t.Fatalf("Write(): got error %v", err)
		}
		if err := s.Sync(); err != nil {
			t.Fatalf("Sync(): got error %v", err)
		}
		expectContent(t, filesystem, "sync.bin", []byte("synced"))
	})

	run(t, config, "FileCapabilities", "CloseIdempotent", func(t *testing.T) {
		f, err := filesystem.Open("caps.bin")
		if err != nil {
			t.Fatalf("Open(caps.bin): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close(): got error %v", err)
		}
		if err := f.Close(); err != nil {
			t.Errorf("second Close(): got error %v, want nil", err)
		}
		if _, err := f.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
			t.Errorf("Read() after Close: got error %v, want fs.ErrClosed", err)
		}
	})
}
