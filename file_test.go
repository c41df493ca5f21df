package xrootd

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fs/xrootd/core"
	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/xrd"
	"github.com/jmgilman/go/fs/xrootd/xrd/xrdtest"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestFileInterfaceCompliance(t *testing.T) {
	var _ core.File = (*File)(nil)
	var _ io.Seeker = (*File)(nil)
	var _ io.ReaderAt = (*File)(nil)
	var _ core.Truncater = (*File)(nil)
	var _ core.Syncer = (*File)(nil)
	var _ core.Sizer = (*File)(nil)
}

func TestFileRoundTrip(t *testing.T) {
	f, srv := newTestFS(t, WithChunkSize(64), WithBufferSize(16))

	for _, size := range []int{0, 1, 15, 16, 17, 63, 64, 65, 1000} {
		data := pattern(size)
		name := "rt.bin"
		require.NoError(t, f.WriteFile(name, data, 0o644), "size %d", size)

		stored, err := srv.ReadFile("/" + name)
		require.NoError(t, err)
		assert.Equal(t, data, stored, "stored content, size %d", size)

		got, err := f.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, data, got, "read back, size %d", size)
	}
	assert.Zero(t, srv.OpenHandles())
}

func TestFileReadIsChunked(t *testing.T) {
	f, srv := newTestFS(t, WithChunkSize(100))
	require.NoError(t, srv.WriteFile("/r.bin", pattern(1000)))

	file, err := f.Open("r.bin")
	require.NoError(t, err)
	defer file.Close()
	srv.ResetCalls()

	buf := make([]byte, 1000)
	n, err := file.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Equal(t, pattern(1000), buf)
	assert.Len(t, srv.Calls(xrdtest.OpRead), 10)

	n, err = file.Read(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileShortServerReads(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/s.bin", pattern(100)))
	srv.SetMaxReadSize(7)

	file, err := f.Open("s.bin")
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 50)
	n, err := file.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 50, n, "a short server read is not end of file")
	assert.Equal(t, pattern(100)[:50], buf)

	_, err = file.(io.Seeker).Seek(95, io.SeekStart)
	require.NoError(t, err)
	n, err = file.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = file.Read(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileReadAll(t *testing.T) {
	f, srv := newTestFS(t, WithChunkSize(33))
	require.NoError(t, srv.WriteFile("/all.bin", pattern(1000)))

	file, err := f.OpenMode("all.bin", "rb")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Seek(10, io.SeekStart)
	require.NoError(t, err)
	data, err := file.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, pattern(1000)[10:], data)

	pos, err := file.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), pos)
}

func TestFileWriteIsChunked(t *testing.T) {
	f, srv := newTestFS(t, WithChunkSize(100), WithBufferSize(10))

	file, err := f.Create("w.bin")
	require.NoError(t, err)
	srv.ResetCalls()

	n, err := file.Write(pattern(1000))
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Len(t, srv.Calls(xrdtest.OpWrite), 10)
	require.NoError(t, file.Close())

	stored, err := srv.ReadFile("/w.bin")
	require.NoError(t, err)
	assert.Equal(t, pattern(1000), stored)
}

func TestFileWriteBuffering(t *testing.T) {
	f, srv := newTestFS(t, WithBufferSize(64))

	file, err := f.Create("b.txt")
	require.NoError(t, err)
	srv.ResetCalls()
	for i := 0; i < 10; i++ {
		_, err := file.Write([]byte("12345"))
		require.NoError(t, err)
	}
	assert.Empty(t, srv.Calls(xrdtest.OpWrite), "small writes are coalesced")

	require.NoError(t, file.Close())
	assert.Len(t, srv.Calls(xrdtest.OpWrite), 1)
	stored, err := srv.ReadFile("/b.txt")
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("12345"), 10), stored)
}

func TestFileWriteFailure(t *testing.T) {
	f, srv := newTestFS(t, WithChunkSize(10), WithBufferSize(1))
	srv.Fail(xrdtest.OpWrite, "/fail.bin", xrd.NewStatus(xrd.ErrNoSpace, "no space left on device"))

	file, err := f.Create("fail.bin")
	require.NoError(t, err)
	n, err := file.Write(pattern(100))
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeRemoteIO, xerrors.GetCode(err))
	assert.Equal(t, xrd.ErrNoSpace, xerrors.GetContext(err)["errno"])

	require.NoError(t, file.Close())
}

func TestFileSeekFromEnd(t *testing.T) {
	f, srv := newTestFS(t)
	data := pattern(100)
	require.NoError(t, srv.WriteFile("/seek.bin", data))

	file, err := f.OpenMode("seek.bin", "r")
	require.NoError(t, err)
	defer file.Close()

	for _, k := range []int64{0, 1, 10, 99, 100} {
		pos, err := file.Seek(-k, io.SeekEnd)
		require.NoError(t, err)
		assert.Equal(t, 100-k, pos)

		buf := make([]byte, k+10)
		n, err := file.Read(buf)
		if k == 0 {
			assert.Zero(t, n)
			assert.ErrorIs(t, err, io.EOF)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, int(k), n)
		assert.Equal(t, data[100-k:], buf[:n])
	}
}

func TestFileSeekValidation(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/v.bin", pattern(100)))

	file, err := f.OpenMode("v.bin", "r")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Seek(-101, io.SeekEnd)
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = file.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = file.Seek(101, io.SeekStart)
	assert.ErrorIs(t, err, fs.ErrInvalid, "read-only handles cannot seek past end of file")
	_, err = file.Seek(0, 7)
	assert.ErrorIs(t, err, fs.ErrInvalid)

	pos, err := file.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)
	pos, err = file.Seek(-40, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pos)

	_, err = file.ReadAt(make([]byte, 1), -1)
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestFileSeekPastEndOnWritableHandle(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/gap.bin", []byte("abc")))

	file, err := f.OpenMode("gap.bin", "r+")
	require.NoError(t, err)
	_, err = file.Seek(10, io.SeekStart)
	require.NoError(t, err)
	_, err = file.Write([]byte("z"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	stored, err := srv.ReadFile("/gap.bin")
	require.NoError(t, err)
	assert.Equal(t, append([]byte("abc\x00\x00\x00\x00\x00\x00\x00"), 'z'), stored)
}

func TestFileSizeIsCached(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/size.bin", pattern(10)))

	file, err := f.OpenMode("size.bin", "r")
	require.NoError(t, err)
	defer file.Close()
	srv.ResetCalls()

	n, err := file.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	require.NoError(t, srv.WriteFile("/size.bin", pattern(20)))
	n, err = file.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Len(t, srv.Calls(xrdtest.OpFstat), 1)

	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(20), info.Size(), "Stat asks the server")
	assert.Equal(t, "size.bin", info.Name())
}

func TestFileStatFlushesBuffer(t *testing.T) {
	f, _ := newTestFS(t)
	file, err := f.Create("stat.txt")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("abc"))
	require.NoError(t, err)
	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
}

func TestFileTruncate(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/t.txt", []byte("0123456789")))

	file, err := f.OpenMode("t.txt", "r+")
	require.NoError(t, err)
	_, err = file.Seek(8, io.SeekStart)
	require.NoError(t, err)

	require.NoError(t, file.Truncate(4))
	pos, err := file.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos, "truncate leaves the cursor alone")
	size, err := file.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	require.NoError(t, file.Truncate(6))
	assert.ErrorIs(t, file.Truncate(-1), fs.ErrInvalid)
	require.NoError(t, file.Close())

	stored, err := srv.ReadFile("/t.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123\x00\x00"), stored)

	ro, err := f.OpenMode("t.txt", "r")
	require.NoError(t, err)
	defer ro.Close()
	assert.ErrorIs(t, ro.Truncate(1), fs.ErrInvalid)
}

func TestFileAccessChecks(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/acc.txt", []byte("abc")))

	wo, err := f.OpenFile("acc.txt", os.O_WRONLY, 0)
	require.NoError(t, err)
	defer wo.Close()
	_, err = wo.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrInvalid)

	ro, err := f.OpenFile("acc.txt", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer ro.Close()
	_, err = ro.Write([]byte("x"))
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestFileSync(t *testing.T) {
	f, srv := newTestFS(t)
	file, err := f.OpenMode("sync.txt", "w")
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("synced"))
	require.NoError(t, err)
	require.NoError(t, file.Sync())
	assert.Len(t, srv.Calls(xrdtest.OpSync), 1)

	stored, err := srv.ReadFile("/sync.txt")
	require.NoError(t, err)
	assert.Equal(t, "synced", string(stored))
}

func TestFileCloseIdempotent(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/c.txt", []byte("abc")))

	file, err := f.OpenMode("c.txt", "r")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.OpenHandles())

	require.NoError(t, file.Close())
	require.NoError(t, file.Close())
	assert.Len(t, srv.Calls(xrdtest.OpClose), 1)
	assert.Zero(t, srv.OpenHandles())

	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = file.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = file.Size()
	assert.ErrorIs(t, err, fs.ErrClosed)
}

func TestFileCloseFailureIsReported(t *testing.T) {
	f, srv := newTestFS(t)
	srv.Fail(xrdtest.OpClose, "/cf.txt", xrd.NewStatus(xrd.ErrIOError, "commit failed"))

	file, err := f.Create("cf.txt")
	require.NoError(t, err)
	_, err = file.Write([]byte("data"))
	require.NoError(t, err)

	err = file.Close()
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeRemoteIO, xerrors.GetCode(err))
	assert.Zero(t, srv.OpenHandles())

	require.NoError(t, file.Close(), "a closed handle stays closed")
	assert.Len(t, srv.Calls(xrdtest.OpClose), 1)
}

func TestFileCloseDetectsDataLoss(t *testing.T) {
	t.Run("file deleted", func(t *testing.T) {
		f, srv := newTestFS(t)
		srv.LoseOnClose("/lost.txt")

		err := f.WriteFile("lost.txt", []byte("payload"), 0o644)
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeDataLoss, xerrors.GetCode(err))
		var pathErr *fs.PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "close", pathErr.Op)
	})

	t.Run("file truncated", func(t *testing.T) {
		f, srv := newTestFS(t)
		srv.ShrinkOnClose("/short.txt")

		err := f.WriteFile("short.txt", []byte("payload"), 0o644)
		require.Error(t, err)
		assert.Equal(t, xerrors.CodeDataLoss, xerrors.GetCode(err))
		assert.Contains(t, err.Error(), "expected 7")
	})

	t.Run("verification disabled", func(t *testing.T) {
		srv := xrdtest.NewServer()
		f, err := New(context.Background(), Config{
			URL:             "root://localhost//",
			Dialer:          srv.Dial,
			SkipCloseVerify: true,
		})
		require.NoError(t, err)
		defer f.Close()
		srv.LoseOnClose("/lost.txt")

		require.NoError(t, f.WriteFile("lost.txt", []byte("payload"), 0o644))
	})

	t.Run("read handles are not verified", func(t *testing.T) {
		f, srv := newTestFS(t)
		require.NoError(t, srv.WriteFile("/ro.txt", []byte("x")))
		file, err := f.Open("ro.txt")
		require.NoError(t, err)
		srv.ResetCalls()
		require.NoError(t, file.Close())
		assert.Empty(t, srv.Calls(xrdtest.OpStat))
	})
}

func TestFileCloseVerifiesChecksum(t *testing.T) {
	f, srv := newTestFS(t, WithVerifyChecksum(), WithChunkSize(8))

	require.NoError(t, f.WriteFile("sum.bin", pattern(100), 0o644))
	assert.NotEmpty(t, srv.Calls(xrdtest.OpRead), "the written file is read back")

	// Non-sequential writes cannot be digested and are not re-read.
	file, err := f.Create("gap.bin")
	require.NoError(t, err)
	_, err = file.(io.Seeker).Seek(50, io.SeekStart)
	require.NoError(t, err)
	_, err = file.Write([]byte("x"))
	require.NoError(t, err)
	srv.ResetCalls()
	require.NoError(t, file.Close())
	assert.Empty(t, srv.Calls(xrdtest.OpRead))
}

func TestOpenModes(t *testing.T) {
	f, srv := newTestFS(t)
	read := func(name string) string {
		data, err := srv.ReadFile(name)
		require.NoError(t, err)
		return string(data)
	}
	write := func(file *File, s string) {
		_, err := file.Write([]byte(s))
		require.NoError(t, err)
	}

	_, err := f.OpenMode("missing.txt", "r")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	file, err := f.OpenMode("new.txt", "x")
	require.NoError(t, err)
	write(file, "new")
	require.NoError(t, file.Close())
	assert.Equal(t, "new", read("/new.txt"))
	_, err = f.OpenMode("new.txt", "x+")
	assert.ErrorIs(t, err, fs.ErrExist)

	file, err = f.OpenMode("new.txt", "r+")
	require.NoError(t, err)
	write(file, "N")
	require.NoError(t, file.Close())
	assert.Equal(t, "New", read("/new.txt"))

	file, err = f.OpenMode("new.txt", "a")
	require.NoError(t, err)
	write(file, "er")
	require.NoError(t, file.Close())
	assert.Equal(t, "Newer", read("/new.txt"))

	file, err = f.OpenMode("new.txt", "a+")
	require.NoError(t, err)
	_, err = file.Seek(0, io.SeekStart)
	require.NoError(t, err)
	head := make([]byte, 3)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "New", string(head))
	write(file, "!")
	require.NoError(t, file.Close())
	assert.Equal(t, "Newer!", read("/new.txt"), "append writes always land at end of file")

	file, err = f.OpenMode("new.txt", "w")
	require.NoError(t, err)
	write(file, "w")
	require.NoError(t, file.Close())
	assert.Equal(t, "w", read("/new.txt"))

	file, err = f.OpenMode("appended.txt", "a")
	require.NoError(t, err)
	write(file, "created")
	require.NoError(t, file.Close())
	assert.Equal(t, "created", read("/appended.txt"))

	_, err = f.OpenMode("no/parent.txt", "w")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.OpenMode("new.txt", "rw")
	assert.ErrorIs(t, err, fs.ErrInvalid)

	require.NoError(t, srv.MkdirAll("/adir"))
	_, err = f.OpenMode("adir", "r")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	assert.Equal(t, xerrors.CodeIsADirectory, xerrors.GetCode(err))

	assert.Zero(t, srv.OpenHandles())
}

func TestOpenReadOnlyCreate(t *testing.T) {
	f, srv := newTestFS(t)
	file, err := f.OpenFile("empty.txt", os.O_RDONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	n, err := file.Read(make([]byte, 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, file.Close())
	assert.True(t, srv.Exists("/empty.txt"))
}

// patternClient serves a single read-only file of arbitrary size whose
// byte at offset o is o%251.
type patternClient struct {
	xrd.Client
	size int64
	// extra is added to every reported read length.
	extra int

	mu   sync.Mutex
	lens []int
}

func (c *patternClient) Open(context.Context, string, xrd.OpenFlags, xrd.AccessMode) (xrd.File, error) {
	return &patternFile{c: c}, nil
}

func (c *patternClient) Stat(context.Context, string) (xrd.StatInfo, error) {
	return xrd.StatInfo{Size: c.size}, nil
}

func (c *patternClient) Close() error { return nil }

type patternFile struct {
	xrd.File
	c *patternClient
}

func (f *patternFile) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	f.c.mu.Lock()
	f.c.lens = append(f.c.lens, len(p))
	f.c.mu.Unlock()
	if off >= f.c.size {
		return 0, nil
	}
	n := len(p)
	if rem := f.c.size - off; int64(n) > rem {
		n = int(rem)
	}
	for i := 0; i < n; i++ {
		p[i] = byte((off + int64(i)) % 251)
	}
	return n + f.c.extra, nil
}

func (f *patternFile) Stat(context.Context) (xrd.StatInfo, error) {
	return xrd.StatInfo{Size: f.c.size}, nil
}

func (f *patternFile) Close(context.Context) error { return nil }

func expectPattern(t *testing.T, off int64, got []byte) {
	t.Helper()
	for i, b := range got {
		require.Equal(t, byte((off+int64(i))%251), b, "byte at offset %d", off+int64(i))
	}
}

func TestFileLargeOffsets(t *testing.T) {
	client := &patternClient{size: 5 << 30}
	f, err := Open(context.Background(), "root://localhost//", WithClient(client), WithChunkSize(1024))
	require.NoError(t, err)

	file, err := f.OpenMode("big.root", "r")
	require.NoError(t, err)
	defer file.Close()

	boundary := int64(1) << 31
	pos, err := file.Seek(boundary-2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, boundary-2, pos)
	buf := make([]byte, 4)
	_, err = io.ReadFull(file, buf)
	require.NoError(t, err)
	expectPattern(t, boundary-2, buf)
	pos, err = file.Tell()
	require.NoError(t, err)
	assert.Equal(t, boundary+2, pos)

	pos, err = file.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(5<<30)-3, pos)
	n, err := file.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	client.lens = nil
	big := make([]byte, 4096)
	n, err = file.ReadAt(big, 3<<30)
	require.NoError(t, err)
	assert.Equal(t, 4096, n)
	expectPattern(t, 3<<30, big)
	assert.Equal(t, []int{1024, 1024, 1024, 1024}, client.lens)
}

func TestFileReadRejectsOverlongReply(t *testing.T) {
	client := &patternClient{size: 100, extra: 1}
	f, err := Open(context.Background(), "root://localhost//", WithClient(client), WithChunkSize(16))
	require.NoError(t, err)

	file, err := f.OpenMode("bad.bin", "r")
	require.NoError(t, err)
	defer file.Close()

	n, err := file.Read(make([]byte, 40))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, xerrors.CodeRemoteIO, xerrors.GetCode(err))
	assert.Contains(t, err.Error(), "17 bytes for a 16 byte read")

	_, err = file.ReadAt(make([]byte, 8), 0)
	assert.Equal(t, xerrors.CodeRemoteIO, xerrors.GetCode(err))
}

// tailWriter counts what it is given and keeps the last bytes.
type tailWriter struct {
	n    int64
	tail []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	const keep = 64
	w.n += int64(len(p))
	if len(p) >= keep {
		w.tail = append(w.tail[:0], p[len(p)-keep:]...)
	} else {
		w.tail = append(w.tail, p...)
		if len(w.tail) > keep {
			w.tail = w.tail[len(w.tail)-keep:]
		}
	}
	return len(p), nil
}

func TestFileReadToEndAcrossTwoGiB(t *testing.T) {
	if testing.Short() {
		t.Skip("streams more than 2 GiB")
	}

	const chunk = 256 << 10
	for _, size := range []int64{1<<31 - 7, 1<<31 + 7} {
		client := &patternClient{size: size}
		f, err := Open(context.Background(), "root://localhost//", WithClient(client), WithChunkSize(chunk))
		require.NoError(t, err)

		file, err := f.OpenMode("big.root", "r")
		require.NoError(t, err)

		var w tailWriter
		n, err := io.CopyBuffer(&w, file, make([]byte, 1<<20))
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, size, n)
		assert.Equal(t, size, w.n)
		expectPattern(t, size-int64(len(w.tail)), w.tail)

		for _, l := range client.lens {
			require.LessOrEqual(t, l, chunk)
		}
		require.NoError(t, file.Close())
	}
}

func TestFileCloseAfterContextCancel(t *testing.T) {
	f, srv := newTestFS(t)
	require.NoError(t, srv.WriteFile("/a.txt", []byte("abc")))

	ctx, cancel := context.WithCancel(context.Background())
	view := f.WithContext(ctx)
	r, err := view.OpenMode("a.txt", "r")
	require.NoError(t, err)
	w, err := view.OpenMode("b.txt", "w")
	require.NoError(t, err)
	_, err = w.Write([]byte("pending"))
	require.NoError(t, err)
	require.Equal(t, 2, srv.OpenHandles())

	cancel()
	require.NoError(t, r.Close())
	err = w.Close()
	assert.ErrorIs(t, err, context.Canceled, "the buffered write is not sent")
	assert.Len(t, srv.Calls(xrdtest.OpClose), 2)
	assert.Zero(t, srv.OpenHandles())
}

// plainCloseClient hands out files that cannot check their size at close.
type plainCloseClient struct {
	xrd.Client
}

func (c plainCloseClient) Open(ctx context.Context, p string, flags xrd.OpenFlags, mode xrd.AccessMode) (xrd.File, error) {
	rf, err := c.Client.Open(ctx, p, flags, mode)
	if err != nil {
		return nil, err
	}
	return struct{ xrd.File }{rf}, nil
}

func TestFileCloseSizeCheck(t *testing.T) {
	t.Run("checked by the server", func(t *testing.T) {
		f, srv := newTestFS(t)
		srv.ResetCalls()
		require.NoError(t, f.WriteFile("a.txt", []byte("payload"), 0o644))
		assert.Len(t, srv.Calls(xrdtest.OpClose), 1)
		assert.Empty(t, srv.Calls(xrdtest.OpStat), "no stat after a sized close")
	})

	t.Run("stat when the server cannot check", func(t *testing.T) {
		srv := xrdtest.NewServer()
		f, err := Open(context.Background(), "root://localhost//", WithClient(plainCloseClient{srv.Client()}))
		require.NoError(t, err)
		defer f.Close()

		require.NoError(t, f.WriteFile("a.txt", []byte("payload"), 0o644))
		assert.Len(t, srv.Calls(xrdtest.OpStat), 1)

		srv.LoseOnClose("/lost.txt")
		err = f.WriteFile("lost.txt", []byte("payload"), 0o644)
		assert.Equal(t, xerrors.CodeDataLoss, xerrors.GetCode(err))

		srv.ShrinkOnClose("/short.txt")
		err = f.WriteFile("short.txt", []byte("payload"), 0o644)
		assert.Equal(t, xerrors.CodeDataLoss, xerrors.GetCode(err))
		assert.Contains(t, err.Error(), "expected 7")
		assert.Zero(t, srv.OpenHandles())
	})
}
