package xrdtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fs/xrootd/xrd"
)

func errno(t *testing.T, err error) int {
	t.Helper()
	st, ok := xrd.AsStatus(err)
	require.True(t, ok, "expected *xrd.Status, got %v", err)
	return st.Code
}

func TestServer_OpenErrnos(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	require.NoError(t, srv.WriteFile("/data/a.txt", []byte("hello")))
	cli := srv.Client()

	_, err := cli.Open(ctx, "/missing", xrd.OpenRead, 0)
	assert.Equal(t, xrd.ErrNotFound, errno(t, err))

	_, err = cli.Open(ctx, "/data", xrd.OpenRead, 0)
	assert.Equal(t, xrd.ErrIsDirectory, errno(t, err))

	_, err = cli.Open(ctx, "/data/a.txt", xrd.OpenNew, xrd.ModeDefaultFile)
	assert.Equal(t, xrd.ErrItExists, errno(t, err))

	_, err = cli.Open(ctx, "/nodir/b.txt", xrd.OpenDelete, xrd.ModeDefaultFile)
	assert.Equal(t, xrd.ErrNotFound, errno(t, err))

	f, err := cli.Open(ctx, "/nodir/b.txt", xrd.OpenDelete|xrd.OpenMkpath, xrd.ModeDefaultFile)
	require.NoError(t, err)
	require.NoError(t, f.Close(ctx))
	assert.True(t, srv.Exists("/nodir/b.txt"))
}

func TestServer_ReadWrite(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	cli := srv.Client()

	f, err := cli.Open(ctx, "/f", xrd.OpenDelete, xrd.ModeDefaultFile)
	require.NoError(t, err)
	require.NoError(t, f.WriteAt(ctx, []byte("abc"), 0))
	require.NoError(t, f.WriteAt(ctx, []byte("xyz"), 5))
	assert.Equal(t, 1, srv.OpenHandles())

	buf := make([]byte, 16)
	n, err := f.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc\x00\x00xyz"), buf[:n])

	n, err = f.ReadAt(ctx, buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	srv.SetMaxReadSize(2)
	n, err = f.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.Close(ctx))
	assert.Equal(t, 0, srv.OpenHandles())

	err = f.Close(ctx)
	assert.Equal(t, xrd.ErrFileNotOpen, errno(t, err))
	assert.Equal(t, 0, srv.OpenHandles())
}

func TestServer_ReadOnlyHandleRejectsWrites(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	require.NoError(t, srv.WriteFile("/f", []byte("x")))

	f, err := srv.Client().Open(ctx, "/f", xrd.OpenRead, 0)
	require.NoError(t, err)
	defer f.Close(ctx)

	assert.Equal(t, xrd.ErrNotAuthorized, errno(t, f.WriteAt(ctx, []byte("y"), 0)))
}

func TestServer_Namespace(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	require.NoError(t, srv.WriteFile("/d/f", []byte("x")))
	cli := srv.Client()

	assert.Equal(t, xrd.ErrItExists, errno(t, cli.Mkdir(ctx, "/d", 0, false)))
	require.NoError(t, cli.Mkdir(ctx, "/d", 0, true))
	assert.Equal(t, xrd.ErrNotFound, errno(t, cli.Mkdir(ctx, "/x/y", 0, false)))
	require.NoError(t, cli.Mkdir(ctx, "/x/y", 0, true))

	st, ok := xrd.AsStatus(cli.Rmdir(ctx, "/d"))
	require.True(t, ok)
	assert.Equal(t, xrd.ErrFSError, st.Code)
	assert.Contains(t, st.Message, "not empty")

	st, ok = xrd.AsStatus(cli.Rmdir(ctx, "/d/f"))
	require.True(t, ok)
	assert.Contains(t, st.Message, "not a directory")

	assert.Equal(t, xrd.ErrIsDirectory, errno(t, cli.Rm(ctx, "/d")))

	_, err := cli.DirList(ctx, "/d/f")
	assert.Equal(t, xrd.ErrFSError, errno(t, err))

	require.NoError(t, cli.Mv(ctx, "/d/f", "/x/g"))
	assert.Equal(t, xrd.ErrItExists, errno(t, cli.Mv(ctx, "/x/g", "/x/y")))

	entries, err := cli.DirList(ctx, "/x")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "y", entries[0].Name)
	assert.True(t, entries[0].IsDir())
	assert.Equal(t, int64(1), entries[1].Size)

	require.NoError(t, cli.Rm(ctx, "/x/g"))
	require.NoError(t, cli.Rmdir(ctx, "/x/y"))
	assert.False(t, srv.Exists("/x/y"))
}

func TestServer_FaultsAndCalls(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	require.NoError(t, srv.WriteFile("/f", []byte("x")))
	srv.Fail(OpStat, "/f", &xrd.Status{Code: xrd.ErrNotAuthorized, Message: "denied"})

	_, err := srv.Client().Stat(ctx, "/f")
	assert.Equal(t, xrd.ErrNotAuthorized, errno(t, err))
	assert.Len(t, srv.Calls(OpStat), 1)

	srv.ClearFaults()
	_, err = srv.Client().Stat(ctx, "/f")
	assert.NoError(t, err)
}

func TestServer_LoseOnClose(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	srv.LoseOnClose("/f")

	f, err := srv.Client().Open(ctx, "/f", xrd.OpenDelete, xrd.ModeDefaultFile)
	require.NoError(t, err)
	require.NoError(t, f.WriteAt(ctx, []byte("data"), 0))
	require.NoError(t, f.Close(ctx))

	assert.False(t, srv.Exists("/f"))
}

func TestServer_DialRecordsSession(t *testing.T) {
	srv := NewServer()
	_, err := srv.Dial(context.Background(), xrd.Session{Address: "localhost:1094"})
	require.NoError(t, err)

	sessions := srv.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "localhost:1094", sessions[0].Address)
}

func TestServer_Checksum(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	require.NoError(t, srv.WriteFile("/c.txt", []byte("hello world")))
	cli := srv.Client()

	sum, err := cli.Checksum(ctx, "/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "adler32 1a0b045d", sum)

	_, err = cli.Checksum(ctx, "/missing")
	assert.Equal(t, xrd.ErrNotFound, errno(t, err))
	_, err = cli.Checksum(ctx, "/")
	assert.Equal(t, xrd.ErrIsDirectory, errno(t, err))
}

func TestServer_CloseVerify(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()
	cli := srv.Client()

	open := func(p string) xrd.VerifyingCloser {
		f, err := cli.Open(ctx, p, xrd.OpenDelete, xrd.ModeDefaultFile)
		require.NoError(t, err)
		require.NoError(t, f.WriteAt(ctx, []byte("abcd"), 0))
		vc, ok := f.(xrd.VerifyingCloser)
		require.True(t, ok)
		return vc
	}

	require.NoError(t, open("/ok.txt").CloseVerify(ctx, 4))
	assert.Equal(t, xrd.ErrIOError, errno(t, open("/wrong.txt").CloseVerify(ctx, 5)))

	srv.ShrinkOnClose("/short.txt")
	assert.Equal(t, xrd.ErrIOError, errno(t, open("/short.txt").CloseVerify(ctx, 4)))
	srv.LoseOnClose("/lost.txt")
	assert.Equal(t, xrd.ErrIOError, errno(t, open("/lost.txt").CloseVerify(ctx, 4)))
	assert.Zero(t, srv.OpenHandles())
}
