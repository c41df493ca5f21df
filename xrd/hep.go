package xrd

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"go-hep.org/x/hep/xrootd"
	"go-hep.org/x/hep/xrootd/xrdfs"
	"go-hep.org/x/hep/xrootd/xrdproto"
	"go-hep.org/x/hep/xrootd/xrdproto/ping"
	"go-hep.org/x/hep/xrootd/xrdproto/query"
)

// DialHEP establishes a session with go-hep's pure-Go xrootd client.
//
// ConnectionWindow bounds each connection attempt and ConnectionRetry the
// number of attempts. RequestTimeout, when set, bounds every later call.
//
// go-hep cannot attach login parameters to the session, so a session
// carrying a query fails with ErrUnsupported instead of connecting without
// it.
func DialHEP(ctx context.Context, s Session) (Client, error) {
	if len(s.Query) > 0 {
		keys := make([]string, 0, len(s.Query))
		for k := range s.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, NewStatus(ErrUnsupported, "session query parameters not supported by this transport: %s",
			strings.Join(keys, ", "))
	}

	attempts := s.ConnectionRetry
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		dctx, cancel := withTimeout(ctx, s.ConnectionWindow)
		cli, err := xrootd.NewClient(dctx, s.Address, s.User)
		cancel()
		if err == nil {
			return &hepClient{cli: cli, fs: cli.FS(), timeout: s.RequestTimeout}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if s.TimeoutResolution > 0 && i+1 < attempts {
			select {
			case <-ctx.Done():
			case <-time.After(s.TimeoutResolution):
			}
		}
	}
	return nil, hepError(lastErr)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// hepError lifts server errors into *Status; transport errors pass through.
func hepError(err error) error {
	if err == nil {
		return nil
	}
	var se xrdproto.ServerError
	if errors.As(err, &se) {
		return &Status{Code: int(se.Code), Message: se.Message, Err: err}
	}
	var sep *xrdproto.ServerError
	if errors.As(err, &sep) && sep != nil {
		return &Status{Code: int(sep.Code), Message: sep.Message, Err: err}
	}
	return err
}

func statInfo(es xrdfs.EntryStat) StatInfo {
	return StatInfo{
		Size:    es.EntrySize,
		ModTime: time.Unix(es.Mtime, 0).UTC(),
		Flags:   StatFlags(es.Flags),
	}
}

type hepClient struct {
	cli     *xrootd.Client
	fs      xrdfs.FileSystem
	timeout time.Duration
}

var _ Client = (*hepClient)(nil)

func (c *hepClient) Open(ctx context.Context, path string, flags OpenFlags, mode AccessMode) (File, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	f, err := c.fs.Open(ctx, path, xrdfs.OpenMode(mode), xrdfs.OpenOptions(flags))
	if err != nil {
		return nil, hepError(err)
	}
	return &hepFile{f: f, timeout: c.timeout}, nil
}

func (c *hepClient) Stat(ctx context.Context, path string) (StatInfo, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	es, err := c.fs.Stat(ctx, path)
	if err != nil {
		return StatInfo{}, hepError(err)
	}
	return statInfo(es), nil
}

func (c *hepClient) DirList(ctx context.Context, path string) ([]DirEntry, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	list, err := c.fs.Dirlist(ctx, path)
	if err != nil {
		return nil, hepError(err)
	}
	out := make([]DirEntry, 0, len(list))
	for _, es := range list {
		out = append(out, DirEntry{Name: es.EntryName, StatInfo: statInfo(es)})
	}
	return out, nil
}

func (c *hepClient) Mkdir(ctx context.Context, path string, mode AccessMode, recursive bool) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	if recursive {
		return hepError(c.fs.MkdirAll(ctx, path, xrdfs.OpenMode(mode)))
	}
	return hepError(c.fs.Mkdir(ctx, path, xrdfs.OpenMode(mode)))
}

func (c *hepClient) Rm(ctx context.Context, path string) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return hepError(c.fs.RemoveFile(ctx, path))
}

func (c *hepClient) Rmdir(ctx context.Context, path string) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return hepError(c.fs.RemoveDir(ctx, path))
}

func (c *hepClient) Mv(ctx context.Context, src, dst string) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return hepError(c.fs.Rename(ctx, src, dst))
}

// Checksum sends a kXR_query for the stored checksum of path.
func (c *hepClient) Checksum(ctx context.Context, path string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	var resp query.Response
	req := query.Request{Query: query.Checksum, Args: []byte(path)}
	if _, err := c.cli.Send(ctx, &resp, &req); err != nil {
		return "", hepError(err)
	}
	return strings.TrimSpace(strings.TrimRight(string(resp.Data), "\x00")), nil
}

// Ping sends kXR_ping.
func (c *hepClient) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.cli.Send(ctx, nil, &ping.Request{})
	return hepError(err)
}

func (c *hepClient) Close() error {
	return hepError(c.cli.Close())
}

type hepFile struct {
	f       xrdfs.File
	timeout time.Duration
}

var _ VerifyingCloser = (*hepFile)(nil)

func (h *hepFile) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	n, err := h.f.ReadAtContext(ctx, p, off)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, hepError(err)
}

func (h *hepFile) WriteAt(ctx context.Context, p []byte, off int64) error {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	return hepError(h.f.WriteAtContext(ctx, p, off))
}

func (h *hepFile) Stat(ctx context.Context) (StatInfo, error) {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	es, err := h.f.Stat(ctx)
	if err != nil {
		return StatInfo{}, hepError(err)
	}
	return statInfo(es), nil
}

func (h *hepFile) Truncate(ctx context.Context, size int64) error {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	return hepError(h.f.Truncate(ctx, size))
}

func (h *hepFile) Sync(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	return hepError(h.f.Sync(ctx))
}

func (h *hepFile) Close(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	return hepError(h.f.Close(ctx))
}

// CloseVerify closes the file, asking the server to check its final size.
func (h *hepFile) CloseVerify(ctx context.Context, size int64) error {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()
	return hepError(h.f.CloseVerify(ctx, size))
}
