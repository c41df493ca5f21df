package xrootd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/errs"
	"github.com/jmgilman/go/fs/xrootd/xrd"
)

// Option adjusts the Config used by Open.
type Option func(*Config)

// WithQuery merges q into the URL query. A key already present in the URL
// makes Open fail.
func WithQuery(q url.Values) Option {
	return func(c *Config) {
		if c.Query == nil {
			c.Query = url.Values{}
		}
		for k, v := range q {
			c.Query[k] = append(c.Query[k], v...)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithDialer sets the function used to establish the session.
func WithDialer(d xrd.Dialer) Option {
	return func(c *Config) { c.Dialer = d }
}

// WithClient uses an established session. The filesystem does not close it.
func WithClient(client xrd.Client) Option {
	return func(c *Config) { c.Client = client }
}

// WithParallelism bounds concurrent leaf operations of bulk calls.
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

// WithChunkSize sets both the read and write chunk size.
func WithChunkSize(n int64) Option {
	return func(c *Config) {
		c.ReadChunkSize = n
		c.WriteChunkSize = n
	}
}

// WithBufferSize sets the per-handle write buffer.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithRegisterer registers the filesystem metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) { c.Registerer = reg }
}

// WithCreateBase creates the URL base path if it does not exist.
func WithCreateBase() Option {
	return func(c *Config) { c.CreateBase = true }
}

// WithVerifyChecksum enables the close-time checksum comparison.
func WithVerifyChecksum() Option {
	return func(c *Config) { c.VerifyChecksum = true }
}

// Open returns a filesystem rooted at rootURL, e.g.
// "root://eos.example.org//eos/user/data?xrd.wantprot=krb5".
func Open(ctx context.Context, rootURL string, opts ...Option) (*FS, error) {
	cfg := Config{URL: rootURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(ctx, cfg)
}

// New creates a filesystem from cfg. ctx bounds session setup and is the
// default context of remote calls; its cancellation does not close the
// filesystem.
func New(ctx context.Context, cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInvalidConfig, "invalid config")
	}
	cfg = cfg.withDefaults()

	ep, err := ParseURL(cfg.URL, cfg.Query)
	if err != nil {
		return nil, err
	}

	client, owned := cfg.Client, false
	if client == nil {
		client, err = cfg.Dialer(ctx, cfg.session(ep))
		if err != nil {
			return nil, errs.PathError("dial", ep.String(), errs.Translate("dial", ep.Address(), err))
		}
		owned = true
	}

	f := newFS(ctx, client, owned, ep, cfg)
	if cfg.CreateBase {
		if err := f.MkdirAll(".", 0); err != nil && !errors.Is(err, fs.ErrExist) {
			_ = f.Close()
			return nil, err
		}
	}
	f.logger.DebugContext(ctx, "filesystem opened", "url", ep.String())
	return f, nil
}
