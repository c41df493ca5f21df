package xrootd

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmgilman/go/fs/xrootd/xrd"
)

const (
	// DefaultChunkSize bounds a single remote read or write call.
	DefaultChunkSize = 64 << 20
	// MaxChunkSize is the largest transfer a single call may request; some
	// servers treat the length as a signed 32-bit integer.
	MaxChunkSize = math.MaxInt32
	// DefaultBufferSize is the write buffer of a file handle.
	DefaultBufferSize = 64 << 10
	// DefaultParallelism bounds concurrent leaf operations of bulk calls.
	DefaultParallelism = 8
	// DefaultPort is the standard xrootd port.
	DefaultPort = 1094
)

// Config holds XRootD filesystem configuration.
type Config struct {
	// URL is the root URL, e.g. "root://eos.example.org//eos/data?xrd.wantprot=krb5".
	URL string `env:"XROOTDFS_URL"`

	// User is the login name sent to the server. Defaults to the URL user.
	User string `env:"XROOTDFS_USER"`

	// ReadChunkSize bounds a single remote read call.
	// Default: 64 MiB. Must be in [1, MaxChunkSize].
	ReadChunkSize int64 `env:"XROOTDFS_READ_CHUNK_SIZE,default:67108864"`

	// WriteChunkSize bounds a single remote write call.
	// Default: 64 MiB. Must be in [1, MaxChunkSize].
	WriteChunkSize int64 `env:"XROOTDFS_WRITE_CHUNK_SIZE,default:67108864"`

	// BufferSize is the per-handle write buffer. Writes smaller than the
	// buffer are coalesced. Default: 64 KiB.
	BufferSize int `env:"XROOTDFS_BUFFER_SIZE,default:65536"`

	// Parallelism bounds concurrent leaf operations in Copy, Move and
	// RemoveTree. Default: 8.
	Parallelism int `env:"XROOTDFS_PARALLELISM,default:8"`

	// SkipCloseVerify disables the stat issued after closing a written file.
	SkipCloseVerify bool `env:"XROOTDFS_SKIP_CLOSE_VERIFY,default:false"`

	// VerifyChecksum re-reads files written sequentially from offset zero
	// after close and compares their xxhash64 digest.
	VerifyChecksum bool `env:"XROOTDFS_VERIFY_CHECKSUM,default:false"`

	// CreateBase creates the URL base path when the filesystem is opened.
	CreateBase bool `env:"XROOTDFS_CREATE_BASE,default:false"`

	// Client knobs, in seconds, passed opaquely to the transport.
	RequestTimeout    int `env:"XRD_REQUESTTIMEOUT,default:0"`
	TimeoutResolution int `env:"XRD_TIMEOUTRESOLUTION,default:0"`
	ConnectionWindow  int `env:"XRD_CONNECTIONWINDOW,default:0"`
	ConnectionRetry   int `env:"XRD_CONNECTIONRETRY,default:0"`

	// Query is merged into the URL query string. A key present in both is
	// rejected.
	Query url.Values

	// Logger receives structured logs. Default: discard.
	Logger *slog.Logger

	// Client is an optional established session. When set, Dialer is not
	// used and Close does not close the session.
	Client xrd.Client

	// Dialer establishes the session. Default: xrd.DialHEP.
	Dialer xrd.Dialer

	// Registerer receives the filesystem metrics. Default: none.
	Registerer prometheus.Registerer
}

// LoadConfig reads a Config from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := config.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// validate checks if the configuration is valid. Zero values mean "use the
// default" and are accepted.
func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.ReadChunkSize < 0 || c.ReadChunkSize > MaxChunkSize {
		return fmt.Errorf("read chunk size %d out of range [1, %d]", c.ReadChunkSize, MaxChunkSize)
	}
	if c.WriteChunkSize < 0 || c.WriteChunkSize > MaxChunkSize {
		return fmt.Errorf("write chunk size %d out of range [1, %d]", c.WriteChunkSize, MaxChunkSize)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must not be negative")
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}
	if c.RequestTimeout < 0 || c.TimeoutResolution < 0 || c.ConnectionWindow < 0 || c.ConnectionRetry < 0 {
		return fmt.Errorf("xrootd client settings must not be negative")
	}
	return nil
}

// withDefaults returns a copy with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.ReadChunkSize == 0 {
		c.ReadChunkSize = DefaultChunkSize
	}
	if c.WriteChunkSize == 0 {
		c.WriteChunkSize = DefaultChunkSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Parallelism == 0 {
		c.Parallelism = DefaultParallelism
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Dialer == nil {
		c.Dialer = xrd.DialHEP
	}
	return c
}

// session builds the transport session for ep.
func (c Config) session(ep Endpoint) xrd.Session {
	user := c.User
	if user == "" {
		user = ep.User
	}
	return xrd.Session{
		Address:           ep.Address(),
		User:              user,
		Query:             ep.Query(),
		RequestTimeout:    seconds(c.RequestTimeout),
		TimeoutResolution: seconds(c.TimeoutResolution),
		ConnectionWindow:  seconds(c.ConnectionWindow),
		ConnectionRetry:   c.ConnectionRetry,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
