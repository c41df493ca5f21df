package xrootd

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
	"github.com/jmgilman/go/fs/xrootd/internal/pathutil"
)

// Endpoint identifies a mounted remote namespace. It is immutable.
type Endpoint struct {
	Scheme   string
	Host     string
	Port     int
	User     string
	BasePath string
	query    url.Values
}

// ParseURL parses a root URL of the form
// root://[user@]host[:port]//base/path[?query]. extra is merged into the
// URL query; a key present in both fails. Errors match fs.ErrInvalid.
func ParseURL(raw string, extra url.Values) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, invalidURL(raw, "%v", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "root" && scheme != "roots" {
		return Endpoint{}, invalidURL(raw, "scheme must be root or roots")
	}
	if u.Hostname() == "" {
		return Endpoint{}, invalidURL(raw, "host is required")
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, invalidURL(raw, "bad port %q", p)
		}
	}

	if err := pathutil.Validate(u.Path); err != nil {
		return Endpoint{}, invalidURL(raw, "%v", err)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Endpoint{}, invalidURL(raw, "%v", err)
	}
	for k, v := range extra {
		if _, ok := query[k]; ok {
			return Endpoint{}, invalidURL(raw, "query field %q conflicts with field in url", k)
		}
		query[k] = append([]string(nil), v...)
	}

	ep := Endpoint{
		Scheme:   scheme,
		Host:     u.Hostname(),
		Port:     port,
		BasePath: pathutil.Normalize(u.Path),
	}
	if u.User != nil {
		ep.User = u.User.Username()
	}
	if len(query) > 0 {
		ep.query = query
	}
	return ep, nil
}

func invalidURL(raw, format string, args ...interface{}) error {
	return xerrors.WithContext(xerrors.Newf(xerrors.CodeInvalidInput, "invalid root url: "+format, args...), "url", raw)
}

// Query returns a copy of the connection-level query parameters.
func (e Endpoint) Query() url.Values {
	if e.query == nil {
		return nil
	}
	out := make(url.Values, len(e.query))
	for k, v := range e.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String renders the root URL with the query string exactly once.
func (e Endpoint) String() string {
	var b strings.Builder
	b.WriteString(e.Scheme)
	b.WriteString("://")
	if e.User != "" {
		b.WriteString(url.PathEscape(e.User))
		b.WriteByte('@')
	}
	b.WriteString(e.Address())
	b.WriteByte('/')
	b.WriteString(e.BasePath)
	if len(e.query) > 0 {
		b.WriteByte('?')
		b.WriteString(e.query.Encode())
	}
	return b.String()
}

// withBase returns a copy rooted at base.
func (e Endpoint) withBase(base string) Endpoint {
	e.BasePath = base
	e.query = e.Query()
	return e
}
