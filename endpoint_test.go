package xrootd

import (
	"io/fs"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/jmgilman/go/fs/xrootd/errors"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		extra   url.Values
		want    Endpoint
		str     string
		wantErr bool
	}{
		{
			name: "default port",
			raw:  "root://eos.example.org//eos/data",
			want: Endpoint{Scheme: "root", Host: "eos.example.org", Port: 1094, BasePath: "/eos/data"},
			str:  "root://eos.example.org:1094//eos/data",
		},
		{
			name: "user and port",
			raw:  "root://jdoe@eos.example.org:2094//eos/data/",
			want: Endpoint{Scheme: "root", Host: "eos.example.org", Port: 2094, User: "jdoe", BasePath: "/eos/data"},
			str:  "root://jdoe@eos.example.org:2094//eos/data",
		},
		{
			name: "tls scheme",
			raw:  "ROOTS://eos.example.org//",
			want: Endpoint{Scheme: "roots", Host: "eos.example.org", Port: 1094, BasePath: "/"},
			str:  "roots://eos.example.org:1094//",
		},
		{
			name: "cleaned base path",
			raw:  "root://localhost//data/../etc//x",
			want: Endpoint{Scheme: "root", Host: "localhost", Port: 1094, BasePath: "/etc/x"},
			str:  "root://localhost:1094//etc/x",
		},
		{
			name: "no base path",
			raw:  "root://localhost",
			want: Endpoint{Scheme: "root", Host: "localhost", Port: 1094, BasePath: "/"},
			str:  "root://localhost:1094//",
		},
		{
			name:  "query",
			raw:   "root://localhost//data?xrd.wantprot=krb5",
			extra: url.Values{"authz": {"token"}},
			want: Endpoint{
				Scheme: "root", Host: "localhost", Port: 1094, BasePath: "/data",
				query: url.Values{"xrd.wantprot": {"krb5"}, "authz": {"token"}},
			},
			str: "root://localhost:1094//data?authz=token&xrd.wantprot=krb5",
		},
		{name: "conflicting query", raw: "root://localhost//?a=1", extra: url.Values{"a": {"2"}}, wantErr: true},
		{name: "wrong scheme", raw: "https://localhost//data", wantErr: true},
		{name: "missing host", raw: "root:///data", wantErr: true},
		{name: "bad port", raw: "root://localhost:99999//data", wantErr: true},
		{name: "non-numeric port", raw: "root://localhost:abc//data", wantErr: true},
		{name: "nul in path", raw: "root://localhost//data%00x", wantErr: true},
		{name: "bad query", raw: "root://localhost//data?a=%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw, tt.extra)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, fs.ErrInvalid)
				assert.Equal(t, xerrors.CodeInvalidInput, xerrors.GetCode(err))
				assert.Equal(t, tt.raw, xerrors.GetContext(err)["url"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestEndpointAddress(t *testing.T) {
	ep, err := ParseURL("root://eos.example.org//data", nil)
	require.NoError(t, err)
	assert.Equal(t, "eos.example.org:1094", ep.Address())

	ep, err = ParseURL("root://[::1]:2094//data", nil)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:2094", ep.Address())
}

func TestEndpointQueryIsCopied(t *testing.T) {
	ep, err := ParseURL("root://localhost//data?a=1", nil)
	require.NoError(t, err)

	q := ep.Query()
	q.Set("a", "2")
	q.Set("b", "3")
	assert.Equal(t, "1", ep.Query().Get("a"))
	assert.Equal(t, "root://localhost:1094//data?a=1", ep.String())

	ep, err = ParseURL("root://localhost//data", nil)
	require.NoError(t, err)
	assert.Nil(t, ep.Query())
}

func TestEndpointWithBase(t *testing.T) {
	ep, err := ParseURL("root://localhost//data?a=1", nil)
	require.NoError(t, err)

	sub := ep.withBase("/data/run1")
	assert.Equal(t, "root://localhost:1094//data/run1?a=1", sub.String())
	assert.Equal(t, "/data", ep.BasePath)
}
