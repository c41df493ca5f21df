package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformError_Error(t *testing.T) {
	err := New(CodeNotFound, "no such file")
	require.Equal(t, "[NOT_FOUND] no such file", err.Error())
}

func TestPlatformError_Error_WithCause(t *testing.T) {
	cause := stderrors.New("connection reset by peer")
	err := Wrap(cause, CodeNetwork, "dirlist failed")

	require.Contains(t, err.Error(), "[NETWORK_ERROR]")
	require.Contains(t, err.Error(), "dirlist failed")
	require.Contains(t, err.Error(), "connection reset by peer")
}

func TestPlatformError_Accessors(t *testing.T) {
	err := New(CodeDataLoss, "file vanished after close")

	assert.Equal(t, CodeDataLoss, err.Code())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Equal(t, "file vanished after close", err.Message())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
}

func TestPlatformError_Context_DefensiveCopy(t *testing.T) {
	err := WithContext(New(CodeNotFound, "missing"), "path", "/data/a.root")

	ctx := err.Context()
	ctx["path"] = "/tampered"

	require.Equal(t, "/data/a.root", err.Context()["path"])
}

func TestPlatformError_Unwrap_Chain(t *testing.T) {
	root := stderrors.New("root cause")
	inner := Wrap(root, CodeRemoteIO, "read failed")
	outer := Wrap(inner, CodeDataLoss, "close verification failed")

	require.True(t, stderrors.Is(outer, root))
	require.Equal(t, inner, outer.Unwrap())
}

func TestPlatformError_MatchesFSSentinels(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		target error
	}{
		{CodeNotFound, fs.ErrNotExist},
		{CodeAlreadyExists, fs.ErrExist},
		{CodeForbidden, fs.ErrPermission},
		{CodeUnauthorized, fs.ErrPermission},
		{CodeInvalidInput, fs.ErrInvalid},
		{CodeNotADirectory, fs.ErrInvalid},
		{CodeIsADirectory, fs.ErrInvalid},
		{CodeInvalidState, fs.ErrClosed},
		{CodeDirectoryNotEmpty, ErrNotEmpty},
		{CodeNotImplemented, stderrors.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x")
			assert.True(t, stderrors.Is(err, tt.target))

			wrapped := &fs.PathError{Op: "stat", Path: "/p", Err: err}
			assert.True(t, stderrors.Is(wrapped, tt.target))
		})
	}
}

func TestPlatformError_NoSentinelForRemoteFailures(t *testing.T) {
	for _, code := range []ErrorCode{CodeRemoteIO, CodeTimeout, CodeDataLoss, CodeUnknown} {
		err := New(code, "x")
		assert.False(t, stderrors.Is(err, fs.ErrNotExist), code)
		assert.False(t, stderrors.Is(err, fs.ErrInvalid), code)
		assert.False(t, stderrors.Is(err, fs.ErrPermission), code)
	}
}
