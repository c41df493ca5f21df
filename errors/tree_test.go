package errors

import (
	stderrors "errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeError_Empty(t *testing.T) {
	tree := NewTreeError("removetree", "/data")

	assert.Nil(t, tree.ErrOrNil())
	assert.Equal(t, 0, tree.Len())
	assert.False(t, tree.Failed("/data/a"))
}

func TestTreeError_AddIgnoresNil(t *testing.T) {
	tree := NewTreeError("copy", "/src")
	tree.Add("copy", "/src/a", nil)

	assert.Nil(t, tree.ErrOrNil())
}

func TestTreeError_NamesFirstFailure(t *testing.T) {
	tree := NewTreeError("removetree", "/data")
	tree.Add("remove", "/data/b", New(CodeForbidden, "permission denied"))
	tree.Add("remove", "/data/c", New(CodeNotFound, "gone"))

	err := tree.ErrOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "removetree /data: 2 leaf operation(s) failed")
	assert.Contains(t, err.Error(), "remove /data/b")
	assert.Contains(t, err.Error(), "and 1 more")
	assert.True(t, tree.Failed("/data/c"))
}

func TestTreeError_UnwrapsToLeaves(t *testing.T) {
	tree := NewTreeError("move", "/src")
	tree.Add("mv", "/src/a", New(CodeForbidden, "denied"))

	var err error = tree
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
	assert.False(t, stderrors.Is(err, fs.ErrNotExist))

	var leaf LeafError
	require.True(t, stderrors.As(err, &leaf))
	assert.Equal(t, "/src/a", leaf.Path)

	var target *TreeError
	require.True(t, stderrors.As(err, &target))
	assert.Equal(t, "move", target.Op)
}

func TestTreeError_ConcurrentAdd(t *testing.T) {
	tree := NewTreeError("removetree", "/data")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree.Add("remove", "/data/x", New(CodeRemoteIO, "x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tree.Len())
}
