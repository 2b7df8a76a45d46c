package dynrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	r, err := Create()
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(r.Dir) })

	_, err = os.Stat(filepath.Join(r.Dir, "README.md"))
	assert.NoError(t, err)

	n, err := r.CommitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommitAll(t *testing.T) {
	r, err := Create()
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(r.Dir) })

	_, committed, err := r.CommitAll("nothing changed")
	require.NoError(t, err)
	assert.False(t, committed)

	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "src", "a.go"), []byte("package a\n"), 0644))
	require.NoError(t, os.Remove(filepath.Join(r.Dir, "README.md")))

	hash, committed, err := r.CommitAll("session changes")
	require.NoError(t, err)
	assert.True(t, committed)
	assert.False(t, hash.IsZero())

	n, err := r.CommitCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCleanup(t *testing.T) {
	r, err := Create()
	require.NoError(t, err)

	t.Setenv(KeepEnv, "true")
	require.NoError(t, r.Cleanup())
	_, err = os.Stat(r.Dir)
	assert.NoError(t, err)

	t.Setenv(KeepEnv, "")
	require.NoError(t, r.Cleanup())
	_, err = os.Stat(r.Dir)
	assert.True(t, os.IsNotExist(err))
}
