package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()

	_, err := m.Load("best")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save("best", 50))
	v, err := m.Load("best")
	require.NoError(t, err)
	assert.Equal(t, 50, v)
}

func TestFileStoreRoundTripAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.json")

	fs, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = fs.Load("kardiumsnake-highscore")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, fs.Save("kardiumsnake-highscore", 120))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Load("kardiumsnake-highscore")
	require.NoError(t, err)
	assert.Equal(t, 120, v)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	fs, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = fs.Load("x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreRollsBackOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// the parent "directory" is a regular file, so flush must fail
	fs, err := NewFileStore(filepath.Join(blocker, "scores.json"))
	require.NoError(t, err)

	assert.Error(t, fs.Save("best", 10))
	_, err = fs.Load("best")
	assert.ErrorIs(t, err, ErrNotFound)
}
