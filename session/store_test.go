package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tmdbfav/tmdb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "session.json"), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore("", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session path is required")
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tmdb.Session{}, session)
	assert.False(t, session.LoggedIn())
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	want := tmdb.Session{RequestToken: "T1", SessionID: "S1", UserID: 42}

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	// Saving again replaces the previous session
	require.NoError(t, store.Save(tmdb.Session{SessionID: "S2", UserID: 7}))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, tmdb.Session{SessionID: "S2", UserID: 7}, got)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	// Nothing stored yet
	require.NoError(t, store.Clear())

	require.NoError(t, store.Save(tmdb.Session{SessionID: "S1", UserID: 42}))
	require.NoError(t, store.Clear())

	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	session, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tmdb.Session{}, session)
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	session, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
	assert.Equal(t, tmdb.Session{}, session)
}
