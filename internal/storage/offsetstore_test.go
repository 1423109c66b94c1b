package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOffsetStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.json")
	store := NewFileOffsetStore(path)

	want := map[string]int64{
		`C:\Windows\System32\LogFiles\Firewall\pfirewall.log`: 123456,
		"/var/log/pfirewall.log":                              0,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Временный файл после записи не остаётся
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileOffsetStoreMissingFile(t *testing.T) {
	store := NewFileOffsetStore(filepath.Join(t.TempDir(), "nope.json"))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileOffsetStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.json")
	store := NewFileOffsetStore(path)

	require.NoError(t, store.Save(map[string]int64{"a.log": 10}))
	require.NoError(t, store.Save(map[string]int64{"a.log": 20}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a.log": 20}, got)
}

func TestFileOffsetStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.json")
	require.NoError(t, os.WriteFile(path, []byte("{битый json"), 0o644))

	_, err := NewFileOffsetStore(path).Load()
	assert.Error(t, err)
}
