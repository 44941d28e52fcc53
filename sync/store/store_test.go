package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/byte4ever/export_sync/sync/checksum"
	"github.com/byte4ever/export_sync/sync/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_default_template(t *testing.T) {
	t.Parallel()

	st := store.Store{Root: "/data"}

	assert.Equal(
		t,
		filepath.Join("/data", "hello-world", "checksums.json"),
		st.Path("hello-world"),
	)
}

func TestPath_custom_template(t *testing.T) {
	t.Parallel()

	st := store.Store{
		Root:         "/data",
		PathTemplate: "digests/{slug}.json",
	}

	assert.Equal(
		t,
		filepath.Join("/data", "digests", "hello-world.json"),
		st.Path("hello-world"),
	)
}

func TestLoad_never_synced(t *testing.T) {
	t.Parallel()

	st := store.Store{Root: t.TempDir()}

	set, err := st.Load("hello-world")

	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestSave_and_Load_roundtrip(t *testing.T) {
	t.Parallel()

	st := store.Store{Root: t.TempDir()}

	set := &checksum.Set{
		Version: checksum.Version,
		Files:   map[string]string{"body.html": "aa"},
	}
	set.Recombine()

	require.NoError(t, st.Save("hello-world", set))

	loaded, err := st.Load("hello-world")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, set.Combined, loaded.Combined)
	assert.Equal(t, set.Files, loaded.Files)
}

func TestSave_leaves_no_temp_file(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	st := store.Store{Root: root}

	set := &checksum.Set{Version: checksum.Version}
	set.Recombine()

	require.NoError(t, st.Save("hello-world", set))

	_, err := os.Stat(
		st.Path("hello-world") + ".tmp",
	)

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_corrupt_set(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	st := store.Store{Root: root}

	path := st.Path("hello-world")
	require.NoError(
		t, os.MkdirAll(filepath.Dir(path), 0o750),
	)
	require.NoError(
		t, os.WriteFile(path, []byte("{"), 0o600),
	)

	_, err := st.Load("hello-world")

	assert.Error(t, err)
}
