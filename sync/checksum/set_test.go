package checksum_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/byte4ever/export_sync/sync/checksum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_and_Load_roundtrip(t *testing.T) {
	t.Parallel()

	set := &checksum.Set{
		Version: checksum.Version,
		Generated: time.Date(
			2024, 1, 1, 12, 0, 0, 0, time.UTC,
		),
		Files: map[string]string{
			"body.html":     "aa",
			"metadata.json": "bb",
		},
		Media: map[string]string{
			"photo.jpg": "cc",
		},
	}
	set.Recombine()

	path := filepath.Join(t.TempDir(), "checksums.json")
	require.NoError(t, set.Save(path))

	loaded, err := checksum.Load(path)
	require.NoError(t, err)

	assert.Equal(t, set, loaded)
}

func TestSave_writes_indented_json(t *testing.T) {
	t.Parallel()

	set := &checksum.Set{
		Version: checksum.Version,
		Files:   map[string]string{"body.html": "aa"},
	}
	set.Recombine()

	path := filepath.Join(t.TempDir(), "checksums.json")
	require.NoError(t, set.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "\n  \"version\"")
}

func TestLoad_missing_file(t *testing.T) {
	t.Parallel()

	_, err := checksum.Load(
		filepath.Join(t.TempDir(), "nope.json"),
	)

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_malformed_json(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checksums.json")
	require.NoError(
		t, os.WriteFile(path, []byte("{"), 0o600),
	)

	_, err := checksum.Load(path)

	assert.Error(t, err)
}

func TestRecombine_sensitive_to_any_entry(t *testing.T) {
	t.Parallel()

	base := &checksum.Set{
		Files: map[string]string{
			"body.html": "aa",
		},
		Media: map[string]string{
			"photo.jpg": "cc",
		},
	}
	base.Recombine()

	fileChanged := &checksum.Set{
		Files: map[string]string{
			"body.html": "ab",
		},
		Media: map[string]string{
			"photo.jpg": "cc",
		},
	}
	fileChanged.Recombine()

	mediaChanged := &checksum.Set{
		Files: map[string]string{
			"body.html": "aa",
		},
		Media: map[string]string{
			"photo.jpg": "cd",
		},
	}
	mediaChanged.Recombine()

	assert.NotEqual(t, base.Combined, fileChanged.Combined)
	assert.NotEqual(t, base.Combined, mediaChanged.Combined)
}

func TestRecombine_ignores_insertion_order(t *testing.T) {
	t.Parallel()

	first := &checksum.Set{
		Files: map[string]string{
			"a.json": "01",
			"b.json": "02",
		},
	}
	first.Recombine()

	second := &checksum.Set{
		Files: map[string]string{
			"b.json": "02",
			"a.json": "01",
		},
	}
	second.Recombine()

	assert.Equal(t, first.Combined, second.Combined)
}

func TestRecombine_absent_media_equals_empty(t *testing.T) {
	t.Parallel()

	absent := &checksum.Set{
		Files: map[string]string{"body.html": "aa"},
	}
	absent.Recombine()

	empty := &checksum.Set{
		Files: map[string]string{"body.html": "aa"},
		Media: map[string]string{},
	}
	empty.Recombine()

	assert.Equal(t, absent.Combined, empty.Combined)
}
