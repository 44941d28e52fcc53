package checksum_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/byte4ever/export_sync/sync/bundle"
	"github.com/byte4ever/export_sync/sync/checksum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBundle(
	t *testing.T,
	files map[string]string,
) *bundle.Bundle {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(
			t, os.MkdirAll(filepath.Dir(path), 0o750),
		)
		require.NoError(
			t,
			os.WriteFile(path, []byte(content), 0o600),
		)
	}

	bu, err := bundle.Open(dir)
	require.NoError(t, err)

	return bu
}

func TestBuild_full_bundle(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"body.html":          "<p>Hi</p>",
		"metadata.json":      `{"id":1,"title":"Hi"}`,
		"comments.json":      "[]",
		"media-mapping.json": "{}",
		"checksums.json":     "{}",
		"media/photo.jpg":    "jpegbytes",
	})

	var builder checksum.Builder

	set, err := builder.Build(context.Background(), bu)
	require.NoError(t, err)

	assert.Equal(t, checksum.Version, set.Version)
	assert.False(t, set.Generated.IsZero())

	assert.Len(t, set.Files, 3)
	assert.Contains(t, set.Files, "body.html")
	assert.Contains(t, set.Files, "metadata.json")
	assert.Contains(t, set.Files, "comments.json")
	assert.NotContains(t, set.Files, "media-mapping.json")
	assert.NotContains(t, set.Files, "checksums.json")

	require.NotNil(t, set.Media)
	assert.Contains(t, set.Media, "photo.jpg")

	assert.Len(t, set.Combined, 64)
}

func TestBuild_no_media_subdirectory(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"body.html": "<p>Hi</p>",
	})

	var builder checksum.Builder

	set, err := builder.Build(context.Background(), bu)
	require.NoError(t, err)

	assert.Nil(t, set.Media)
}

func TestBuild_empty_media_subdirectory(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"body.html": "<p>Hi</p>",
	})

	require.NoError(t, os.MkdirAll(
		filepath.Join(bu.Root(), "media"), 0o750,
	))

	var builder checksum.Builder

	set, err := builder.Build(context.Background(), bu)
	require.NoError(t, err)

	assert.NotNil(t, set.Media)
	assert.Empty(t, set.Media)
}

func TestBuild_volatile_metadata_fields_ignored(t *testing.T) {
	t.Parallel()

	first := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"id":1,"title":"Hi","date":"2024-01-01"}`,
	})

	second := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"id":99,"title":"Hi","date":"2024-06-30"}`,
	})

	var builder checksum.Builder

	setA, err := builder.Build(context.Background(), first)
	require.NoError(t, err)

	setB, err := builder.Build(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(
		t,
		setA.Files["metadata.json"],
		setB.Files["metadata.json"],
	)
	assert.Equal(
		t,
		setA.Files["body.html"],
		setB.Files["body.html"],
	)
	assert.Equal(t, setA.Combined, setB.Combined)
}

func TestBuild_title_change_changes_combined(t *testing.T) {
	t.Parallel()

	first := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"id":1,"title":"Hi"}`,
	})

	second := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"id":1,"title":"Hello"}`,
	})

	var builder checksum.Builder

	setA, err := builder.Build(context.Background(), first)
	require.NoError(t, err)

	setB, err := builder.Build(context.Background(), second)
	require.NoError(t, err)

	assert.NotEqual(
		t,
		setA.Files["metadata.json"],
		setB.Files["metadata.json"],
	)
	assert.NotEqual(t, setA.Combined, setB.Combined)
}

func TestBuild_identical_bundles_same_combined(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"body.html":       "<p>Hi</p>",
		"metadata.json":   `{"title":"Hi"}`,
		"acf.json":        `{"layout":"wide"}`,
		"media/photo.jpg": "jpegbytes",
	}

	var builder checksum.Builder

	setA, err := builder.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	setB, err := builder.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	assert.Equal(t, setA.Combined, setB.Combined)
}

func TestBuild_extra_exclude_keys(t *testing.T) {
	t.Parallel()

	first := buildBundle(t, map[string]string{
		"metadata.json": `{"title":"Hi","slug":"hi-1"}`,
	})

	second := buildBundle(t, map[string]string{
		"metadata.json": `{"title":"Hi","slug":"hi-2"}`,
	})

	builder := checksum.Builder{
		ExcludeKeys: []string{"slug"},
	}

	setA, err := builder.Build(context.Background(), first)
	require.NoError(t, err)

	setB, err := builder.Build(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, setA.Combined, setB.Combined)
}

func TestBuild_malformed_metadata_aborts(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"title":`,
	})

	var builder checksum.Builder

	set, err := builder.Build(context.Background(), bu)

	assert.Error(t, err)
	assert.Nil(t, set)
}

func TestBuild_unreadable_auxiliary_aborts(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"title":"Hi"}`,
	})

	// A dangling symlink survives the directory listing but
	// fails the read, like a file vanishing between listing
	// and reading. The whole build must abort, not skip it.
	require.NoError(t, os.Symlink(
		filepath.Join(bu.Root(), "gone"),
		filepath.Join(bu.Root(), "broken.json"),
	))

	var builder checksum.Builder

	set, err := builder.Build(context.Background(), bu)

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, set)
}

func TestBuild_cancelled_context(t *testing.T) {
	t.Parallel()

	bu := buildBundle(t, map[string]string{
		"media/photo.jpg": "jpegbytes",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var builder checksum.Builder

	set, err := builder.Build(ctx, bu)

	assert.Error(t, err)
	assert.Nil(t, set)
}

func TestBuild_parallel_media_matches_sequential(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"body.html":     "<p>Hi</p>",
		"media/a.jpg":   "aaa",
		"media/b.jpg":   "bbb",
		"media/c.jpg":   "ccc",
		"media/d.jpg":   "ddd",
		"metadata.json": `{"title":"Hi"}`,
	}

	sequential := checksum.Builder{MediaParallelism: 1}
	parallel := checksum.Builder{MediaParallelism: 4}

	setA, err := sequential.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	setB, err := parallel.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	assert.Equal(t, setA.Files, setB.Files)
	assert.Equal(t, setA.Media, setB.Media)
	assert.Equal(t, setA.Combined, setB.Combined)
}

func TestBuild_directory_order_stable_per_bundle(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"body.html":     "<p>Hi</p>",
		"metadata.json": `{"title":"Hi"}`,
	}

	legacy := checksum.Builder{
		Order: checksum.OrderDirectory,
	}

	setA, err := legacy.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	setB, err := legacy.Build(
		context.Background(), buildBundle(t, contents),
	)
	require.NoError(t, err)

	assert.Equal(t, setA.Combined, setB.Combined)
}
