// Package store persists digest sets on the local filesystem
// using a templated per-item path layout. A missing stored set
// is a normal condition ("never synced before"), not an error.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/export_sync/sync/checksum"
)

// DefaultPathTemplate is the layout used when none is
// configured: one checksums file per content item slug.
const DefaultPathTemplate = "{slug}/checksums.json"

// Store reads and writes digest sets under a root directory.
type Store struct {
	// Root is the store root directory.
	Root string

	// PathTemplate is the relative path layout. {slug} is
	// substituted with the content item slug; unknown
	// variables are preserved as-is.
	PathTemplate string
}

// Path returns the on-disk location of the digest set for
// slug.
func (st *Store) Path(slug string) string {
	tpl := st.PathTemplate
	if tpl == "" {
		tpl = DefaultPathTemplate
	}

	rel := fasttemplate.ExecuteStringStd(
		tpl, "{", "}",
		map[string]interface{}{"slug": slug},
	)

	return filepath.Join(st.Root, rel)
}

// Load reads the stored digest set for slug. It returns
// (nil, nil) when no set has been stored yet.
func (st *Store) Load(slug string) (*checksum.Set, error) {
	const errCtx = "loading stored digest set"

	path := st.Path(slug)

	if _, err := os.Stat(path); errors.Is(
		err, os.ErrNotExist,
	) {
		return nil, nil
	}

	set, err := checksum.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return set, nil
}

// Save writes the digest set for slug, creating parent
// directories as needed. The write goes through a temporary
// file and a rename so a crash never leaves a truncated set.
func (st *Store) Save(
	slug string,
	set *checksum.Set,
) error {
	const errCtx = "saving stored digest set"

	path := st.Path(slug)

	if err := os.MkdirAll(
		filepath.Dir(path), 0o750,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	tmp := path + ".tmp"

	if err := set.Save(tmp); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
