// Package bundle provides read-only access to an exported
// content bundle: one main body document, one metadata
// document, auxiliary JSON documents, and media files under
// a media subdirectory.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known filenames inside a content bundle.
const (
	// BodyFile is the main body document.
	BodyFile = "body.html"

	// MetadataFile is the structured metadata document.
	MetadataFile = "metadata.json"

	// MediaMappingFile maps media filenames to their CMS
	// attachment entries. Reserved: never scanned as an
	// auxiliary document.
	MediaMappingFile = "media-mapping.json"

	// ChecksumsFile is the persisted digest set. Reserved:
	// never scanned as an auxiliary document.
	ChecksumsFile = "checksums.json"

	// MediaDir is the media subdirectory name.
	MediaDir = "media"
)

// ErrNotFound reports that the bundle root does not exist or
// is not a directory.
var ErrNotFound = errors.New("bundle not found")

// Bundle is a read-only view of one exported content item on
// disk.
type Bundle struct {
	root string
}

// Open validates that root exists and is a directory and
// returns a Bundle over it.
func Open(root string) (*Bundle, error) {
	const errCtx = "opening bundle"

	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, root, ErrNotFound,
		)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, root, ErrNotFound,
		)
	}

	return &Bundle{root: root}, nil
}

// Root returns the bundle root directory.
func (b *Bundle) Root() string {
	return b.root
}

// Body returns the raw main body document. The second return
// is false when the bundle has no body document.
func (b *Bundle) Body() ([]byte, bool, error) {
	return b.readOptional(BodyFile)
}

// Metadata returns the raw metadata document. The second
// return is false when the bundle has no metadata document.
func (b *Bundle) Metadata() ([]byte, bool, error) {
	return b.readOptional(MetadataFile)
}

// AuxiliaryFiles lists the JSON documents in the bundle root
// that are not reserved filenames, in lexicographic order.
func (b *Bundle) AuxiliaryFiles() ([]string, error) {
	const errCtx = "listing auxiliary files"

	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		if !strings.HasSuffix(name, ".json") {
			continue
		}

		if reserved(name) {
			continue
		}

		names = append(names, name)
	}

	return names, nil
}

// MediaFiles lists the regular files in the media
// subdirectory, in lexicographic order. The second return is
// false when the bundle has no media subdirectory.
func (b *Bundle) MediaFiles() ([]string, bool, error) {
	const errCtx = "listing media files"

	entries, err := os.ReadDir(
		filepath.Join(b.root, MediaDir),
	)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var names []string

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, true, nil
}

// ReadFile reads a file in the bundle root by name. A file
// that vanished between listing and reading surfaces as an
// os.ErrNotExist error: the caller must abort, not skip.
func (b *Bundle) ReadFile(name string) ([]byte, error) {
	const errCtx = "reading bundle file"

	data, err := os.ReadFile(
		filepath.Join(b.root, name),
	) //nolint:gosec // names come from the bundle listing
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return data, nil
}

// ReadMedia reads a file in the media subdirectory by name.
func (b *Bundle) ReadMedia(name string) ([]byte, error) {
	const errCtx = "reading media file"

	data, err := os.ReadFile(
		filepath.Join(b.root, MediaDir, name),
	) //nolint:gosec // names come from the bundle listing
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return data, nil
}

// reserved reports whether name is one of the three filenames
// excluded from auxiliary scanning: the metadata document, the
// media mapping, and the checksums file.
func reserved(name string) bool {
	switch name {
	case MetadataFile, MediaMappingFile, ChecksumsFile:
		return true
	default:
		return false
	}
}

func (b *Bundle) readOptional(
	name string,
) ([]byte, bool, error) {
	path := filepath.Join(b.root, name)

	if _, err := os.Stat(path); errors.Is(
		err, os.ErrNotExist,
	) {
		return nil, false, nil
	}

	data, err := b.ReadFile(name)
	if err != nil {
		return nil, false, err
	}

	return data, true, nil
}
