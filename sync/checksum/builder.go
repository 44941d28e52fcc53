package checksum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/byte4ever/export_sync/sync/bundle"
	"github.com/byte4ever/export_sync/sync/canonical"
)

// Builder computes digest sets from content bundles. The zero
// value builds with sorted combined order and sequential media
// reads.
type Builder struct {
	// Order selects the combined-digest serialization order.
	Order Order

	// ExcludeKeys are extra top-level metadata keys excluded
	// from the metadata digest, in addition to the built-in
	// dynamic keys.
	ExcludeKeys []string

	// MediaParallelism is the number of concurrent media
	// digest workers. Values below 1 mean sequential.
	MediaParallelism int

	// Now supplies the generated timestamp; defaults to
	// time.Now.
	Now func() time.Time
}

// Build walks the bundle and returns its complete digest set.
// Any read or parse failure aborts the build: a partial set
// would carry a combined digest that does not reflect the true
// bundle state.
func (bd *Builder) Build(
	ctx context.Context,
	bu *bundle.Bundle,
) (*Set, error) {
	const errCtx = "building digest set"

	files := make(map[string]string)

	var fileOrder []string

	body, ok, err := bu.Body()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if ok {
		files[bundle.BodyFile] = canonical.DigestBytes(body)
		fileOrder = append(fileOrder, bundle.BodyFile)
	}

	raw, ok, err := bu.Metadata()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if ok {
		dg, metaErr := bd.metadataDigest(raw)
		if metaErr != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, metaErr,
			)
		}

		files[bundle.MetadataFile] = dg
		fileOrder = append(fileOrder, bundle.MetadataFile)
	}

	aux, err := bu.AuxiliaryFiles()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	// Auxiliary documents are digested as opaque bytes: only
	// the metadata document format is normalized.
	for _, name := range aux {
		data, readErr := bu.ReadFile(name)
		if readErr != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, readErr,
			)
		}

		files[name] = canonical.DigestBytes(data)
		fileOrder = append(fileOrder, name)
	}

	media, mediaOrder, err := bd.mediaDigests(ctx, bu)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	now := time.Now
	if bd.Now != nil {
		now = bd.Now
	}

	set := &Set{
		Version:   Version,
		Generated: now(),
		Files:     files,
		Media:     media,
	}

	if bd.Order == OrderDirectory {
		set.Combined = combine(
			files, fileOrder, media, mediaOrder,
		)
	} else {
		set.Recombine()
	}

	return set, nil
}

// metadataDigest parses the metadata document and digests its
// canonical form.
func (bd *Builder) metadataDigest(
	raw []byte,
) (string, error) {
	const errCtx = "digesting metadata"

	value, err := canonical.DecodeDocument(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	dg, err := canonical.DigestValue(
		value, bd.ExcludeKeys...,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return dg, nil
}

// mediaDigests digests every media file using a worker pool
// bounded by MediaParallelism. Reads are independent, so they
// may complete in any order; results are keyed by filename and
// the returned order is the listing order, so the combined
// digest input stays canonical.
func (bd *Builder) mediaDigests(
	ctx context.Context,
	bu *bundle.Bundle,
) (map[string]string, []string, error) {
	const errCtx = "digesting media"

	names, ok, err := bu.MediaFiles()
	if err != nil {
		return nil, nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if !ok {
		return nil, nil, nil
	}

	media := make(map[string]string, len(names))

	parallelism := bd.MediaParallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	sem := make(chan struct{}, parallelism)

	for _, name := range names {
		// Check for context cancellation.
		if ctx.Err() != nil {
			mu.Lock()
			errs = append(errs, ctx.Err())
			mu.Unlock()

			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(fn string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, readErr := bu.ReadMedia(fn)
			if readErr != nil {
				mu.Lock()
				errs = append(errs, readErr)
				mu.Unlock()

				return
			}

			dg := canonical.DigestBytes(data)

			mu.Lock()
			media[fn] = dg
			mu.Unlock()
		}(name)
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, nil, fmt.Errorf(
			"%s: %d errors, first: %w",
			errCtx, len(errs), errs[0],
		)
	}

	return media, names, nil
}
