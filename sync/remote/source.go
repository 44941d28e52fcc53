// Package remote fetches previously stored digest sets from a
// remote bundle repository. Export pipelines that commit
// content bundles to git hosting keep the checksums file next
// to each bundle; a Source retrieves it for drift comparison.
package remote

import (
	"context"

	"github.com/byte4ever/export_sync/sync/checksum"
)

// Pattern: Strategy -- swap hosting platform without
// changing drift detection logic.

// Source fetches the stored digest set for a content item
// slug. Implementations return (nil, nil) when no set exists
// for the slug: "never synced" is a normal condition.
type Source interface {
	FetchSet(
		ctx context.Context,
		slug string,
	) (*checksum.Set, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(
	ctx context.Context,
	slug string,
) (*checksum.Set, error)

// FetchSet delegates to the wrapped function.
func (f SourceFunc) FetchSet(
	ctx context.Context,
	slug string,
) (*checksum.Set, error) {
	return f(ctx, slug)
}
