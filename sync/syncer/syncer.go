// Package syncer orchestrates change detection for exported
// content items: it builds the fresh digest set for a bundle,
// loads the previously stored set, compares the two, and
// persists the fresh set when the content drifted.
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/byte4ever/export_sync/sync/bundle"
	"github.com/byte4ever/export_sync/sync/checksum"
	"github.com/byte4ever/export_sync/sync/drift"
	"github.com/byte4ever/export_sync/sync/report"
	"github.com/byte4ever/export_sync/sync/store"
)

// Run executes change detection for the bundle at bundleRoot,
// identified by slug in the digest store. It returns the drift
// result; unless DryRun is set, a changed bundle's fresh
// digest set replaces the stored one.
func Run(
	ctx context.Context,
	cfg Config,
	bundleRoot string,
	slug string,
) (drift.Result, error) {
	const errCtx = "syncing content item"

	order, err := cfg.order()
	if err != nil {
		return drift.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	// Step 1: Build the fresh digest set.
	bu, err := bundle.Open(bundleRoot)
	if err != nil {
		return drift.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	builder := checksum.Builder{
		Order:            order,
		ExcludeKeys:      cfg.ExcludeKeys,
		MediaParallelism: cfg.MediaParallelism,
	}

	fresh, err := builder.Build(ctx, bu)
	if err != nil {
		return drift.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	// Step 2: Load the stored digest set. The local store
	// wins; fall back to the remote source when configured.
	st := store.Store{
		Root:         cfg.StoreRoot,
		PathTemplate: cfg.PathTemplate,
	}

	stored, err := st.Load(slug)
	if err != nil {
		return drift.Result{}, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if stored == nil && cfg.Source != nil {
		stored, err = cfg.Source.FetchSet(ctx, slug)
		if err != nil {
			return drift.Result{}, fmt.Errorf(
				"%s: fetch remote set: %w",
				errCtx, err,
			)
		}
	}

	// Step 3: Compare.
	result := drift.Compare(fresh, stored)

	slog.Info(
		"compared digest sets",
		"slug", slug,
		"changed", result.Changed,
		"reason", result.Reason,
	)

	if !result.Changed {
		return result, nil
	}

	// Embed the changed-path list in the sync log so the
	// orchestrator can carry it into its commit message.
	slog.Info(
		"content drifted",
		"slug", slug,
		"report", report.Generate(result),
	)

	// Step 4: Persist the fresh set.
	if cfg.DryRun {
		slog.Info(
			"dry run: skipping digest set save",
			"slug", slug,
		)

		return result, nil
	}

	if err := st.Save(slug, fresh); err != nil {
		return result, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return result, nil
}
