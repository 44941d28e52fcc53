// Command content_sync detects drift for one exported content
// bundle. It builds the bundle's fresh digest set, compares it
// against the stored set (local store first, then an optional
// remote bundle repository), reports the result, and persists
// the fresh set when the content changed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/export_sync/sync/remote"
	"github.com/byte4ever/export_sync/sync/remote/github"
	"github.com/byte4ever/export_sync/sync/remote/gitlab"
	"github.com/byte4ever/export_sync/sync/syncer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running content_sync"

	bundleRoot := flag.String(
		"bundle", "",
		"Content bundle root directory",
	)
	slug := flag.String(
		"slug", "",
		"Content item slug in the digest store",
	)
	configFile := flag.String(
		"config", "",
		"Syncer YAML config file",
	)

	// Overrides for config file settings.
	storeRoot := flag.String(
		"store_root", "",
		"Digest store root directory",
	)
	combinedOrder := flag.String(
		"combined_order", "",
		"Combined digest ordering: sorted or directory",
	)
	mediaParallelism := flag.Int(
		"media_parallelism", 0,
		"Number of concurrent media digest workers",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Skip persisting the fresh digest set",
	)

	// Remote source selection.
	remoteServer := flag.String(
		"remote", "",
		"Remote bundle repository: github, gitlab, "+
			"or empty for local store only",
	)

	// GitHub-specific flags.
	ghRepoOwner := flag.String(
		"github_repo_owner", "",
		"GitHub repository owner",
	)
	ghRepo := flag.String(
		"github_repo", "",
		"GitHub repository name",
	)
	ghToken := flag.String(
		"github_access_token", "",
		"GitHub personal access token",
	)
	ghEnterprise := flag.String(
		"github_enterprise_host", "",
		"GitHub Enterprise hostname",
	)

	// GitLab-specific flags.
	glHost := flag.String(
		"gitlab_host", "",
		"GitLab instance URL",
	)
	glRepo := flag.String(
		"gitlab_repo", "",
		"GitLab project path (org/project)",
	)
	glToken := flag.String(
		"gitlab_access_token", "",
		"GitLab personal access token",
	)

	// Shared remote flags.
	remoteRef := flag.String(
		"remote_ref", "",
		"Branch or commit holding the bundles",
	)
	remotePrefix := flag.String(
		"remote_path_prefix", "",
		"Repository subdirectory holding the bundles",
	)

	flag.Parse()

	if *bundleRoot == "" {
		return fmt.Errorf(
			"%s: bundle must be set", errCtx,
		)
	}

	if *slug == "" {
		return fmt.Errorf(
			"%s: slug must be set", errCtx,
		)
	}

	var (
		cfg syncer.Config
		err error
	)

	if *configFile != "" {
		cfg, err = syncer.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if *storeRoot != "" {
		cfg.StoreRoot = *storeRoot
	}

	if *combinedOrder != "" {
		cfg.CombinedOrder = *combinedOrder
	}

	if *mediaParallelism > 0 {
		cfg.MediaParallelism = *mediaParallelism
	}

	if *dryRun {
		cfg.DryRun = true
	}

	cfg.Source, err = newSource(*remoteServer, sourceFlags{
		ghRepoOwner:  *ghRepoOwner,
		ghRepo:       *ghRepo,
		ghToken:      *ghToken,
		ghEnterprise: *ghEnterprise,
		glHost:       *glHost,
		glRepo:       *glRepo,
		glToken:      *glToken,
		ref:          *remoteRef,
		pathPrefix:   *remotePrefix,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	result, err := syncer.Run(
		context.Background(), cfg, *bundleRoot, *slug,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	fmt.Println(string(out))

	return nil
}

// sourceFlags groups the remote source CLI flag values.
type sourceFlags struct {
	ghRepoOwner  string
	ghRepo       string
	ghToken      string
	ghEnterprise string
	glHost       string
	glRepo       string
	glToken      string
	ref          string
	pathPrefix   string
}

// newSource builds the remote digest set source selected by
// name. An empty name means local store only.
func newSource(
	name string,
	fl sourceFlags,
) (remote.Source, error) {
	const errCtx = "creating remote source"

	switch name {
	case "":
		return nil, nil
	case "github":
		src, err := github.NewSource(github.Config{
			RepoOwner:      fl.ghRepoOwner,
			Repo:           fl.ghRepo,
			AccessToken:    fl.ghToken,
			EnterpriseHost: fl.ghEnterprise,
			Ref:            fl.ref,
			PathPrefix:     fl.pathPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return src, nil
	case "gitlab":
		src, err := gitlab.NewSource(gitlab.Config{
			Host:        fl.glHost,
			Repo:        fl.glRepo,
			AccessToken: fl.glToken,
			Ref:         fl.ref,
			PathPrefix:  fl.pathPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return src, nil
	default:
		return nil, fmt.Errorf(
			"%s: unknown remote %q", errCtx, name,
		)
	}
}
