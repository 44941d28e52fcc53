package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	json "github.com/goccy/go-json"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/export_sync/sync/bundle"
	"github.com/byte4ever/export_sync/sync/checksum"
)

// Config holds the settings needed to create a GitLab digest
// set source.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access token used
	// for authentication.
	AccessToken string
	// Ref is the branch or commit holding the bundles. Empty
	// means the project default branch.
	Ref string
	// PathPrefix is the repository subdirectory holding the
	// exported bundles (empty means root).
	PathPrefix string
}

// Source fetches stored digest sets from a GitLab project.
//
// Pattern: Strategy -- implements remote.Source.
type Source struct {
	client     *gl.Client
	repo       string
	ref        string
	pathPrefix string
}

// NewSource validates cfg and returns a Source ready to fetch
// digest sets.
func NewSource(cfg Config) (*Source, error) {
	const errCtx = "creating gitlab source"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Source{
		client:     client,
		repo:       cfg.Repo,
		ref:        cfg.Ref,
		pathPrefix: cfg.PathPrefix,
	}, nil
}

// FetchSet retrieves the checksums file stored next to the
// bundle for slug. A missing file (HTTP 404) means the bundle
// was never synced and returns (nil, nil).
func (s *Source) FetchSet(
	_ context.Context,
	slug string,
) (*checksum.Set, error) {
	const errCtx = "fetching gitlab digest set"

	filePath := path.Join(
		s.pathPrefix, slug, bundle.ChecksumsFile,
	)

	opts := gl.GetRawFileOptions{}
	if s.ref != "" {
		opts.Ref = &s.ref
	}

	raw, resp, err := s.client.RepositoryFiles.GetRawFile(
		s.repo, filePath, &opts,
	)
	if err != nil {
		if resp != nil &&
			resp.StatusCode == http.StatusNotFound {
			slog.Info(
				"no stored digest set",
				"slug", slug,
			)

			return nil, nil
		}

		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, filePath, err,
		)
	}

	var set checksum.Set

	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf(
			"%s: parse json: %w", errCtx, err,
		)
	}

	return &set, nil
}
