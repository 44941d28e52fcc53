package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	json "github.com/goccy/go-json"
	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/export_sync/sync/bundle"
	"github.com/byte4ever/export_sync/sync/checksum"
)

// Config holds the settings needed to create a GitHub digest
// set source.
type Config struct {
	// RepoOwner is the GitHub user or organisation that owns
	// the bundle repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or GitHub App
	// token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave empty
	// for github.com.
	EnterpriseHost string
	// Ref is the branch or commit holding the bundles. Empty
	// means the repository default branch.
	Ref string
	// PathPrefix is the repository subdirectory holding the
	// exported bundles (empty means root).
	PathPrefix string
}

// Source fetches stored digest sets from a GitHub repository.
//
// Pattern: Strategy -- implements remote.Source.
type Source struct {
	client     *gh.Client
	repoOwner  string
	repo       string
	ref        string
	pathPrefix string
}

// NewSource validates cfg and returns a Source ready to fetch
// digest sets.
func NewSource(cfg Config) (*Source, error) {
	const errCtx = "creating github source"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Source{
		client:     client,
		repoOwner:  cfg.RepoOwner,
		repo:       cfg.Repo,
		ref:        cfg.Ref,
		pathPrefix: cfg.PathPrefix,
	}, nil
}

// FetchSet retrieves the checksums file stored next to the
// bundle for slug. A missing file (HTTP 404) means the bundle
// was never synced and returns (nil, nil).
func (s *Source) FetchSet(
	ctx context.Context,
	slug string,
) (*checksum.Set, error) {
	const errCtx = "fetching github digest set"

	filePath := path.Join(
		s.pathPrefix, slug, bundle.ChecksumsFile,
	)

	fileContent, _, resp, err := s.client.Repositories.GetContents(
		ctx,
		s.repoOwner,
		s.repo,
		filePath,
		&gh.RepositoryContentGetOptions{Ref: s.ref},
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

	if fileContent == nil {
		return nil, fmt.Errorf(
			"%s: %s is not a file", errCtx, filePath,
		)
	}

	raw, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf(
			"%s: decode content: %w", errCtx, err,
		)
	}

	var set checksum.Set

	if err := json.Unmarshal(
		[]byte(raw), &set,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: parse json: %w", errCtx, err,
		)
	}

	return &set, nil
}
