package syncer

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/export_sync/sync/checksum"
	"github.com/byte4ever/export_sync/sync/remote"
)

// Config holds all settings for a content sync run. Use a
// Config struct instead of many arguments.
type Config struct {
	// StoreRoot is the local digest store root directory.
	StoreRoot string `yaml:"store_root"`

	// PathTemplate overrides the store path layout
	// (default "{slug}/checksums.json").
	PathTemplate string `yaml:"path_template"`

	// CombinedOrder selects the combined digest ordering:
	// "sorted" (default) or "directory" for compatibility
	// with digest sets from the listing-order-sensitive
	// legacy pipeline.
	CombinedOrder string `yaml:"combined_order"`

	// ExcludeKeys are extra top-level metadata keys excluded
	// from the metadata digest.
	ExcludeKeys []string `yaml:"exclude_keys"`

	// MediaParallelism is the number of concurrent media
	// digest workers.
	MediaParallelism int `yaml:"media_parallelism"`

	// DryRun skips persisting the fresh digest set when true.
	DryRun bool `yaml:"dry_run"`

	// Source optionally fetches stored digest sets from a
	// remote bundle repository when the local store has none.
	// Wired in code, never from the config file.
	Source remote.Source `yaml:"-"`
}

// LoadConfig reads a YAML config file into a Config.
func LoadConfig(path string) (Config, error) {
	const errCtx = "loading syncer config"

	var cfg Config

	raw, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf(
			"%s: parse yaml: %w", errCtx, err,
		)
	}

	return cfg, nil
}

// order translates the configured ordering name.
func (c Config) order() (checksum.Order, error) {
	switch c.CombinedOrder {
	case "", "sorted":
		return checksum.OrderSorted, nil
	case "directory":
		return checksum.OrderDirectory, nil
	default:
		return checksum.OrderSorted, fmt.Errorf(
			"unknown combined order %q",
			c.CombinedOrder,
		)
	}
}
