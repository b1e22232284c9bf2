package artifact

import (
	"context"
	"fmt"
	"strings"
)

// Backend names an artifact store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendDisk     Backend = "disk"
	BackendPostgres Backend = "postgres"
	BackendS3       Backend = "s3"
)

type Config struct {
	Backend     Backend     `yaml:"backend"`
	Dir         string      `yaml:"dir"`
	DatabaseURL string      `yaml:"database_url"`
	S3          S3Config    `yaml:"s3"`
	Cache       bool        `yaml:"cache"`
	CacheConfig CacheConfig `yaml:"cache_config"`
}

// Open builds the configured store. Remote backends are wrapped in a
// CachedStore when cfg.Cache is set.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Backend(strings.ToLower(strings.TrimSpace(string(cfg.Backend)))) {
	case "", BackendDisk:
		dir := cfg.Dir
		if strings.TrimSpace(dir) == "" {
			dir = "out"
		}
		return NewDiskStore(dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("artifact backend postgres: database_url is required")
		}
		s, err = OpenPostgres(ctx, cfg.DatabaseURL)
	case BackendS3:
		s, err = NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Cache {
		s = NewCachedStore(s, cfg.CacheConfig)
	}
	return s, nil
}
