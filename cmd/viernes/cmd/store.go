package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/consorcioci/viernes/config"
	"github.com/consorcioci/viernes/storage"
	bboltstorage "github.com/consorcioci/viernes/storage/bbolt"
	"github.com/consorcioci/viernes/storage/memory"
	"github.com/consorcioci/viernes/storage/postgres"
	redisstorage "github.com/consorcioci/viernes/storage/redis"
)

const (
	sessionFile      = "viernes.db"
	mockServerFile   = "viernes-mock.db"
	storeOpenTimeout = 10 * time.Second
)

// openStore opens the backend cfg selects. file names the bbolt database
// and prefixes redis keys so two processes can share a data directory or
// server. The returned func releases the store.
func openStore(cfg config.Config, file string) (storage.Repository, func() error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()

	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewRepository(), func() error { return nil }, nil
	case config.StoreBBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(cfg.DataDir, file), &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return repo, repo.Close, nil
	case config.StorePostgres:
		repo, err := postgres.NewRepositoryFromDSN(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() error { repo.Close(); return nil }, nil
	case config.StoreRedis:
		repo, err := redisstorage.NewRepositoryFromURL(ctx, cfg.RedisURL, redisPrefix(file))
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func redisPrefix(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ":"
}
