// Package redis implements storage.Repository on Redis. Each namespace is a
// hash at prefix+namespace; batches run as a MULTI/EXEC pipeline.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/consorcioci/viernes/storage"
)

const (
	defaultPrefix = "viernes:"
	opTimeout     = 3 * time.Second
)

// Store implements storage.Repository backed by Redis hashes.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository using client. An empty prefix selects
// "viernes:".
func NewRepository(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// NewRepositoryFromURL parses a redis:// URL, pings the server and returns a
// new Repository.
func NewRepositoryFromURL(ctx context.Context, redisURL, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewRepository(client, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) hashKey(namespace string) string {
	return s.prefix + namespace
}

func (s *Store) Get(namespace, key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	v, err := s.client.HGet(ctx, s.hashKey(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return v, nil
}

func (s *Store) List(namespace string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	keys, err := s.client.HKeys(ctx, s.hashKey(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Put(namespace, key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.HSet(ctx, s.hashKey(namespace), key, value).Err()
}

func (s *Store) Delete(namespace, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.HDel(ctx, s.hashKey(namespace), key).Err()
}

type op struct {
	key    string
	value  string
	delete bool
}

// stagedTx records writes; nothing reaches Redis until fn returns nil.
type stagedTx struct {
	ops []op
}

func (t *stagedTx) Put(key, value string) error {
	t.ops = append(t.ops, op{key: key, value: value})
	return nil
}

func (t *stagedTx) Delete(key string) error {
	t.ops = append(t.ops, op{key: key, delete: true})
	return nil
}

func (s *Store) Batch(namespace string, fn func(tx storage.Tx) error) error {
	staged := &stagedTx{}
	if err := fn(staged); err != nil {
		return err
	}
	if len(staged.ops) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	hash := s.hashKey(namespace)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, o := range staged.ops {
			if o.delete {
				pipe.HDel(ctx, hash, o.key)
			} else {
				pipe.HSet(ctx, hash, o.key, o.value)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch: %w", err)
	}
	return nil
}
