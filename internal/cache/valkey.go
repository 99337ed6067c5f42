package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Enabled       bool
	Addr          string
	Password      string
	CatalogTTLSec int
}

const catalogKey = "catalog:v1"

// ValkeyClient caches the public catalog (locations, groups, availability).
// The catalog is recomputed from the store on every miss, so a short TTL is
// enough; capacity decisions never read this cache.
type ValkeyClient struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:     rdb,
		catalogTTL: time.Duration(cfg.CatalogTTLSec) * time.Second,
	}, nil
}

// GetCatalogRaw returns the cached catalog JSON, or an error on miss
func (v *ValkeyClient) GetCatalogRaw(ctx context.Context) ([]byte, error) {
	raw, err := v.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("catalog not in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return raw, nil
}

// SetCatalog stores the catalog response with the configured TTL
func (v *ValkeyClient) SetCatalog(ctx context.Context, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return v.client.Set(ctx, catalogKey, raw, v.catalogTTL).Err()
}

// InvalidateCatalog drops the cached catalog after a group/location change
func (v *ValkeyClient) InvalidateCatalog(ctx context.Context) error {
	return v.client.Del(ctx, catalogKey).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
