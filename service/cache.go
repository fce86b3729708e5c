// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"go-clinic-auth/model"
	"go-clinic-auth/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
// This abstraction allows us to decouple the PrincipalCache from a
// concrete Redis implementation, enabling easier testing and future
// flexibility.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const principalCacheTTL = 10 * time.Minute

// PrincipalCache is a cache-aside wrapper over the principal repository.
// The access guard resolves a principal on every authenticated request,
// which is the hottest read in the engine. Serialization goes through the
// model's JSON tags, so the password hash never enters the cache.
type PrincipalCache struct {
	repo  repository.IPrincipalRepository
	cache ICacheClient
}

func NewPrincipalCache(repo repository.IPrincipalRepository, cache ICacheClient) *PrincipalCache {
	return &PrincipalCache{repo: repo, cache: cache}
}

func cacheKeyForPrincipal(id int) string {
	return fmt.Sprintf("principal:%d", id)
}

// GetByID tries the cache first and falls back to the repository.
func (c *PrincipalCache) GetByID(id int) (*model.Principal, error) {
	ctx := context.Background()
	cacheKey := cacheKeyForPrincipal(id)

	if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil {
		principal := &model.Principal{}
		if err := json.Unmarshal([]byte(cached), principal); err == nil {
			return principal, nil
		}
	}

	principal, err := c.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(principal); err == nil {
		c.cache.Set(ctx, cacheKey, data, principalCacheTTL)
	}

	return principal, nil
}

// Invalidate drops a principal from the cache after a write (password
// change or reset). Best effort: a failed delete only means one stale TTL
// window for fields the auth engine never changes.
func (c *PrincipalCache) Invalidate(id int) {
	c.cache.Del(context.Background(), cacheKeyForPrincipal(id))
}
