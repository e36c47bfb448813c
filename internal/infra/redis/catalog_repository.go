package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"kanjizoo/internal/domain"
)

// CatalogLoader fetches catalog content from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// CatalogRepository caches catalog items in Redis (hash per catalog, one
// field per item symbol) and falls back to a loader on cache miss:
// HSET catalog:{catalogID}:items {symbol} {item JSON}
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	key := r.itemsKey(catalogID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildCatalogFromCache(catalogID, fields)
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			catalog, err := buildCatalogFromCache(catalogID, fields)
			if err != nil {
				return domain.Catalog{}, err
			}
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return domain.Catalog{}, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		for _, item := range catalog.Items {
			data, err := json.Marshal(item)
			if err != nil {
				return domain.Catalog{}, err
			}
			pipe.HSet(ctx, key, item.Symbol, string(data))
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *CatalogRepository) itemsKey(catalogID string) string {
	return "catalog:" + catalogID + ":items"
}

func buildCatalogFromCache(catalogID string, fields map[string]string) (domain.Catalog, error) {
	items := make([]domain.CatalogItem, 0, len(fields))
	for _, raw := range fields {
		var item domain.CatalogItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return domain.Catalog{}, err
		}
		items = append(items, item)
	}
	return domain.Catalog{ID: catalogID, Items: items}, nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
