package data

import (
	"context"
	"errors"

	"datacuration/internal/biz"
	"datacuration/internal/domain"
	"datacuration/pkg/cache"
	"datacuration/pkg/monitoring"
)

// dataSourceCache 数据源读缓存，键为 datasource:<id>
type dataSourceCache struct {
	store cache.ObjectCache
}

// NewDataSourceCache 创建数据源缓存，store 为 nil 时缓存关闭
func NewDataSourceCache(store cache.ObjectCache) biz.DataSourceCache {
	return &dataSourceCache{store: store}
}

func (c *dataSourceCache) Get(ctx context.Context, id string) (*domain.DataSource, error) {
	if c.store == nil {
		return nil, nil
	}
	var ds domain.DataSource
	if err := c.store.GetObject(ctx, id, &ds); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			monitoring.CacheRequestsTotal.WithLabelValues("miss").Inc()
			return nil, nil
		}
		monitoring.CacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	monitoring.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return &ds, nil
}

func (c *dataSourceCache) Set(ctx context.Context, ds *domain.DataSource) error {
	if c.store == nil {
		return nil
	}
	return c.store.SetObject(ctx, ds.ID, ds, 0)
}

func (c *dataSourceCache) Delete(ctx context.Context, id string) error {
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, id)
}
