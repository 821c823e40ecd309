package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	gocache "github.com/patrickmn/go-cache"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
)

const snapshotKey = "snapshot"

// CachedSource keeps the last loaded price snapshot for a TTL so concurrent
// planning requests do not each hit the backing store
type CachedSource struct {
	source repositories.PriceSource
	cache  *gocache.Cache
	logger logr.Logger
}

// NewCachedSource wraps a price source with a TTL cache
func NewCachedSource(source repositories.PriceSource, ttl time.Duration, logger logr.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Verify interface compliance
var _ repositories.PriceSource = (*CachedSource)(nil)

// LoadPrices returns the cached quotes or loads and caches fresh ones
func (c *CachedSource) LoadPrices(ctx context.Context) ([]entities.PriceQuote, error) {
	if cached, ok := c.cache.Get(snapshotKey); ok {
		c.logger.V(logging.TRACE).Info("price snapshot cache hit")
		return cached.([]entities.PriceQuote), nil
	}

	quotes, err := c.source.LoadPrices(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(snapshotKey, quotes)
	c.logger.V(logging.DEBUG).Info("price snapshot loaded", "quotes", len(quotes))
	return quotes, nil
}

// Snapshot loads prices into an immutable price book for one planning request
func (c *CachedSource) Snapshot(ctx context.Context) (*memory.PriceBook, error) {
	return Snapshot(ctx, c)
}

// Invalidate drops the cached snapshot
func (c *CachedSource) Invalidate() {
	c.cache.Delete(snapshotKey)
}

// Snapshot loads prices from any source into a price book
func Snapshot(ctx context.Context, source repositories.PriceSource) (*memory.PriceBook, error) {
	quotes, err := source.LoadPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price snapshot: %w", err)
	}
	return memory.NewPriceBook(quotes), nil
}
