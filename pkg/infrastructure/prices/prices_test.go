package prices

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

type countingSource struct {
	calls  int
	quotes []entities.PriceQuote
	err    error
}

func (s *countingSource) LoadPrices(context.Context) ([]entities.PriceQuote, error) {
	s.calls++
	return s.quotes, s.err
}

func quote(item entities.ItemID, market float64) entities.PriceQuote {
	return entities.PriceQuote{Item: item, Market: decimal.NewNullDecimal(decimal.NewFromFloat(market))}
}

func TestCachedSource_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	backing := &countingSource{quotes: []entities.PriceQuote{quote(34, 4.5)}}
	cached := NewCachedSource(backing, time.Minute, logr.Discard())

	for i := 0; i < 3; i++ {
		quotes, err := cached.LoadPrices(ctx)
		require.NoError(t, err)
		assert.Len(t, quotes, 1)
	}
	assert.Equal(t, 1, backing.calls)

	cached.Invalidate()
	book, err := cached.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)

	price, ok := book.MarketUnitPrice(34)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromFloat(4.5)))
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	backing := &countingSource{err: errors.New("store down")}
	cached := NewCachedSource(backing, time.Minute, logr.Discard())

	_, err := cached.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load price snapshot")

	_, err = cached.LoadPrices(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, backing.calls)
}

func TestRedisSource_NilClient(t *testing.T) {
	_, err := NewRedisSource(nil, "test").LoadPrices(context.Background())
	assert.Error(t, err)
}

// Requires a reachable Redis; set PLANNER_TEST_REDIS_ADDR to run
func TestRedisSource_RoundTrip(t *testing.T) {
	addr := os.Getenv("PLANNER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PLANNER_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := "planner-test-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, prefix+":"+marketHash, prefix+":"+adjustedHash)

	source := NewRedisSource(client, prefix)
	require.NoError(t, source.StorePrices(ctx, []entities.PriceQuote{
		quote(35, 10),
		{Item: 34, Market: decimal.NewNullDecimal(decimal.NewFromFloat(4.5)), JobFeeBasis: decimal.NewNullDecimal(decimal.NewFromInt(4))},
	}))
	require.NoError(t, client.HSet(ctx, prefix+":"+marketHash, "not-an-id", "1").Err())

	quotes, err := source.LoadPrices(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, entities.ItemID(34), quotes[0].Item)
	assert.True(t, quotes[0].JobFeeBasis.Valid)
	assert.False(t, quotes[1].JobFeeBasis.Valid)
}
