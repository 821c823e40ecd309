package prices

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// Hash names below the configured prefix. Market prices are the average
// prices used for buying; adjusted prices are the job fee basis.
const (
	marketHash   = "prices:market"
	adjustedHash = "prices:adjusted"
)

// RedisSource loads price snapshots from two Redis hashes keyed by item id
type RedisSource struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSource creates a price source over an existing Redis client
func NewRedisSource(client redis.Cmdable, prefix string) *RedisSource {
	return &RedisSource{client: client, prefix: prefix}
}

// Verify interface compliance
var _ repositories.PriceSource = (*RedisSource)(nil)

func (s *RedisSource) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

// LoadPrices reads both hashes and merges them into quotes ordered by item id.
// Fields that are not item ids or not decimals are ignored.
func (s *RedisSource) LoadPrices(ctx context.Context) ([]entities.PriceQuote, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	market, err := s.client.HGetAll(ctx, s.key(marketHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load market prices: %w", err)
	}
	adjusted, err := s.client.HGetAll(ctx, s.key(adjustedHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load adjusted prices: %w", err)
	}

	merged := make(map[entities.ItemID]entities.PriceQuote, len(market))
	apply := func(fields map[string]string, set func(*entities.PriceQuote, decimal.NullDecimal)) {
		for field, raw := range fields {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil || id <= 0 {
				continue
			}
			value, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			quote := merged[entities.ItemID(id)]
			quote.Item = entities.ItemID(id)
			set(&quote, decimal.NewNullDecimal(value))
			merged[entities.ItemID(id)] = quote
		}
	}
	apply(market, func(q *entities.PriceQuote, v decimal.NullDecimal) { q.Market = v })
	apply(adjusted, func(q *entities.PriceQuote, v decimal.NullDecimal) { q.JobFeeBasis = v })

	quotes := make([]entities.PriceQuote, 0, len(merged))
	for _, quote := range merged {
		quotes = append(quotes, entities.NewPriceQuote(quote.Item, quote.Market, quote.JobFeeBasis))
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Item < quotes[j].Item })
	return quotes, nil
}

// StorePrices writes quotes into both hashes in one pipeline
func (s *RedisSource) StorePrices(ctx context.Context, quotes []entities.PriceQuote) error {
	if s.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	market := make(map[string]interface{})
	adjusted := make(map[string]interface{})
	for _, quote := range quotes {
		field := strconv.FormatInt(int64(quote.Item), 10)
		if quote.Market.Valid {
			market[field] = quote.Market.Decimal.String()
		}
		if quote.JobFeeBasis.Valid {
			adjusted[field] = quote.JobFeeBasis.Decimal.String()
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(market) > 0 {
			pipe.HSet(ctx, s.key(marketHash), market)
		}
		if len(adjusted) > 0 {
			pipe.HSet(ctx, s.key(adjustedHash), adjusted)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %d prices: %w", len(quotes), err)
	}
	return nil
}
