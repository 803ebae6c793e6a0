package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/catalog/internal/domain"
)

// Taxonomy is the cached shape of everything the storefront needs to filter:
// active attributes and the terms of each of them.
type Taxonomy struct {
	Attributes []domain.Attribute        `json:"attributes"`
	Terms      map[string][]domain.Term `json:"terms"`
}

type TaxonomyCache interface {
	// Get reports a miss with (nil, false, nil).
	Get(ctx context.Context) (*Taxonomy, bool, error)
	// Generation is bumped by every Invalidate. Read it before loading what will be passed to Set.
	Generation(ctx context.Context) (int64, error)
	// Set stores taxonomy only while the generation is still the one it was loaded under.
	Set(ctx context.Context, generation int64, taxonomy *Taxonomy) (bool, error)
	Invalidate(ctx context.Context) error
}

// setIfGeneration writes KEYS[1] only when KEYS[2] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type redisTaxonomyCache struct {
	redisClient   *redis.Client
	key           string
	generationKey string
	ttl           time.Duration
}

// NewRedisTaxonomyCache returns a cache that keeps the taxonomy for ttl. A zero ttl disables caching.
func NewRedisTaxonomyCache(redisClient *redis.Client, ttl time.Duration) TaxonomyCache {
	return &redisTaxonomyCache{
		redisClient:   redisClient,
		key:           "storefront:taxonomy:snapshot",
		generationKey: "storefront:taxonomy:generation",
		ttl:           ttl,
	}
}

func (s *redisTaxonomyCache) Get(ctx context.Context) (*Taxonomy, bool, error) {
	if s.ttl <= 0 {
		return nil, false, nil
	}

	val, err := s.redisClient.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached taxonomy: %w", err)
	}

	var t Taxonomy
	if err := json.Unmarshal(val, &t); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached taxonomy: %w", err)
	}

	return &t, true, nil
}

func (s *redisTaxonomyCache) Generation(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	generation, err := s.redisClient.Get(ctx, s.generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get taxonomy generation: %w", err)
	}
	return generation, nil
}

func (s *redisTaxonomyCache) Set(ctx context.Context, generation int64, taxonomy *Taxonomy) (bool, error) {
	if s.ttl <= 0 {
		return false, nil
	}

	data, err := json.Marshal(taxonomy)
	if err != nil {
		return false, fmt.Errorf("failed to encode taxonomy: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, s.redisClient,
		[]string{s.key, s.generationKey},
		strconv.FormatInt(generation, 10), data, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache taxonomy: %w", err)
	}
	return stored == 1, nil
}

func (s *redisTaxonomyCache) Invalidate(ctx context.Context) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.Incr(ctx, s.generationKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate taxonomy cache: %w", err)
	}
	return nil
}
