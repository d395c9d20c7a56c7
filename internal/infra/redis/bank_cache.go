package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gamemaster-quiz/internal/bankfile"
	"gamemaster-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "quiz:bank:"

// BankLoader fetches bank content from the backing catalog (files, database).
type BankLoader interface {
	LoadBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error)
}

// BankCache caches banks in Redis and falls back to a loader on cache miss.
// Banks are stored in their file encoding: SET quiz:bank:{builtin|custom}:{id} <json> EX ttl
type BankCache struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankCache(client *redis.Client, loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) GetBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	if bank, ok := c.lookup(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := c.sf.Do(cacheKey(key), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := c.lookup(ctx, key); ok {
			return bank, nil
		}

		bank, err := c.loader.LoadBank(ctx, key)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			if data, err := bankfile.Encode(bank); err == nil {
				_ = c.client.Set(ctx, cacheKey(key), data, ttl).Err()
			}
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (c *BankCache) Invalidate(ctx context.Context, key domain.BankKey) error {
	return c.client.Del(ctx, cacheKey(key)).Err()
}

// Purge drops every cached bank.
func (c *BankCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// lookup treats unreadable or undecodable entries as misses; the loader is the source of truth.
func (c *BankCache) lookup(ctx context.Context, key domain.BankKey) (domain.QuestionBank, bool) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return domain.QuestionBank{}, false
	}
	bank, err := bankfile.Decode(key, data)
	if err != nil {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func cacheKey(key domain.BankKey) string {
	if key.Custom {
		return keyPrefix + "custom:" + key.ID
	}
	return keyPrefix + "builtin:" + key.ID
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
