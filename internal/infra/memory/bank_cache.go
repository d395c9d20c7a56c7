package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gamemaster-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches bank content from a backing store (files, database).
type BankLoader interface {
	LoadBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error)
}

// BankCache caches banks with TTL to avoid re-reading and re-validating files.
// A zero TTL disables caching while keeping singleflight de-duplication.
type BankCache struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[domain.BankKey]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewBankCache(loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.BankKey]cachedBank),
	}
}

func (c *BankCache) GetBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	if bank, ok := c.lookup(key); ok {
		return bank, nil
	}

	result, err, _ := c.sf.Do(key.String(), func() (interface{}, error) {
		if bank, ok := c.lookup(key); ok {
			return bank, nil
		}

		now := c.clock()
		bank, err := c.loader.LoadBank(ctx, key)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		c.mu.Lock()
		c.cache[key] = cachedBank{
			bank:      bank,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (c *BankCache) Invalidate(_ context.Context, key domain.BankKey) error {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
	return nil
}

func (c *BankCache) Purge(_ context.Context) error {
	c.mu.Lock()
	c.cache = make(map[domain.BankKey]cachedBank)
	c.mu.Unlock()
	return nil
}

func (c *BankCache) lookup(key domain.BankKey) (domain.QuestionBank, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
