package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"finance-link-server/src/models"

	"github.com/dgraph-io/ristretto"
)

// Cache keeps recent Plaid responses per access token. Keys are tracked per
// kind so that a whole kind, or everything for one item, can be dropped at
// once (ristretto cannot enumerate its keys).
type Cache struct {
	store *ristretto.Cache
	ttl   time.Duration

	mu          sync.RWMutex
	keysByKind  map[string]map[string]struct{}
	keysByToken map[string]map[string]struct{}
	itemTokens  map[string]string
}

const (
	KindAccounts     = "accounts"
	KindTransactions = "transactions"
)

func NewCache(ttl time.Duration) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10000, // number of keys to track frequency of
		MaxCost:            10000,
		BufferItems:        64, // number of keys per Get buffer
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &Cache{
		store:       store,
		ttl:         ttl,
		keysByKind:  map[string]map[string]struct{}{},
		keysByToken: map[string]map[string]struct{}{},
		itemTokens:  map[string]string{},
	}, nil
}

// tokenKey never stores the raw access token as a cache key.
func tokenKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

func cacheKey(kind, accessToken string) string {
	return kind + ":" + tokenKey(accessToken)
}

func (c *Cache) set(kind, accessToken string, value interface{}) {
	key := cacheKey(kind, accessToken)
	tk := tokenKey(accessToken)

	c.mu.Lock()
	if c.keysByKind[kind] == nil {
		c.keysByKind[kind] = map[string]struct{}{}
	}
	c.keysByKind[kind][key] = struct{}{}
	if c.keysByToken[tk] == nil {
		c.keysByToken[tk] = map[string]struct{}{}
	}
	c.keysByToken[tk][key] = struct{}{}
	c.mu.Unlock()

	c.store.SetWithTTL(key, value, 1, c.ttl)
	c.store.Wait()
}

func (c *Cache) get(kind, accessToken string) (interface{}, bool) {
	return c.store.Get(cacheKey(kind, accessToken))
}

func (c *Cache) SetAccounts(accessToken string, accounts []models.Account) {
	c.set(KindAccounts, accessToken, accounts)
}

func (c *Cache) GetAccounts(accessToken string) ([]models.Account, bool) {
	v, ok := c.get(KindAccounts, accessToken)
	if !ok {
		return nil, false
	}
	accounts, ok := v.([]models.Account)
	return accounts, ok
}

func (c *Cache) SetTransactions(accessToken string, resp models.TransactionsResponse) {
	c.set(KindTransactions, accessToken, resp)
}

func (c *Cache) GetTransactions(accessToken string) (models.TransactionsResponse, bool) {
	v, ok := c.get(KindTransactions, accessToken)
	if !ok {
		return models.TransactionsResponse{}, false
	}
	resp, ok := v.(models.TransactionsResponse)
	return resp, ok
}

// RegisterItem remembers which access token belongs to a Plaid item so that
// webhooks, which only carry the item id, can invalidate its entries.
func (c *Cache) RegisterItem(itemID, accessToken string) {
	c.mu.Lock()
	c.itemTokens[itemID] = tokenKey(accessToken)
	c.mu.Unlock()
}

// InvalidateItem drops every cached response for the item. It reports whether
// the item was known.
func (c *Cache) InvalidateItem(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk, ok := c.itemTokens[itemID]
	if !ok {
		return false
	}
	for key := range c.keysByToken[tk] {
		c.store.Del(key)
		for _, keys := range c.keysByKind {
			delete(keys, key)
		}
	}
	delete(c.keysByToken, tk)
	return true
}

// Kinds lists the response kinds the cache holds.
func Kinds() []string {
	return []string{KindAccounts, KindTransactions}
}

// ClearKind drops all cached responses of one kind.
func (c *Cache) ClearKind(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.keysByKind[kind] {
		c.store.Del(key)
		for _, keys := range c.keysByToken {
			delete(keys, key)
		}
	}
	c.keysByKind[kind] = map[string]struct{}{}
}

func (c *Cache) Close() {
	c.store.Close()
}
