package api

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache lifetimes per query kind.
const (
	CurrentUserTTL = 5 * time.Minute
	UserListTTL    = 2 * time.Minute
	ListTTL        = 1 * time.Minute
)

// QueryCache keeps raw read responses per credential. Keys are
// "<credential digest>|<family>|<path>?<query>", so one session never sees
// another's data and a mutation can drop a whole family for its session.
type QueryCache struct {
	c *cache.Cache
}

func NewQueryCache(defaultTTL, cleanupInterval time.Duration) *QueryCache {
	return &QueryCache{c: cache.New(defaultTTL, cleanupInterval)}
}

func cacheKey(digest, family, path string) string {
	return digest + "|" + family + "|" + path
}

func (q *QueryCache) get(key string) ([]byte, bool) {
	if q == nil {
		return nil, false
	}
	v, found := q.c.Get(key)
	if !found {
		return nil, false
	}
	return v.([]byte), true
}

func (q *QueryCache) set(key string, raw []byte, ttl time.Duration) {
	if q == nil {
		return
	}
	q.c.Set(key, raw, ttl)
}

// Invalidate drops every cached entry of family for the credential digest.
func (q *QueryCache) Invalidate(digest, family string) {
	if q == nil {
		return
	}
	prefix := cacheKey(digest, family, "")
	for key := range q.c.Items() {
		if strings.HasPrefix(key, prefix) {
			q.c.Delete(key)
		}
	}
}

// Flush drops everything.
func (q *QueryCache) Flush() {
	if q == nil {
		return
	}
	q.c.Flush()
}

// Len returns the number of live entries.
func (q *QueryCache) Len() int {
	if q == nil {
		return 0
	}
	return q.c.ItemCount()
}
