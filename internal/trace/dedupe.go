package trace

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Deduper remembers payload fingerprints for a while so that an
// identical tool call repeated within the window can be flagged.
type Deduper struct {
	cache *gocache.Cache
}

func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Deduper{
		cache: gocache.New(ttl, ttl),
	}
}

// Seen reports whether the fingerprint was observed within the TTL,
// and records it either way.
func (d *Deduper) Seen(tool, payloadHash string) bool {
	key := tool + ":" + payloadHash
	_, found := d.cache.Get(key)
	d.cache.SetDefault(key, struct{}{})
	return found
}

// Forget drops a fingerprint, allowing the next identical call through.
func (d *Deduper) Forget(tool, payloadHash string) {
	d.cache.Delete(tool + ":" + payloadHash)
}
