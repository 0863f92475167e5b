package cache

import (
	"context"
	"time"

	"github.com/matzehuels/fleetmap/pkg/observability"
)

// Observe wraps c so every lookup and write is reported to the registered
// [observability.CacheHooks], labelled with the key's stage. Backend errors
// on Get count as misses. Writes to the null cache are not reported.
func Observe(c Cache) Cache {
	if o, ok := c.(observed); ok {
		return o
	}
	return observed{inner: c}
}

type observed struct {
	inner Cache
}

func (o observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.inner.Get(ctx, key)
	if hit && err == nil {
		observability.Cache().OnCacheHit(ctx, string(StageOf(key)))
	} else {
		observability.Cache().OnCacheMiss(ctx, string(StageOf(key)))
	}
	return data, hit, err
}

func (o observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.inner.Set(ctx, key, data, ttl)
	if _, null := o.inner.(nullCache); err == nil && !null {
		observability.Cache().OnCacheSet(ctx, string(StageOf(key)), len(data))
	}
	return err
}

func (o observed) Delete(ctx context.Context, key string) error { return o.inner.Delete(ctx, key) }
func (o observed) Close() error                                 { return o.inner.Close() }
