package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "fleetmap:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) RasterKey(layoutHash string, opts RasterKeyOpts) string {
	return k.prefix + k.inner.RasterKey(layoutHash, opts)
}

func (k *ScopedKeyer) InflateKey(gridHash string, opts InflateKeyOpts) string {
	return k.prefix + k.inner.InflateKey(gridHash, opts)
}

func (k *ScopedKeyer) PlacementKey(gridHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(gridHash, opts)
}
