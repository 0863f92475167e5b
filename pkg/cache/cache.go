// Package cache stores intermediate pipeline results keyed by content hash.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the service, and the null cache from [NewNullCache] when caching is
// disabled. Keys are built by a [Keyer] from the hash of a stage's input
// plus every option that affects its output, so a changed input or option is
// always a miss. Every key names its [Stage]; [Observe] uses that to report
// hits and misses per stage.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Stage names the pipeline stage whose output a key identifies.
type Stage string

const (
	StageRaster    Stage = "raster"
	StageInflate   Stage = "inflate"
	StagePlacement Stage = "placement"
	// StageOther holds keys that were not built by a Keyer.
	StageOther Stage = "other"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageRaster, StageInflate, StagePlacement}

// ParseStage maps a stage name to its Stage. Unknown names report false.
func ParseStage(name string) (Stage, bool) {
	for _, s := range Stages {
		if string(s) == strings.ToLower(name) {
			return s, true
		}
	}
	return "", false
}

// StageOf returns the stage a key belongs to. Keys have the form
// "[scope]stage:hash"; anything else is StageOther.
func StageOf(key string) Stage {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return StageOther
	}
	name := key[:i]
	if j := strings.LastIndexByte(name, ':'); j >= 0 {
		name = name[j+1:]
	}
	if s, ok := ParseStage(name); ok {
		return s
	}
	return StageOther
}

// TTL returns how long entries of stage s are kept. Stage outputs are pure
// functions of their keys, so expiry only bounds disk and memory use.
func (s Stage) TTL() time.Duration {
	switch s {
	case StagePlacement:
		return PlacementTTL
	case StageRaster:
		return RasterTTL
	default:
		return InflateTTL
	}
}

// NewNullCache returns a cache that stores nothing. Every Get is a miss;
// wrap it with [Observe] to have those misses counted.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error                     { return nil }
func (nullCache) Close() error                                             { return nil }
