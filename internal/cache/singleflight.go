package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Builder guarantees at-most-one concurrent build per content-hash
// fingerprint within this process, per §4.7. Cross-process coverage comes
// from the queue adapter's idempotency-key deduplication.
type Builder struct {
	group singleflight.Group
}

// Do shares one in-flight build across all callers with the same
// fingerprint; a canceled caller still waits for the shared result since the
// build itself isn't tied to any one caller's context.
func (b *Builder) Do(ctx context.Context, fingerprint string, build func() (any, error)) (any, error) {
	v, err, _ := b.group.Do(fingerprint, build)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return v, err
}
