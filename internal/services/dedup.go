package services

import (
	"context"
	"time"
)

const (
	dedupKeyPrefix = "notification:"
	dedupTTL       = 30 * 24 * time.Hour
)

// DedupLedger gates each notification UUID to at most one push attempt
// within the retention window. Key existence is equivalent to "this UUID
// already triggered a push attempt".
type DedupLedger struct {
	kv KVStore
}

// NewDedupLedger creates a ledger over the shared key-value store
func NewDedupLedger(kv KVStore) *DedupLedger {
	return &DedupLedger{kv: kv}
}

// MarkIfNew atomically records the UUID and reports whether this call was
// the first sighting. The set-if-absent must stay a single store
// primitive: a read-then-write would race under the storefront's routine
// concurrent retries.
func (l *DedupLedger) MarkIfNew(ctx context.Context, notificationUUID string) (bool, error) {
	fresh, err := l.kv.SetIfAbsent(ctx, dedupKeyPrefix+notificationUUID, "1", dedupTTL)
	if err != nil {
		return false, infrastructureErrorf("dedup check failed for %s: %v", notificationUUID, err)
	}
	return fresh, nil
}
