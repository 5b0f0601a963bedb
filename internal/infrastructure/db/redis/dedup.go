package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/permitology/permit-system/internal/core/domain"
)

const dedupTTL = time.Hour

// AppendDedup provides at-most-once ledger appends backed by Redis. Callers
// retrying a transition blindly pass the same dedup key; a hit means the
// append already happened and must not be repeated.
// Key format: dedup:<case_id>:<kind>:<key>
type AppendDedup struct {
	client *redis.Client
}

// NewAppendDedup creates an AppendDedup wrapping the given Redis client.
func NewAppendDedup(client *redis.Client) *AppendDedup {
	return &AppendDedup{client: client}
}

// IsDuplicate reports whether this logical transition was already applied.
func (d *AppendDedup) IsDuplicate(ctx context.Context, caseID string, kind domain.ActionKind, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(caseID, kind, key)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this transition has been applied (expires after dedupTTL).
func (d *AppendDedup) Mark(ctx context.Context, caseID string, kind domain.ActionKind, key string) error {
	return d.client.Set(ctx, d.key(caseID, kind, key), "1", dedupTTL).Err()
}

func (d *AppendDedup) key(caseID string, kind domain.ActionKind, key string) string {
	return fmt.Sprintf("dedup:%s:%s:%s", caseID, kind, key)
}
