package inventory

import (
	"context"
	"time"
)

// InventoryStore is the write side used by bulk persistence. Implementations
// must include soft-deleted rows in ExistingKeys and restore them on Update.
type InventoryStore interface {
	ExistingKeys(ctx context.Context, articleNumbers []string) (map[string]bool, error)
	Insert(ctx context.Context, record InventoryRecord) error
	Update(ctx context.Context, record InventoryRecord) error
	WithinTx(ctx context.Context, fn func(tx InventoryStore) error) error
}

// StatusStore keeps job snapshots for polling until they expire.
type StatusStore interface {
	Save(ctx context.Context, snapshot JobSnapshot, ttl time.Duration) error
	Get(ctx context.Context, jobID string) (JobSnapshot, error)
}

type Notifier interface {
	NotifySuccess(ctx context.Context, to string, payload SuccessNotification) error
	NotifyFailure(ctx context.Context, to string, payload FailureNotification) error
}

type InventoryItem struct {
	InventoryRecord
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type InventoryQueryRepository interface {
	GetByArticleNumber(ctx context.Context, articleNumber string, withDeleted bool) (*InventoryItem, error)
	SoftDelete(ctx context.Context, articleNumber string) error
	Restore(ctx context.Context, articleNumber string) error
}
