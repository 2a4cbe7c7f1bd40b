package activity

import (
	"context"

	"swapPilot/internal/model"
)

// MaxEntries bounds the activity log; appending beyond it drops the oldest.
const MaxEntries = 100

// Store is an append-only sink for executed actions.
type Store interface {
	Append(ctx context.Context, entry model.ActivityEntry) error
	ReadAll(ctx context.Context) ([]model.ActivityEntry, error)
}
