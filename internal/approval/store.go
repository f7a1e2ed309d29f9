package approval

import (
	"context"

	"github.com/guardrailhq/aegis/internal/types"
)

// Store is the narrow contract the state machine holds against the durable
// row store. Update is a compare-and-swap on the row's version: the write
// applies only when the stored version equals expectedVersion. A mismatch
// surfaces as a conflict error so the service can re-read and retry, which
// is what protects the metadata read-modify-write from lost updates.
type Store interface {
	// FindByID returns the row for id, or a not-found error.
	FindByID(ctx context.Context, id types.ID) (*Approval, error)

	// Insert persists a new row.
	Insert(ctx context.Context, row *Approval) error

	// Update writes row (including its already-bumped version) if the
	// stored version equals expectedVersion. Returns a conflict error on
	// mismatch and a not-found error when the row is gone.
	Update(ctx context.Context, row *Approval, expectedVersion int64) error
}
