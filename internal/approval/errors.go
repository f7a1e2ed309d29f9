package approval

import (
	"fmt"

	"github.com/guardrailhq/aegis/internal/types"
)

// NotFoundError reports a mutation against an approval id with no row.
func NotFoundError(id types.ID) *types.AegisError {
	return types.NewError(types.APPROVAL_NOT_FOUND, fmt.Sprintf("approval %s not found", id))
}

// TerminalError reports an attempt to mutate a row whose status admits no
// further transitions.
func TerminalError(id types.ID, status Status) *types.AegisError {
	return types.NewError(types.APPROVAL_TERMINAL, fmt.Sprintf("approval %s is %s and cannot be modified", id, status))
}

// ConflictError reports a version mismatch on write: another writer updated
// the row between read and write. Retryable.
func ConflictError(id types.ID) *types.AegisError {
	return types.NewRetryableError(types.APPROVAL_CONFLICT, fmt.Sprintf("approval %s was modified concurrently", id))
}

// StoreError wraps a store failure in the action being performed.
func StoreError(action string, cause error) *types.AegisError {
	return types.WrapError(types.APPROVAL_STORE_FAILED, fmt.Sprintf("failed to %s mission approval", action), cause)
}

// InvalidStatusError reports a decision with a status outside {approved,
// rejected}.
func InvalidStatusError(status Status) *types.AegisError {
	return types.NewError(types.APPROVAL_INVALID_STATUS, fmt.Sprintf("invalid decision status %q", status))
}
