// Package safeguard reconciles AI-proposed safeguard hints against the
// previously normalized safeguard state, preserving user edits while
// assigning stable, collision-resistant identities to hints.
package safeguard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// FallbackHintType categorizes hints that arrive without a type.
const FallbackHintType = "general"

// Hint is a raw AI-proposed safeguard, produced upstream and not owned by
// this core.
type Hint struct {
	HintType string `json:"hint_type"`
	Text     string `json:"text"`
}

// Status is the user-facing disposition of a safeguard.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusEdited   Status = "edited"
	StatusRejected Status = "rejected"
)

// State is the normalized, persisted form of a safeguard. The ID stays
// stable across reconciliation passes for semantically unchanged hints.
type State struct {
	ID            string     `json:"id"`
	Label         string     `json:"label"`
	HintType      string     `json:"hint_type"`
	Status        Status     `json:"status"`
	Confidence    *float64   `json:"confidence,omitempty"`
	Pinned        bool       `json:"pinned"`
	Rationale     *string    `json:"rationale,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

// HashText returns a deterministic, order-sensitive digest of s. Identity
// derivation only, not a security primitive.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// BuildID derives the stable identity for a hint. occurrence is the hint's
// 0-based position among hints sharing the same type and text within one raw
// batch, so in-batch duplicates still get distinct ids. The id is prefixed
// with the hint type so callers can group by type without decoding it.
func BuildID(hint Hint, occurrence int) string {
	hintType := hint.HintType
	if hintType == "" {
		hintType = FallbackHintType
	}
	return fmt.Sprintf("%s-%s-%d", hintType, HashText(hint.Text)[:12], occurrence)
}
