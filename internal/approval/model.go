// Package approval owns the lifecycle of a mission approval record:
// creation, decisions, delegation, and the append-only history and comment
// trail, backed by an external durable row store.
package approval

import (
	"time"

	"github.com/guardrailhq/aegis/internal/types"
)

// Status is the lifecycle state of a mission approval.
type Status string

const (
	StatusRequested Status = "requested"
	StatusDelegated Status = "delegated"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusDelegated, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is allowed out of
// s. approved and rejected are final decisions; expired rows are likewise
// closed. Comments and history entries may still be added to terminal rows.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Decidable reports whether a row in s may receive a decision or be
// delegated. Only requested and delegated rows are open.
func (s Status) Decidable() bool {
	return s == StatusRequested || s == StatusDelegated
}

// HistoryAction labels an entry in the approval's audit trail.
type HistoryAction string

const (
	ActionRequested HistoryAction = "requested"
	ActionDelegated HistoryAction = "delegated"
	ActionApproved  HistoryAction = "approved"
	ActionRejected  HistoryAction = "rejected"
	ActionCommented HistoryAction = "commented"
)

// Valid reports whether a is a known history action.
func (a HistoryAction) Valid() bool {
	switch a {
	case ActionRequested, ActionDelegated, ActionApproved, ActionRejected, ActionCommented:
		return true
	}
	return false
}

// HistoryEntry records one action taken on an approval. History is ordered
// newest-first and append-only.
type HistoryEntry struct {
	ID        types.ID      `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Actor     string        `json:"actor"`
	ActorRole string        `json:"actor_role"`
	Action    HistoryAction `json:"action"`
	Note      string        `json:"note,omitempty"`
}

// Comment is a discussion entry on an approval. Comments are ordered
// newest-first and append-only.
type Comment struct {
	ID         types.ID  `json:"id"`
	Author     string    `json:"author"`
	AuthorRole string    `json:"author_role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary is the caller-supplied description of what is being approved.
// The core carries it opaquely.
type Summary map[string]any

// Metadata is the structured blob embedded in an approval row.
type Metadata struct {
	Summary  Summary        `json:"summary,omitempty"`
	History  []HistoryEntry `json:"history"`
	Comments []Comment      `json:"comments"`
}

// EmptyMetadata returns the zero metadata shape used for fresh rows and as
// the degradation target for malformed blobs.
func EmptyMetadata() Metadata {
	return Metadata{
		History:  []HistoryEntry{},
		Comments: []Comment{},
	}
}

// Approval is a mission approval row. The row is owned by the durable store;
// this core never caches one between calls. Version backs the store-level
// compare-and-swap that protects the metadata read-modify-write.
type Approval struct {
	ID            types.ID   `json:"id"`
	MissionID     types.ID   `json:"mission_id"`
	MissionPlayID *string    `json:"mission_play_id,omitempty"`
	ApproverRole  string     `json:"approver_role"`
	ApproverID    *string    `json:"approver_id,omitempty"`
	Status        Status     `json:"status"`
	Rationale     *string    `json:"rationale,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	DecisionAt    *time.Time `json:"decision_at,omitempty"`
	Metadata      Metadata   `json:"metadata"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
