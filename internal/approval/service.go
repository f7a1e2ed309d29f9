package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/guardrailhq/aegis/internal/types"
)

// casRetries bounds how many times a mutation re-reads and retries after a
// version conflict before giving up.
const casRetries = 3

// Service drives the approval state machine over an injected Store. It holds
// no cached rows between calls; every mutation re-reads the current row,
// applies the change, and writes it back under a version compare-and-swap.
type Service struct {
	store  Store
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates an approval service over store. A nil logger disables
// logging.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("aegis/approval"),
		now:    time.Now,
	}
}

// CreateInput carries the fields for a new approval request.
type CreateInput struct {
	MissionID     types.ID
	MissionPlayID *string
	ApproverRole  string
	DueAt         *time.Time
	Summary       Summary
}

// Create inserts a new approval row. Status always starts at requested with
// an empty history and comment trail and no decision timestamp; any
// caller-supplied summary is merged into the metadata.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Approval, error) {
	ctx, span := s.tracer.Start(ctx, "approval.create")
	defer span.End()

	now := s.now()
	meta := EmptyMetadata()
	meta.Summary = input.Summary

	row := &Approval{
		ID:            types.NewID(),
		MissionID:     input.MissionID,
		MissionPlayID: input.MissionPlayID,
		ApproverRole:  input.ApproverRole,
		Status:        StatusRequested,
		DueAt:         input.DueAt,
		Metadata:      meta,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Insert(ctx, row); err != nil {
		return nil, StoreError("create", err)
	}

	span.SetAttributes(attribute.String("approval.id", row.ID.String()))
	s.logger.Info("approval created",
		"approval_id", row.ID,
		"mission_id", row.MissionID,
		"approver_role", row.ApproverRole,
	)
	return row, nil
}

// DecisionInput carries a terminal decision for an approval.
type DecisionInput struct {
	Status     Status // approved or rejected
	Rationale  *string
	DecisionAt time.Time
	ApproverID *string
}

// Decide applies an approve/reject decision. Only requested and delegated
// rows are decidable; deciding a row that already reached a terminal status
// fails rather than silently overwriting the earlier decision. History and
// comments are left untouched.
func (s *Service) Decide(ctx context.Context, id types.ID, input DecisionInput) (*Approval, error) {
	if input.Status != StatusApproved && input.Status != StatusRejected {
		return nil, InvalidStatusError(input.Status)
	}

	ctx, span := s.tracer.Start(ctx, "approval.decide",
		trace.WithAttributes(attribute.String("approval.id", id.String())))
	defer span.End()

	row, err := s.mutate(ctx, id, "update", func(row *Approval) error {
		if !row.Status.Decidable() {
			return TerminalError(id, row.Status)
		}
		decisionAt := input.DecisionAt
		row.Status = input.Status
		row.Rationale = input.Rationale
		row.DecisionAt = &decisionAt
		row.ApproverID = input.ApproverID
		row.UpdatedAt = decisionAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval decided",
		"approval_id", id,
		"status", row.Status,
	)
	return row, nil
}

// DelegationInput carries a delegation of an approval to another role.
type DelegationInput struct {
	ToRole          string
	Reason          string
	DelegatedByRole string
	DelegatedByID   *string // recorded as the history actor when set
}

// Delegate reassigns the approval to a new approver role, recording the
// handoff at the head of the history trail. A delegated row may be
// re-delegated; terminal rows may not.
func (s *Service) Delegate(ctx context.Context, id types.ID, input DelegationInput) (*Approval, error) {
	ctx, span := s.tracer.Start(ctx, "approval.delegate",
		trace.WithAttributes(attribute.String("approval.id", id.String())))
	defer span.End()

	row, err := s.mutate(ctx, id, "delegate", func(row *Approval) error {
		if !row.Status.Decidable() {
			return TerminalError(id, row.Status)
		}
		now := s.now()
		actor := input.DelegatedByRole
		if input.DelegatedByID != nil {
			actor = *input.DelegatedByID
		}
		entry := HistoryEntry{
			ID:        types.NewID(),
			Timestamp: now,
			Actor:     actor,
			ActorRole: input.DelegatedByRole,
			Action:    ActionDelegated,
			Note:      input.Reason,
		}
		row.Metadata.History = append([]HistoryEntry{entry}, row.Metadata.History...)
		row.ApproverRole = input.ToRole
		row.Status = StatusDelegated
		row.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval delegated",
		"approval_id", id,
		"to_role", input.ToRole,
		"from_role", input.DelegatedByRole,
	)
	return row, nil
}

// CommentInput carries a new discussion comment.
type CommentInput struct {
	Author     string
	AuthorRole string
	Content    string
}

// AddComment prepends a comment to the approval's comment trail without
// altering its status.
func (s *Service) AddComment(ctx context.Context, id types.ID, input CommentInput) (*Comment, error) {
	ctx, span := s.tracer.Start(ctx, "approval.comment",
		trace.WithAttributes(attribute.String("approval.id", id.String())))
	defer span.End()

	comment := Comment{
		ID:         types.NewID(),
		Author:     input.Author,
		AuthorRole: input.AuthorRole,
		Content:    input.Content,
		Timestamp:  s.now(),
	}

	_, err := s.mutate(ctx, id, "comment on", func(row *Approval) error {
		row.Metadata.Comments = append([]Comment{comment}, row.Metadata.Comments...)
		row.UpdatedAt = comment.Timestamp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval comment added", "approval_id", id, "author", input.Author)
	return &comment, nil
}

// AppendHistory prepends a generic history entry, for collaborators that
// record actions without going through Delegate or AddComment. A zero id or
// timestamp on the entry is filled in.
func (s *Service) AppendHistory(ctx context.Context, id types.ID, entry HistoryEntry) error {
	ctx, span := s.tracer.Start(ctx, "approval.append_history",
		trace.WithAttributes(attribute.String("approval.id", id.String())))
	defer span.End()

	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	_, err := s.mutate(ctx, id, "record history for", func(row *Approval) error {
		row.Metadata.History = append([]HistoryEntry{entry}, row.Metadata.History...)
		row.UpdatedAt = entry.Timestamp
		return nil
	})
	return err
}

// Expire transitions an open approval to expired. The sweep that detects
// overdue approvals lives outside this core; only the transition itself is
// owned here, and it is valid only from requested or delegated.
func (s *Service) Expire(ctx context.Context, id types.ID) (*Approval, error) {
	ctx, span := s.tracer.Start(ctx, "approval.expire",
		trace.WithAttributes(attribute.String("approval.id", id.String())))
	defer span.End()

	row, err := s.mutate(ctx, id, "expire", func(row *Approval) error {
		if !row.Status.Decidable() {
			return TerminalError(id, row.Status)
		}
		row.Status = StatusExpired
		row.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval expired", "approval_id", id)
	return row, nil
}

// mutate runs the read-modify-write cycle for one approval under the store's
// version compare-and-swap, re-reading and retrying on conflict. Guard
// failures from apply pass through untouched; store failures are wrapped in
// the action name. When every retry hits a conflict, the conflict error
// itself is returned.
func (s *Service) mutate(ctx context.Context, id types.ID, action string, apply func(*Approval) error) (*Approval, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		row, err := s.store.FindByID(ctx, id)
		if err != nil {
			if types.CodeOf(err) == types.APPROVAL_NOT_FOUND {
				return nil, err
			}
			return nil, StoreError(action, err)
		}

		if err := apply(row); err != nil {
			return nil, err
		}

		expected := row.Version
		row.Version = expected + 1
		err = s.store.Update(ctx, row, expected)
		if err == nil {
			return row, nil
		}

		var ae *types.AegisError
		if errors.As(err, &ae) && ae.Code == types.APPROVAL_CONFLICT {
			lastErr = err
			s.logger.Warn("approval write conflict, retrying",
				"approval_id", id,
				"attempt", attempt+1,
			)
			continue
		}
		if types.CodeOf(err) == types.APPROVAL_NOT_FOUND {
			return nil, err
		}
		return nil, StoreError(action, err)
	}
	// Exhausted retries: surface the conflict so callers can distinguish
	// contention from a broken store.
	return nil, lastErr
}
