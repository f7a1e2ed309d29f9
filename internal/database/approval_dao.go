package database

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/guardrailhq/aegis/internal/approval"
	"github.com/guardrailhq/aegis/internal/types"
)

// ApprovalDAO implements approval.Store over the approvals table. Metadata
// is stored as a JSON column and decoded defensively: defects are logged,
// never fatal to the read.
type ApprovalDAO struct {
	db     *DB
	logger *slog.Logger
}

// NewApprovalDAO creates an approval DAO. A nil logger disables logging.
func NewApprovalDAO(db *DB, logger *slog.Logger) *ApprovalDAO {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ApprovalDAO{db: db, logger: logger}
}

const approvalColumns = `
	id, mission_id, mission_play_id, approver_role, approver_id, status,
	rationale, due_at, decision_at, metadata, version, created_at, updated_at
`

// FindByID retrieves an approval row by id.
func (d *ApprovalDAO) FindByID(ctx context.Context, id types.ID) (*approval.Approval, error) {
	row := d.db.conn.QueryRowContext(ctx,
		`SELECT`+approvalColumns+`FROM approvals WHERE id = ?`, id)
	return d.scanRow(row, id)
}

// Insert persists a new approval row.
func (d *ApprovalDAO) Insert(ctx context.Context, row *approval.Approval) error {
	metadata, err := approval.EncodeMetadata(row.Metadata)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to encode approval metadata", err)
	}

	_, err = d.db.conn.ExecContext(ctx, `
		INSERT INTO approvals (
			id, mission_id, mission_play_id, approver_role, approver_id, status,
			rationale, due_at, decision_at, metadata, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		row.ID,
		row.MissionID,
		row.MissionPlayID,
		row.ApproverRole,
		row.ApproverID,
		row.Status,
		row.Rationale,
		row.DueAt,
		row.DecisionAt,
		string(metadata),
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to insert approval", err)
	}
	return nil
}

// Update writes row under a compare-and-swap on version. When no row
// matches, the miss is classified as not-found or conflict by re-checking
// existence.
func (d *ApprovalDAO) Update(ctx context.Context, row *approval.Approval, expectedVersion int64) error {
	metadata, err := approval.EncodeMetadata(row.Metadata)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to encode approval metadata", err)
	}

	result, err := d.db.conn.ExecContext(ctx, `
		UPDATE approvals
		SET approver_role = ?, approver_id = ?, status = ?, rationale = ?,
		    due_at = ?, decision_at = ?, metadata = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		row.ApproverRole,
		row.ApproverID,
		row.Status,
		row.Rationale,
		row.DueAt,
		row.DecisionAt,
		string(metadata),
		row.Version,
		row.UpdatedAt,
		row.ID,
		expectedVersion,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to update approval", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	if err := d.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approvals WHERE id = ?`, row.ID,
	).Scan(&exists); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to check approval existence", err)
	}
	if exists == 0 {
		return approval.NotFoundError(row.ID)
	}
	return approval.ConflictError(row.ID)
}

// List returns approvals, optionally filtered by status, newest first.
func (d *ApprovalDAO) List(ctx context.Context, status approval.Status) ([]*approval.Approval, error) {
	query := `SELECT` + approvalColumns + `FROM approvals ORDER BY created_at DESC`
	args := []interface{}{}
	if status != "" {
		query = `SELECT` + approvalColumns + `FROM approvals WHERE status = ? ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := d.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list approvals", err)
	}
	defer rows.Close()

	var out []*approval.Approval
	for rows.Next() {
		row, err := d.scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating approvals", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *ApprovalDAO) scanRow(row *sql.Row, id types.ID) (*approval.Approval, error) {
	out, err := d.scan(row)
	if err == sql.ErrNoRows {
		return nil, approval.NotFoundError(id)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get approval", err)
	}
	return out, nil
}

func (d *ApprovalDAO) scanRows(rows *sql.Rows) (*approval.Approval, error) {
	out, err := d.scan(rows)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan approval", err)
	}
	return out, nil
}

func (d *ApprovalDAO) scan(s rowScanner) (*approval.Approval, error) {
	var row approval.Approval
	var missionPlayID, approverID, rationale, metadata sql.NullString
	var dueAt, decisionAt sql.NullTime

	err := s.Scan(
		&row.ID,
		&row.MissionID,
		&missionPlayID,
		&row.ApproverRole,
		&approverID,
		&row.Status,
		&rationale,
		&dueAt,
		&decisionAt,
		&metadata,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if missionPlayID.Valid {
		row.MissionPlayID = &missionPlayID.String
	}
	if approverID.Valid {
		row.ApproverID = &approverID.String
	}
	if rationale.Valid {
		row.Rationale = &rationale.String
	}
	if dueAt.Valid {
		t := dueAt.Time
		row.DueAt = &t
	}
	if decisionAt.Valid {
		t := decisionAt.Time
		row.DecisionAt = &t
	}

	var defects []approval.Defect
	row.Metadata, defects = approval.DecodeMetadata([]byte(metadata.String))
	for _, defect := range defects {
		d.logger.Warn("dropped malformed approval metadata",
			"approval_id", row.ID,
			"field", defect.Field,
			"reason", defect.Reason,
		)
	}

	return &row, nil
}
