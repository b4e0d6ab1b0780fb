package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
)

const edgeColumns = `id, user_id, member_id, relation, is_shareable, is_manager,
	created_by_user_id, invitation_id, created_at, updated_at`

// EdgeRepository handles relationship edge persistence. The database enforces
// at most one edge per (user, member) pair.
type EdgeRepository struct {
	q database.Queryer
}

func NewEdgeRepository(db *database.DB) *EdgeRepository {
	return &EdgeRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *EdgeRepository) WithTx(tx *database.Tx) *EdgeRepository {
	return &EdgeRepository{q: tx}
}

func scanEdge(row *sql.Row) (*models.Edge, error) {
	e := &models.Edge{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.MemberID, &e.Relation, &e.IsShareable, &e.IsManager,
		&e.CreatedByUserID, &e.InvitationID, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan edge: %w", err)
	}
	return e, nil
}

func collectEdges(rows *sql.Rows) ([]models.Edge, error) {
	defer rows.Close()
	var edges []models.Edge
	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.MemberID, &e.Relation, &e.IsShareable, &e.IsManager,
			&e.CreatedByUserID, &e.InvitationID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Create inserts a new edge and returns the assigned ID. A duplicate
// (user, member) pair fails on the unique constraint.
func (r *EdgeRepository) Create(ctx context.Context, e *models.Edge) (int64, error) {
	now := time.Now().UTC()
	id, err := r.q.ExecReturningID(ctx, `
		INSERT INTO edges (user_id, member_id, relation, is_shareable, is_manager,
			created_by_user_id, invitation_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.MemberID, string(e.Relation), e.IsShareable, e.IsManager,
		e.CreatedByUserID, e.InvitationID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create edge: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return id, nil
}

// Get returns the edge for the (user, member) pair, or nil if none exists
func (r *EdgeRepository) Get(ctx context.Context, userID, memberID int64) (*models.Edge, error) {
	return scanEdge(r.q.QueryRowContext(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE user_id = ? AND member_id = ?`, userID, memberID))
}

// Exists reports whether an edge exists for the (user, member) pair
func (r *EdgeRepository) Exists(ctx context.Context, userID, memberID int64) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM edges WHERE user_id = ? AND member_id = ?`,
		userID, memberID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check edge: %w", err)
	}
	return count > 0, nil
}

// GetForUser returns all of a user's edges ordered by creation time
func (r *EdgeRepository) GetForUser(ctx context.Context, userID int64) ([]models.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges for user: %w", err)
	}
	return collectEdges(rows)
}

// GetForMember returns all edges pointing at a member ordered by creation time
func (r *EdgeRepository) GetForMember(ctx context.Context, memberID int64) ([]models.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE member_id = ? ORDER BY created_at, id`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges for member: %w", err)
	}
	return collectEdges(rows)
}

// GetShareable returns the user's edges to active members that are both
// manager and shareable. These are the edges an invitation snapshot is
// built from.
func (r *EdgeRepository) GetShareable(ctx context.Context, userID int64) ([]models.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT e.id, e.user_id, e.member_id, e.relation, e.is_shareable, e.is_manager,
		       e.created_by_user_id, e.invitation_id, e.created_at, e.updated_at
		FROM edges e
		INNER JOIN members m ON m.id = e.member_id
		WHERE e.user_id = ? AND e.is_manager = TRUE AND e.is_shareable = TRUE AND m.is_active = TRUE
		ORDER BY e.created_at, e.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shareable edges: %w", err)
	}
	return collectEdges(rows)
}

// GetByInvitation returns the edges materialized by an invitation acceptance
func (r *EdgeRepository) GetByInvitation(ctx context.Context, invitationID int64) ([]models.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE invitation_id = ? ORDER BY created_at, id`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges for invitation: %w", err)
	}
	return collectEdges(rows)
}

// CountManagers returns how many manager edges point at a member
func (r *EdgeRepository) CountManagers(ctx context.Context, memberID int64) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM edges WHERE member_id = ? AND is_manager = TRUE`,
		memberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count managers: %w", err)
	}
	return count, nil
}

// SetFlags updates the shareable and manager flags on an edge
func (r *EdgeRepository) SetFlags(ctx context.Context, userID, memberID int64, shareable, manager bool) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE edges SET is_shareable = ?, is_manager = ?, updated_at = ?
		WHERE user_id = ? AND member_id = ?`,
		shareable, manager, time.Now().UTC(), userID, memberID)
	if err != nil {
		return fmt.Errorf("failed to update edge flags: %w", err)
	}
	return nil
}

// Delete removes the edge for the (user, member) pair and reports whether a
// row was deleted
func (r *EdgeRepository) Delete(ctx context.Context, userID, memberID int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM edges WHERE user_id = ? AND member_id = ?`, userID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to delete edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteForMember removes every edge pointing at a member
func (r *EdgeRepository) DeleteForMember(ctx context.Context, memberID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM edges WHERE member_id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete edges for member: %w", err)
	}
	return nil
}
