package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
)

// MemberRepository handles family member persistence. Members carry no owner
// column; who can see or manage a member is expressed entirely through edges.
type MemberRepository struct {
	q database.Queryer
}

func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *MemberRepository) WithTx(tx *database.Tx) *MemberRepository {
	return &MemberRepository{q: tx}
}

// Create inserts a new member and returns the assigned ID
func (r *MemberRepository) Create(ctx context.Context, m *models.Member) (int64, error) {
	now := time.Now().UTC()
	id, err := r.q.ExecReturningID(ctx, `
		INSERT INTO members (first_name, last_name, birth_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.FirstName, m.LastName, m.BirthDate, true, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create member: %w", err)
	}
	m.ID = id
	m.IsActive = true
	m.CreatedAt = now
	m.UpdatedAt = now
	return id, nil
}

// GetByID returns the member with the given ID, or nil if none exists
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	m := &models.Member{}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, birth_date, is_active, created_at, updated_at
		FROM members WHERE id = ?`, id).Scan(
		&m.ID, &m.FirstName, &m.LastName, &m.BirthDate, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Update changes the member's profile fields
func (r *MemberRepository) Update(ctx context.Context, id int64, firstName, lastName string, birthDate *time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE members SET first_name = ?, last_name = ?, birth_date = ?, updated_at = ?
		WHERE id = ?`,
		firstName, lastName, birthDate, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// Delete removes the member row. Edge cleanup is the caller's responsibility
// and must happen in the same transaction.
func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// ListForUser returns all active members the user has an edge to, each paired
// with that edge, ordered by edge creation time.
func (r *MemberRepository) ListForUser(ctx context.Context, userID int64) ([]models.Member, []models.Edge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT m.id, m.first_name, m.last_name, m.birth_date, m.is_active, m.created_at, m.updated_at,
		       e.id, e.user_id, e.member_id, e.relation, e.is_shareable, e.is_manager,
		       e.created_by_user_id, e.invitation_id, e.created_at, e.updated_at
		FROM members m
		INNER JOIN edges e ON e.member_id = m.id
		WHERE e.user_id = ? AND m.is_active = TRUE
		ORDER BY e.created_at, e.id`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	var edges []models.Edge
	for rows.Next() {
		var m models.Member
		var e models.Edge
		if err := rows.Scan(
			&m.ID, &m.FirstName, &m.LastName, &m.BirthDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
			&e.ID, &e.UserID, &e.MemberID, &e.Relation, &e.IsShareable, &e.IsManager,
			&e.CreatedByUserID, &e.InvitationID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
		edges = append(edges, e)
	}
	return members, edges, rows.Err()
}
