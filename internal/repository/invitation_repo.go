package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
)

const invitationColumns = `i.id, i.inviter_user_id, i.invitee_email, i.invitee_user_id,
	i.connector_relationship, i.token, i.status, i.expires_at, i.responded_at,
	i.created_at, i.updated_at, u.name`

// InvitationRepository handles invitation persistence. Status transitions out
// of pending go through compare-and-set updates so concurrent responders
// cannot both win.
type InvitationRepository struct {
	q database.Queryer
}

func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *InvitationRepository) WithTx(tx *database.Tx) *InvitationRepository {
	return &InvitationRepository{q: tx}
}

func scanInvitation(row *sql.Row) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := row.Scan(
		&inv.ID, &inv.InviterUserID, &inv.InviteeEmail, &inv.InviteeUserID,
		&inv.Connector, &inv.Token, &inv.Status, &inv.ExpiresAt, &inv.RespondedAt,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.InviterName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}
	return inv, nil
}

// Create inserts a new pending invitation and returns the assigned ID
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) (int64, error) {
	now := time.Now().UTC()
	id, err := r.q.ExecReturningID(ctx, `
		INSERT INTO invitations (inviter_user_id, invitee_email, connector_relationship,
			token, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.InviterUserID, inv.InviteeEmail, string(inv.Connector),
		inv.Token, string(models.StatusPending), inv.ExpiresAt, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create invitation: %w", err)
	}
	inv.ID = id
	inv.Status = models.StatusPending
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return id, nil
}

// GetByToken returns the invitation with the given token, or nil if none
// exists. The inviter's name is joined in for display.
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	return scanInvitation(r.q.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		INNER JOIN users u ON u.id = i.inviter_user_id
		WHERE i.token = ?`, token))
}

// GetByID returns the invitation with the given ID, or nil if none exists
func (r *InvitationRepository) GetByID(ctx context.Context, id int64) (*models.Invitation, error) {
	return scanInvitation(r.q.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		INNER JOIN users u ON u.id = i.inviter_user_id
		WHERE i.id = ?`, id))
}

func (r *InvitationRepository) list(ctx context.Context, where string, arg interface{}) ([]models.Invitation, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		INNER JOIN users u ON u.id = i.inviter_user_id
		WHERE `+where+`
		ORDER BY i.created_at DESC, i.id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(
			&inv.ID, &inv.InviterUserID, &inv.InviteeEmail, &inv.InviteeUserID,
			&inv.Connector, &inv.Token, &inv.Status, &inv.ExpiresAt, &inv.RespondedAt,
			&inv.CreatedAt, &inv.UpdatedAt, &inv.InviterName); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// ListByInviter returns all invitations sent by a user, newest first
func (r *InvitationRepository) ListByInviter(ctx context.Context, userID int64) ([]models.Invitation, error) {
	return r.list(ctx, "i.inviter_user_id = ?", userID)
}

// ListByEmail returns all invitations addressed to an email, newest first
func (r *InvitationRepository) ListByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	return r.list(ctx, "i.invitee_email = ?", email)
}

// MarkAccepted transitions a pending invitation to accepted and records the
// accepting user. Returns false if the invitation was no longer pending, which
// is how concurrent accepts are serialized.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id, inviteeUserID int64) (bool, error) {
	now := time.Now().UTC()
	result, err := r.q.ExecContext(ctx, `
		UPDATE invitations
		SET status = ?, invitee_user_id = ?, responded_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(models.StatusAccepted), inviteeUserID, now, now, id, string(models.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkStatus transitions a pending invitation to the given terminal status.
// Returns false if the invitation was no longer pending.
func (r *InvitationRepository) MarkStatus(ctx context.Context, id int64, status models.InvitationStatus) (bool, error) {
	now := time.Now().UTC()
	result, err := r.q.ExecContext(ctx, `
		UPDATE invitations
		SET status = ?, responded_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(status), now, now, id, string(models.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to update invitation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ExpirePending marks every pending invitation past its expiry as expired and
// returns how many rows changed
func (r *InvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE invitations SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at < ?`,
		string(models.StatusExpired), now.UTC(), string(models.StatusPending), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return result.RowsAffected()
}
