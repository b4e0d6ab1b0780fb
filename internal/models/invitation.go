package models

import (
	"time"

	"kinship/internal/relationship"
)

// InvitationStatus is the lifecycle state of an invitation. Pending is the
// only non-terminal state.
type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusDeclined InvitationStatus = "declined"
	StatusExpired  InvitationStatus = "expired"
	StatusRevoked  InvitationStatus = "revoked"
)

type Invitation struct {
	ID            int64             `json:"id"`
	InviterUserID int64             `json:"inviter_user_id"`
	InviteeEmail  string            `json:"invitee_email"`
	InviteeUserID *int64            `json:"invitee_user_id,omitempty"`
	Connector     relationship.Type `json:"connector_relationship"`
	Token         string            `json:"token"`
	Status        InvitationStatus  `json:"status"`
	ExpiresAt     time.Time         `json:"expires_at"`
	RespondedAt   *time.Time        `json:"responded_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	InviterName string `json:"inviter_name,omitempty"` // Populated via JOIN
}

// IsExpired reports whether the expiry timestamp has passed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsPending reports whether the invitation can still be accepted or declined.
func (i *Invitation) IsPending(now time.Time) bool {
	return i.Status == StatusPending && !i.IsExpired(now)
}

// IsTerminal reports whether the invitation has reached a final state.
// No transition out of a terminal state is allowed.
func (i *Invitation) IsTerminal() bool {
	return i.Status != StatusPending
}
