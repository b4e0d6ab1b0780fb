package models

import (
	"time"

	"kinship/internal/relationship"
)

// Edge is a stored relationship between a user and a member. At most one
// edge exists per (user, member) pair.
type Edge struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	MemberID        int64             `json:"member_id"`
	Relation        relationship.Type `json:"relationship_type"`
	IsShareable     bool              `json:"is_shareable"`
	IsManager       bool              `json:"is_manager"`
	CreatedByUserID int64             `json:"created_by_user_id"`
	InvitationID    *int64            `json:"invitation_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CanEdit reports whether the edge grants edit/delete rights on the member.
// Sharing rights follow from the same flag.
func (e *Edge) CanEdit() bool {
	return e.IsManager
}

// Exposed reports whether the edge contributes the member to invitation
// snapshots. Only a manager edge flagged shareable exposes anything.
func (e *Edge) Exposed() bool {
	return e.IsManager && e.IsShareable
}

// IsDerived reports whether the edge was materialized by an invitation
// acceptance rather than created directly.
func (e *Edge) IsDerived() bool {
	return e.InvitationID != nil
}
