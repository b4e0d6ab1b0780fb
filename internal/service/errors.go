package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrInvitationNotFound = errors.New("invitation not found")

	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrDuplicateEdge       = errors.New("an edge already exists for this user and member")
	ErrNotManager          = errors.New("user is not a manager of this member")
	ErrNoAccess            = errors.New("user has no edge to this member")
	ErrLastManager         = errors.New("cannot remove the last manager of a member")
	ErrInvalidRelationship = errors.New("invalid relationship type")

	ErrInvalidToken      = errors.New("invitation token not recognized")
	ErrInvitationExpired = errors.New("invitation has expired")
	ErrNotPending        = errors.New("invitation is no longer pending")
	ErrNotInvitee        = errors.New("invitation is addressed to a different email")
)
