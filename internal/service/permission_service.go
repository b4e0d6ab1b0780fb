package service

import (
	"context"
	"fmt"

	"kinship/internal/repository"
)

// PermissionService answers access questions about (user, member) pairs.
// View rights come from having any edge; edit and share rights both come
// from the manager flag.
type PermissionService struct {
	edgeRepo *repository.EdgeRepository
}

// NewPermissionService creates a new permission service
func NewPermissionService(edgeRepo *repository.EdgeRepository) *PermissionService {
	return &PermissionService{edgeRepo: edgeRepo}
}

// CanView reports whether the user has any edge to the member
func (s *PermissionService) CanView(ctx context.Context, userID, memberID int64) (bool, error) {
	exists, err := s.edgeRepo.Exists(ctx, userID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to check view permission: %w", err)
	}
	return exists, nil
}

// CanEdit reports whether the user holds a manager edge to the member
func (s *PermissionService) CanEdit(ctx context.Context, userID, memberID int64) (bool, error) {
	edge, err := s.edgeRepo.Get(ctx, userID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to check edit permission: %w", err)
	}
	return edge != nil && edge.CanEdit(), nil
}

// CanShare reports whether the user may expose the member through
// invitations. Sharing rights follow from manager rights; the shareable flag
// marks which members an invitation snapshot exposes, it does not grant or
// withhold the right itself.
func (s *PermissionService) CanShare(ctx context.Context, userID, memberID int64) (bool, error) {
	return s.CanEdit(ctx, userID, memberID)
}
