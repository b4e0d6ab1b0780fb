package service

import (
	"context"
	"fmt"

	"kinship/internal/database"
	"kinship/internal/models"
	"kinship/internal/relationship"
	"kinship/internal/repository"
)

// EdgeService handles relationship edge business logic
type EdgeService struct {
	db         *database.DB
	edgeRepo   *repository.EdgeRepository
	memberRepo *repository.MemberRepository
}

// NewEdgeService creates a new edge service
func NewEdgeService(db *database.DB, edgeRepo *repository.EdgeRepository, memberRepo *repository.MemberRepository) *EdgeService {
	return &EdgeService{
		db:         db,
		edgeRepo:   edgeRepo,
		memberRepo: memberRepo,
	}
}

// CreateEdge links a user to an existing member. The acting user must hold a
// manager edge to the member; the target user must not already be linked.
// A shareable flag without manager is coerced off since sharing rights are a
// subset of manager rights.
func (s *EdgeService) CreateEdge(ctx context.Context, actingUserID, targetUserID, memberID int64, relation relationship.Type, shareable, manager bool) (*models.Edge, error) {
	if !relationship.Valid(relation) {
		return nil, ErrInvalidRelationship
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.IsActive {
		return nil, ErrMemberNotFound
	}

	actingEdge, err := s.edgeRepo.Get(ctx, actingUserID, memberID)
	if err != nil {
		return nil, err
	}
	if actingEdge == nil || !actingEdge.CanEdit() {
		return nil, ErrNotManager
	}

	exists, err := s.edgeRepo.Exists(ctx, targetUserID, memberID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEdge
	}

	edge := &models.Edge{
		UserID:          targetUserID,
		MemberID:        memberID,
		Relation:        relation,
		IsShareable:     shareable && manager,
		IsManager:       manager,
		CreatedByUserID: actingUserID,
	}
	if _, err := s.edgeRepo.Create(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// ListForUser returns all of a user's own edges
func (s *EdgeService) ListForUser(ctx context.Context, userID int64) ([]models.Edge, error) {
	return s.edgeRepo.GetForUser(ctx, userID)
}

// ListForMember returns all edges pointing at a member. The acting user needs
// an edge to the member to see them.
func (s *EdgeService) ListForMember(ctx context.Context, actingUserID, memberID int64) ([]models.Edge, error) {
	hasAccess, err := s.edgeRepo.Exists(ctx, actingUserID, memberID)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		return nil, ErrNoAccess
	}
	return s.edgeRepo.GetForMember(ctx, memberID)
}

// UpdateFlags changes the shareable and manager flags on an edge. A nil flag
// leaves the current value in place, so partial updates never reset the other
// flag. Demoting the member's only manager is rejected so every member keeps
// at least one.
func (s *EdgeService) UpdateFlags(ctx context.Context, actingUserID, targetUserID, memberID int64, shareable, manager *bool) (*models.Edge, error) {
	actingEdge, err := s.edgeRepo.Get(ctx, actingUserID, memberID)
	if err != nil {
		return nil, err
	}
	if actingEdge == nil || !actingEdge.CanEdit() {
		return nil, ErrNotManager
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	edges := s.edgeRepo.WithTx(tx)

	edge, err := edges.Get(ctx, targetUserID, memberID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, ErrEdgeNotFound
	}

	newManager := edge.IsManager
	if manager != nil {
		newManager = *manager
	}
	newShareable := edge.IsShareable
	if shareable != nil {
		newShareable = *shareable
	}

	if edge.IsManager && !newManager {
		managers, err := edges.CountManagers(ctx, memberID)
		if err != nil {
			return nil, err
		}
		if managers <= 1 {
			return nil, ErrLastManager
		}
	}

	// Shareable without manager would grant snapshot exposure the edge holder
	// could not exercise
	newShareable = newShareable && newManager
	if err := edges.SetFlags(ctx, targetUserID, memberID, newShareable, newManager); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	edge.IsShareable = newShareable
	edge.IsManager = newManager
	return edge, nil
}

// DeleteEdge removes a user's edge to a member. Users may always delete their
// own edge; deleting someone else's requires manager rights. When the deleted
// edge was the member's last manager edge the member and its remaining edges
// are removed in the same transaction so no member is left unmanageable.
func (s *EdgeService) DeleteEdge(ctx context.Context, actingUserID, targetUserID, memberID int64) error {
	if actingUserID != targetUserID {
		actingEdge, err := s.edgeRepo.Get(ctx, actingUserID, memberID)
		if err != nil {
			return err
		}
		if actingEdge == nil || !actingEdge.CanEdit() {
			return ErrNotManager
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	edges := s.edgeRepo.WithTx(tx)

	edge, err := edges.Get(ctx, targetUserID, memberID)
	if err != nil {
		return err
	}
	if edge == nil {
		return ErrEdgeNotFound
	}

	deleted, err := edges.Delete(ctx, targetUserID, memberID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEdgeNotFound
	}

	if edge.IsManager {
		managers, err := edges.CountManagers(ctx, memberID)
		if err != nil {
			return err
		}
		if managers == 0 {
			if err := edges.DeleteForMember(ctx, memberID); err != nil {
				return err
			}
			if err := s.memberRepo.WithTx(tx).Delete(ctx, memberID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
