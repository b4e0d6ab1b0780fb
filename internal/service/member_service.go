package service

import (
	"context"
	"fmt"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
	"kinship/internal/relationship"
	"kinship/internal/repository"
	"kinship/internal/validation"
)

// MemberService handles family member business logic
type MemberService struct {
	db         *database.DB
	memberRepo *repository.MemberRepository
	edgeRepo   *repository.EdgeRepository
}

// NewMemberService creates a new member service
func NewMemberService(db *database.DB, memberRepo *repository.MemberRepository, edgeRepo *repository.EdgeRepository) *MemberService {
	return &MemberService{
		db:         db,
		memberRepo: memberRepo,
		edgeRepo:   edgeRepo,
	}
}

// MemberWithEdge pairs a member with the requesting user's edge to it
type MemberWithEdge struct {
	Member models.Member `json:"member"`
	Edge   models.Edge   `json:"edge"`
}

// Create inserts a new member and links the creator to it with a manager
// edge in the same transaction. A member is never created without a manager.
func (s *MemberService) Create(ctx context.Context, userID int64, firstName, lastName string, birthDate *time.Time, relation relationship.Type, shareable bool) (*MemberWithEdge, error) {
	if err := validation.ValidateName(firstName); err != nil {
		return nil, err
	}
	if !relationship.Valid(relation) {
		return nil, ErrInvalidRelationship
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member := &models.Member{
		FirstName: firstName,
		LastName:  lastName,
		BirthDate: birthDate,
	}
	if _, err := s.memberRepo.WithTx(tx).Create(ctx, member); err != nil {
		return nil, err
	}

	edge := &models.Edge{
		UserID:          userID,
		MemberID:        member.ID,
		Relation:        relation,
		IsShareable:     shareable,
		IsManager:       true,
		CreatedByUserID: userID,
	}
	if _, err := s.edgeRepo.WithTx(tx).Create(ctx, edge); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &MemberWithEdge{Member: *member, Edge: *edge}, nil
}

// Get returns a member the user has an edge to
func (s *MemberService) Get(ctx context.Context, userID, memberID int64) (*MemberWithEdge, error) {
	edge, err := s.edgeRepo.Get(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, ErrNoAccess
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.IsActive {
		return nil, ErrMemberNotFound
	}
	return &MemberWithEdge{Member: *member, Edge: *edge}, nil
}

// List returns all active members the user has an edge to
func (s *MemberService) List(ctx context.Context, userID int64) ([]MemberWithEdge, error) {
	members, edges, err := s.memberRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]MemberWithEdge, 0, len(members))
	for i := range members {
		result = append(result, MemberWithEdge{Member: members[i], Edge: edges[i]})
	}
	return result, nil
}

// Update changes a member's profile fields. Requires manager rights.
func (s *MemberService) Update(ctx context.Context, userID, memberID int64, firstName, lastName string, birthDate *time.Time) (*models.Member, error) {
	if err := validation.ValidateName(firstName); err != nil {
		return nil, err
	}

	edge, err := s.edgeRepo.Get(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}
	if edge == nil || !edge.CanEdit() {
		return nil, ErrNotManager
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.IsActive {
		return nil, ErrMemberNotFound
	}

	if err := s.memberRepo.Update(ctx, memberID, firstName, lastName, birthDate); err != nil {
		return nil, err
	}

	member.FirstName = firstName
	member.LastName = lastName
	member.BirthDate = birthDate
	return member, nil
}

// Delete removes a member and every edge pointing at it in one transaction.
// Requires manager rights.
func (s *MemberService) Delete(ctx context.Context, userID, memberID int64) error {
	edge, err := s.edgeRepo.Get(ctx, userID, memberID)
	if err != nil {
		return err
	}
	if edge == nil || !edge.CanEdit() {
		return ErrNotManager
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.edgeRepo.WithTx(tx).DeleteForMember(ctx, memberID); err != nil {
		return err
	}
	if err := s.memberRepo.WithTx(tx).Delete(ctx, memberID); err != nil {
		return err
	}
	return tx.Commit()
}
