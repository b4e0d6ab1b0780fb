package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
	"kinship/internal/relationship"
	"kinship/internal/repository"
	"kinship/internal/security"
	"kinship/internal/validation"
)

// InvitationService handles the invitation lifecycle. An invitation carries a
// connector relationship describing how the invitee relates to the inviter;
// acceptance snapshots the inviter's shareable edges and materializes derived
// edges for the invitee.
type InvitationService struct {
	db             *database.DB
	invitationRepo *repository.InvitationRepository
	edgeRepo       *repository.EdgeRepository
	memberRepo     *repository.MemberRepository
	emailService   *EmailService
	ttl            time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(db *database.DB, invitationRepo *repository.InvitationRepository, edgeRepo *repository.EdgeRepository, memberRepo *repository.MemberRepository, emailService *EmailService, ttl time.Duration) *InvitationService {
	return &InvitationService{
		db:             db,
		invitationRepo: invitationRepo,
		edgeRepo:       edgeRepo,
		memberRepo:     memberRepo,
		emailService:   emailService,
		ttl:            ttl,
	}
}

// PreviewEntry is one member the invitee would gain access to, with the
// relationship the acceptance would record
type PreviewEntry struct {
	Member   models.Member     `json:"member"`
	Relation relationship.Type `json:"relationship_type"`
}

// Create issues a new pending invitation and sends the invite email. The
// connector must be a real relationship; self and unresolved cannot connect
// two accounts. An inviter with no shareable edges may still invite; the
// acceptance will simply materialize nothing.
func (s *InvitationService) Create(ctx context.Context, inviterUserID int64, inviteeEmail string, connector relationship.Type) (*models.Invitation, error) {
	inviteeEmail = normalizeEmail(inviteeEmail)
	if err := validation.ValidateEmail(inviteeEmail); err != nil {
		return nil, err
	}
	if !relationship.ValidConnector(connector) {
		return nil, ErrInvalidRelationship
	}

	token, err := security.GenerateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	inv := &models.Invitation{
		InviterUserID: inviterUserID,
		InviteeEmail:  inviteeEmail,
		Connector:     connector,
		Token:         token,
		ExpiresAt:     time.Now().UTC().Add(s.ttl),
	}
	if _, err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	// Email delivery is best effort; the invitation stands either way
	if err := s.emailService.SendInvitationEmail(ctx, inv); err != nil {
		log.Printf("Failed to send invitation email to %s: %v", inviteeEmail, err)
	}

	return inv, nil
}

// Preview returns a pending invitation together with the members and
// relationships an acceptance would produce. The token alone grants preview
// access; the invitee may not have an account yet.
func (s *InvitationService) Preview(ctx context.Context, token string) (*models.Invitation, []PreviewEntry, error) {
	inv, err := s.getPending(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.snapshot(ctx, s.edgeRepo, s.memberRepo, inv)
	if err != nil {
		return nil, nil, err
	}
	return inv, entries, nil
}

// PreviewForConnector shows an inviter what a prospective invitee with the
// given connector relationship would gain, before any invitation exists
func (s *InvitationService) PreviewForConnector(ctx context.Context, inviterUserID int64, connector relationship.Type) ([]PreviewEntry, error) {
	if !relationship.ValidConnector(connector) {
		return nil, ErrInvalidRelationship
	}
	draft := &models.Invitation{InviterUserID: inviterUserID, Connector: connector}
	return s.snapshot(ctx, s.edgeRepo, s.memberRepo, draft)
}

// Accept transitions a pending invitation to accepted and materializes one
// derived edge per previewed member, all in a single transaction. Accepting
// again returns the same edges, so retries and double-clicks are harmless.
func (s *InvitationService) Accept(ctx context.Context, token string, userID int64, userEmail string) ([]models.Edge, error) {
	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvalidToken
	}

	now := time.Now().UTC()
	if inv.Status == models.StatusPending && inv.IsExpired(now) {
		s.lazyExpire(ctx, inv.ID)
		return nil, ErrInvitationExpired
	}
	if normalizeEmail(userEmail) != inv.InviteeEmail {
		return nil, ErrNotInvitee
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	invitations := s.invitationRepo.WithTx(tx)
	edges := s.edgeRepo.WithTx(tx)

	won, err := invitations.MarkAccepted(ctx, inv.ID, userID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone got there first. If that someone was this user, hand back
		// the edges the earlier accept produced.
		current, err := s.invitationRepo.GetByID(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == models.StatusAccepted &&
			current.InviteeUserID != nil && *current.InviteeUserID == userID {
			return s.edgeRepo.GetByInvitation(ctx, inv.ID)
		}
		return nil, ErrNotPending
	}

	entries, err := s.snapshot(ctx, edges, s.memberRepo.WithTx(tx), inv)
	if err != nil {
		return nil, err
	}

	var created []models.Edge
	for _, entry := range entries {
		exists, err := edges.Exists(ctx, userID, entry.Member.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			// The invitee already knows this member; their existing edge wins
			continue
		}

		invID := inv.ID
		edge := models.Edge{
			UserID:          userID,
			MemberID:        entry.Member.ID,
			Relation:        entry.Relation,
			IsShareable:     false,
			IsManager:       false,
			CreatedByUserID: inv.InviterUserID,
			InvitationID:    &invID,
		}
		if _, err := edges.Create(ctx, &edge); err != nil {
			return nil, err
		}
		created = append(created, edge)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return created, nil
}

// Decline transitions a pending invitation to declined. Only the addressed
// invitee may decline.
func (s *InvitationService) Decline(ctx context.Context, token, userEmail string) error {
	inv, err := s.getPending(ctx, token)
	if err != nil {
		return err
	}
	if normalizeEmail(userEmail) != inv.InviteeEmail {
		return ErrNotInvitee
	}

	ok, err := s.invitationRepo.MarkStatus(ctx, inv.ID, models.StatusDeclined)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

// Revoke transitions a pending invitation to revoked. Only the inviter may
// revoke, and only while the invitation is still pending.
func (s *InvitationService) Revoke(ctx context.Context, invitationID, userID int64) error {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrInvitationNotFound
	}
	if inv.InviterUserID != userID {
		return ErrNoAccess
	}
	if inv.Status == models.StatusPending && inv.IsExpired(time.Now().UTC()) {
		s.lazyExpire(ctx, inv.ID)
		return ErrInvitationExpired
	}

	ok, err := s.invitationRepo.MarkStatus(ctx, inv.ID, models.StatusRevoked)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

// ListForUser returns invitations the user has sent and invitations addressed
// to the user's email
func (s *InvitationService) ListForUser(ctx context.Context, userID int64, email string) (sent, received []models.Invitation, err error) {
	sent, err = s.invitationRepo.ListByInviter(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	received, err = s.invitationRepo.ListByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}
	return sent, received, nil
}

// ExpirePending sweeps pending invitations past their expiry. Called
// periodically; expiry is also enforced lazily on every token lookup, so the
// sweep only keeps listings tidy.
func (s *InvitationService) ExpirePending(ctx context.Context) (int64, error) {
	return s.invitationRepo.ExpirePending(ctx, time.Now())
}

// getPending resolves a token to an invitation that is still actionable
func (s *InvitationService) getPending(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvalidToken
	}
	if inv.IsTerminal() {
		if inv.Status == models.StatusExpired {
			return nil, ErrInvitationExpired
		}
		return nil, ErrNotPending
	}
	if inv.IsExpired(time.Now().UTC()) {
		s.lazyExpire(ctx, inv.ID)
		return nil, ErrInvitationExpired
	}
	return inv, nil
}

// lazyExpire marks an overdue invitation as expired. The wall clock already
// decided the outcome, so a failure here only delays the status catching up.
func (s *InvitationService) lazyExpire(ctx context.Context, id int64) {
	if _, err := s.invitationRepo.MarkStatus(ctx, id, models.StatusExpired); err != nil {
		log.Printf("Failed to mark invitation %d expired: %v", id, err)
	}
}

// snapshot builds the preview entries for an invitation: the inviter's
// shareable edges to active members, each composed with the connector.
// Composition falls back to a generic relative when no rule applies, so an
// entry always carries a usable relationship.
func (s *InvitationService) snapshot(ctx context.Context, edgeRepo *repository.EdgeRepository, memberRepo *repository.MemberRepository, inv *models.Invitation) ([]PreviewEntry, error) {
	shareable, err := edgeRepo.GetShareable(ctx, inv.InviterUserID)
	if err != nil {
		return nil, err
	}

	entries := make([]PreviewEntry, 0, len(shareable))
	for _, edge := range shareable {
		member, err := memberRepo.GetByID(ctx, edge.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil || !member.IsActive {
			continue
		}
		entries = append(entries, PreviewEntry{
			Member:   *member,
			Relation: relationship.Compose(inv.Connector, edge.Relation),
		})
	}
	return entries, nil
}
