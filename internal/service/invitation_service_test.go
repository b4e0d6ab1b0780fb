package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kinship/internal/models"
	"kinship/internal/relationship"
)

func TestInvitationAcceptMaterializesEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")

	// Two shareable members and one the inviter keeps private
	child := env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)
	parent := env.createMember(t, inviter.ID, "Pat", relationship.Parent, true)
	env.createMember(t, inviter.ID, "Priva", relationship.Sibling, false)

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if inv.Status != models.StatusPending {
		t.Fatalf("Expected pending status, got %s", inv.Status)
	}
	if len(inv.Token) != 64 {
		t.Fatalf("Expected 64-char token, got %d chars", len(inv.Token))
	}

	edges, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
	if err != nil {
		t.Fatalf("Failed to accept invitation: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(edges))
	}

	byMember := map[int64]relationship.Type{}
	for _, e := range edges {
		byMember[e.MemberID] = e.Relation
		if e.IsManager || e.IsShareable {
			t.Errorf("Derived edge should carry no rights, got manager=%v shareable=%v", e.IsManager, e.IsShareable)
		}
		if e.InvitationID == nil || *e.InvitationID != inv.ID {
			t.Errorf("Derived edge should record its invitation")
		}
	}
	if byMember[child.Member.ID] != relationship.StepChild {
		t.Errorf("Expected step_child for shared child, got %s", byMember[child.Member.ID])
	}
	if byMember[parent.Member.ID] != relationship.StepParent {
		t.Errorf("Expected step_parent for shared parent, got %s", byMember[parent.Member.ID])
	}

	stored, err := env.invitations.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Failed to reload invitation: %v", err)
	}
	if stored.Status != models.StatusAccepted {
		t.Errorf("Expected accepted status, got %s", stored.Status)
	}
	if stored.InviteeUserID == nil || *stored.InviteeUserID != invitee.ID {
		t.Errorf("Expected invitee user id to be recorded")
	}
}

func TestInvitationAcceptIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	first, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
	if err != nil {
		t.Fatalf("First accept failed: %v", err)
	}
	second, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
	if err != nil {
		t.Fatalf("Second accept failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected identical edge sets, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Edge %d differs between accepts: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
}

func TestInvitationAcceptConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	// Two racing accepts: the status update decides a winner, the loser
	// must settle on the winner's edges
	results := make([][]models.Edge, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Accept %d failed: %v", i, err)
		}
	}
	if len(results[0]) != 1 || len(results[1]) != 1 {
		t.Fatalf("Expected 1 edge from each accept, got %d and %d", len(results[0]), len(results[1]))
	}
	if results[0][0].ID != results[1][0].ID {
		t.Errorf("Accepts returned different edges: %d vs %d", results[0][0].ID, results[1][0].ID)
	}

	// Exactly one edge was materialized
	edges, err := env.edges.GetByInvitation(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Failed to load edges: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("Expected 1 materialized edge, got %d", len(edges))
	}
}

func TestInvitationAcceptByWrongUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")
	stranger := env.createUser(t, "stranger@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	if _, err := env.invitationService.Accept(ctx, inv.Token, stranger.ID, stranger.Email); !errors.Is(err, ErrNotInvitee) {
		t.Fatalf("Expected ErrNotInvitee, got %v", err)
	}

	// A losing accept attempt by another user must not consume the invitation
	if _, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email); err != nil {
		t.Fatalf("Invitee accept after stranger attempt failed: %v", err)
	}
}

func TestInvitationAcceptSkipsExistingEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")

	shared := env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	// The invitee already relates to the shared member directly
	if _, err := env.edgeService.CreateEdge(ctx, inviter.ID, invitee.ID, shared.Member.ID, relationship.Guardian, false, false); err != nil {
		t.Fatalf("Failed to pre-link invitee: %v", err)
	}

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	edges, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("Expected no new edges, got %d", len(edges))
	}

	// The pre-existing edge keeps its relationship
	existing, err := env.edges.Get(ctx, invitee.ID, shared.Member.ID)
	if err != nil {
		t.Fatalf("Failed to reload edge: %v", err)
	}
	if existing.Relation != relationship.Guardian {
		t.Errorf("Existing edge was overwritten: got %s", existing.Relation)
	}
	if existing.InvitationID != nil {
		t.Errorf("Existing edge should not be attributed to the invitation")
	}
}

func TestInvitationAcceptWithNothingShared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Sibling)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	edges, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("Expected no edges, got %d", len(edges))
	}

	stored, _ := env.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.StatusAccepted {
		t.Errorf("Expected accepted status, got %s", stored.Status)
	}
}

func TestInvitationExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	// Same wiring with an already-elapsed TTL
	email, _ := NewEmailService("us-east-1", "", "", "http://localhost:8080")
	expiredService := NewInvitationService(env.db, env.invitations, env.edges, env.members, email, -time.Hour)

	inv, err := expiredService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	if _, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email); !errors.Is(err, ErrInvitationExpired) {
		t.Fatalf("Expected ErrInvitationExpired, got %v", err)
	}

	// The failed accept should have settled the stored status
	stored, _ := env.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.StatusExpired {
		t.Errorf("Expected expired status after lazy expiry, got %s", stored.Status)
	}

	if _, _, err := env.invitationService.Preview(ctx, inv.Token); !errors.Is(err, ErrInvitationExpired) {
		t.Errorf("Expected ErrInvitationExpired on preview, got %v", err)
	}
}

func TestInvitationExpirePendingSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")

	email, _ := NewEmailService("us-east-1", "", "", "http://localhost:8080")
	expiredService := NewInvitationService(env.db, env.invitations, env.edges, env.members, email, -time.Hour)

	if _, err := expiredService.Create(ctx, inviter.ID, "a@example.com", relationship.Spouse); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}
	if _, err := env.invitationService.Create(ctx, inviter.ID, "b@example.com", relationship.Spouse); err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	n, err := env.invitationService.ExpirePending(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 expired invitation, got %d", n)
	}
}

func TestInvitationDecline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	if err := env.invitationService.Decline(ctx, inv.Token, "someone-else@example.com"); !errors.Is(err, ErrNotInvitee) {
		t.Fatalf("Expected ErrNotInvitee, got %v", err)
	}
	if err := env.invitationService.Decline(ctx, inv.Token, invitee.Email); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	// Declined is terminal
	if _, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email); !errors.Is(err, ErrNotPending) {
		t.Fatalf("Expected ErrNotPending after decline, got %v", err)
	}

	// No edges were materialized
	edges, _ := env.edges.GetByInvitation(ctx, inv.ID)
	if len(edges) != 0 {
		t.Errorf("Expected no edges after decline, got %d", len(edges))
	}
}

func TestInvitationRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	invitee := env.createUser(t, "invitee@example.com")

	inv, err := env.invitationService.Create(ctx, inviter.ID, invitee.Email, relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	if err := env.invitationService.Revoke(ctx, inv.ID, invitee.ID); !errors.Is(err, ErrNoAccess) {
		t.Fatalf("Expected ErrNoAccess for non-inviter revoke, got %v", err)
	}
	if err := env.invitationService.Revoke(ctx, inv.ID, inviter.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := env.invitationService.Revoke(ctx, inv.ID, inviter.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("Expected ErrNotPending on second revoke, got %v", err)
	}

	if _, err := env.invitationService.Accept(ctx, inv.Token, invitee.ID, invitee.Email); !errors.Is(err, ErrNotPending) {
		t.Fatalf("Expected ErrNotPending after revoke, got %v", err)
	}
}

func TestInvitationPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	child := env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)
	env.createMember(t, inviter.ID, "Priva", relationship.Sibling, false)

	inv, err := env.invitationService.Create(ctx, inviter.ID, "new-user@example.com", relationship.Spouse)
	if err != nil {
		t.Fatalf("Failed to create invitation: %v", err)
	}

	loaded, preview, err := env.invitationService.Preview(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if loaded.InviterName == "" {
		t.Errorf("Expected inviter name to be populated")
	}
	if len(preview) != 1 {
		t.Fatalf("Expected 1 preview entry, got %d", len(preview))
	}
	if preview[0].Member.ID != child.Member.ID || preview[0].Relation != relationship.StepChild {
		t.Errorf("Unexpected preview entry: member=%d relation=%s", preview[0].Member.ID, preview[0].Relation)
	}

	// Preview must not materialize anything or consume the invitation
	edges, _ := env.edges.GetByInvitation(ctx, inv.ID)
	if len(edges) != 0 {
		t.Errorf("Preview created edges")
	}
	stored, _ := env.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("Preview changed status to %s", stored.Status)
	}

	if _, _, err := env.invitationService.Preview(ctx, "no-such-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestPreviewForConnector(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")
	env.createMember(t, inviter.ID, "Charlie", relationship.Child, true)
	env.createMember(t, inviter.ID, "Pat", relationship.Parent, true)

	preview, err := env.invitationService.PreviewForConnector(ctx, inviter.ID, relationship.Spouse)
	if err != nil {
		t.Fatalf("PreviewForConnector failed: %v", err)
	}
	if len(preview) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(preview))
	}

	relations := map[relationship.Type]bool{}
	for _, entry := range preview {
		relations[entry.Relation] = true
	}
	if !relations[relationship.StepChild] || !relations[relationship.StepParent] {
		t.Errorf("Unexpected relations in preview: %v", relations)
	}

	if _, err := env.invitationService.PreviewForConnector(ctx, inviter.ID, relationship.Self); !errors.Is(err, ErrInvalidRelationship) {
		t.Errorf("Expected ErrInvalidRelationship for self connector, got %v", err)
	}
}

func TestInvitationCreateRejectsBadConnector(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inviter := env.createUser(t, "inviter@example.com")

	for _, connector := range []relationship.Type{relationship.Self, relationship.Unresolved, relationship.Type("alien")} {
		if _, err := env.invitationService.Create(ctx, inviter.ID, "x@example.com", connector); !errors.Is(err, ErrInvalidRelationship) {
			t.Errorf("Connector %q: expected ErrInvalidRelationship, got %v", connector, err)
		}
	}
}
