package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
	"kinship/internal/relationship"
	"kinship/internal/repository"
)

// testEnv wires repositories and services over a throwaway SQLite database
type testEnv struct {
	db          *database.DB
	users       *repository.UserRepository
	members     *repository.MemberRepository
	edges       *repository.EdgeRepository
	invitations *repository.InvitationRepository

	memberService     *MemberService
	edgeService       *EdgeService
	invitationService *InvitationService
	permissionService *PermissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background(), "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	users := repository.NewUserRepository(db)
	members := repository.NewMemberRepository(db)
	edges := repository.NewEdgeRepository(db)
	invitations := repository.NewInvitationRepository(db)

	email, err := NewEmailService("us-east-1", "", "", "http://localhost:8080")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	return &testEnv{
		db:          db,
		users:       users,
		members:     members,
		edges:       edges,
		invitations: invitations,

		memberService:     NewMemberService(db, members, edges),
		edgeService:       NewEdgeService(db, edges, members),
		invitationService: NewInvitationService(db, invitations, edges, members, email, 7*24*time.Hour),
		permissionService: NewPermissionService(edges),
	}
}

func (env *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := env.users.Create(context.Background(), email, "hash", "Test User")
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

func (env *testEnv) createMember(t *testing.T, userID int64, firstName string, relation relationship.Type, shareable bool) *MemberWithEdge {
	t.Helper()
	result, err := env.memberService.Create(context.Background(), userID, firstName, "Test", nil, relation, shareable)
	if err != nil {
		t.Fatalf("Failed to create member %s: %v", firstName, err)
	}
	return result
}
