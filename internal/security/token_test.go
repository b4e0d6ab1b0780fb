package security

import (
	"testing"
	"time"
)

func TestGenerateInvitationToken(t *testing.T) {
	first, err := GenerateInvitationToken()
	if err != nil {
		t.Fatalf("GenerateInvitationToken failed: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("Expected 64-char token, got %d chars", len(first))
	}

	second, err := GenerateInvitationToken()
	if err != nil {
		t.Fatalf("GenerateInvitationToken failed: %v", err)
	}
	if first == second {
		t.Error("Tokens should be unique")
	}
}

func TestAPITokenRoundTrip(t *testing.T) {
	token, err := IssueAPIToken("secret", 42, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAPIToken failed: %v", err)
	}

	claims, err := ParseAPIToken("secret", token)
	if err != nil {
		t.Fatalf("ParseAPIToken failed: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Expected email claim, got %s", claims.Email)
	}

	userID, err := UserIDFromClaims(claims)
	if err != nil {
		t.Fatalf("UserIDFromClaims failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user 42, got %d", userID)
	}
}

func TestParseAPITokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueAPIToken("secret", 42, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAPIToken failed: %v", err)
	}
	if _, err := ParseAPIToken("different-secret", token); err != ErrInvalidAPIToken {
		t.Fatalf("Expected ErrInvalidAPIToken, got %v", err)
	}
}

func TestParseAPITokenRejectsExpired(t *testing.T) {
	token, err := IssueAPIToken("secret", 42, "user@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAPIToken failed: %v", err)
	}
	if _, err := ParseAPIToken("secret", token); err != ErrInvalidAPIToken {
		t.Fatalf("Expected ErrInvalidAPIToken for expired token, got %v", err)
	}
}
