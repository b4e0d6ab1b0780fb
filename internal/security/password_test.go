package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash should not equal the plaintext")
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("CheckPassword should reject a different password")
	}
}

func TestHashPasswordProducesUniqueHashes(t *testing.T) {
	first, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if first == second {
		t.Error("Two hashes of the same password should differ (salted)")
	}
}
