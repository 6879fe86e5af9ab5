package crypto

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !VerifyPassword(hash, "secret1") {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword(hash, "secret2") {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if first == "" || second == "" {
		t.Fatal("tokens must not be empty")
	}
	if first == second {
		t.Fatal("tokens must be random")
	}
}
