package password

import (
	"strings"
	"testing"
)

// TestHashAndVerify checks the bcrypt round trip
func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("Hash returned the plain password")
	}

	if !Verify("correct-horse", hash) {
		t.Error("Verify rejected the correct password")
	}
	if Verify("wrong-horse", hash) {
		t.Error("Verify accepted a wrong password")
	}
}

// TestHashToken checks the refresh token hash is deterministic hex
func TestHashToken(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	if a != b {
		t.Error("HashToken is not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("HashToken length = %d, want 64", len(a))
	}
	if HashToken("another-token") == a {
		t.Error("different tokens produced the same hash")
	}
}

// TestValidatePassword enforces the minimum length
func TestValidatePassword(t *testing.T) {
	if ValidatePassword("short") {
		t.Error("ValidatePassword accepted a 5-char password")
	}
	if !ValidatePassword("longenough") {
		t.Error("ValidatePassword rejected a valid password")
	}
}

// TestGenerate checks generated credentials honor the length and stay
// within the unambiguous alphabet.
func TestGenerate(t *testing.T) {
	pw, err := Generate(10)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(pw) != 10 {
		t.Errorf("Generate(10) length = %d, want 10", len(pw))
	}
	for _, r := range pw {
		if !strings.ContainsRune(generatedAlphabet, r) {
			t.Errorf("generated password contains %q, outside the alphabet", r)
		}
	}

	// Requests below the minimum are bumped to 8.
	pw, err = Generate(3)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(pw) != 8 {
		t.Errorf("Generate(3) length = %d, want 8", len(pw))
	}
}
