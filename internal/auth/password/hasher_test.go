package password

import (
	"errors"
	"strings"
	"testing"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h := NewBcryptHasher(WithCost(4)) // low cost keeps the test fast

	digest, err := h.Hash("Secr3t!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if digest == "Secr3t!" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !strings.HasPrefix(digest, "$2") {
		t.Errorf("expected bcrypt digest, got %q", digest)
	}

	if err := h.Verify("Secr3t!", digest); err != nil {
		t.Errorf("Verify with correct password failed: %v", err)
	}
	if err := h.Verify("wrong", digest); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch for wrong password, got %v", err)
	}
}

func TestBcryptHashesAreSalted(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))

	d1, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	d2, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password should differ")
	}
	for _, d := range []string{d1, d2} {
		if err := h.Verify("same-password", d); err != nil {
			t.Errorf("Verify failed for digest %q: %v", d, err)
		}
	}
}

func TestBcryptRejectsEmptyPassword(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))
	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestBcryptMinLength(t *testing.T) {
	h := NewBcryptHasher(WithCost(4), WithMinLength(8))
	if _, err := h.Hash("short"); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if _, err := h.Hash("long enough"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))
	if _, err := h.Hash(strings.Repeat("a", 73)); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong for password over bcrypt's 72-byte limit, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("72 bytes is within the limit, got %v", err)
	}
}

func TestBcryptVerifyMalformedDigest(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))
	for _, digest := range []string{"", "not-a-digest", "$2a$garbage"} {
		if err := h.Verify("anything", digest); !errors.Is(err, ErrMismatch) {
			t.Errorf("digest %q: expected ErrMismatch, got %v", digest, err)
		}
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher(WithArgon2Memory(8 * 1024))

	digest, err := h.Hash("Secr3t!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$") {
		t.Errorf("expected argon2id digest, got %q", digest)
	}

	if err := h.Verify("Secr3t!", digest); err != nil {
		t.Errorf("Verify with correct password failed: %v", err)
	}
	if err := h.Verify("wrong", digest); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch for wrong password, got %v", err)
	}
}

func TestArgon2VerifyMalformedDigest(t *testing.T) {
	h := NewArgon2Hasher()
	malformed := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=bad$salt$hash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	}
	for _, digest := range malformed {
		if err := h.Verify("anything", digest); !errors.Is(err, ErrMismatch) {
			t.Errorf("digest %q: expected ErrMismatch, got %v", digest, err)
		}
	}
}

func TestNewHasherFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default is bcrypt", Config{}, "*password.BcryptHasher"},
		{"bcrypt", Config{Algorithm: AlgorithmBcrypt}, "*password.BcryptHasher"},
		{"argon2id", Config{Algorithm: AlgorithmArgon2id}, "*password.Argon2Hasher"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			h := NewHasher(tc.cfg)
			if h == nil {
				t.Fatal("NewHasher returned nil")
			}
			switch tc.want {
			case "*password.BcryptHasher":
				if _, ok := h.(*BcryptHasher); !ok {
					t.Errorf("expected BcryptHasher, got %T", h)
				}
			case "*password.Argon2Hasher":
				if _, ok := h.(*Argon2Hasher); !ok {
					t.Errorf("expected Argon2Hasher, got %T", h)
				}
			}
		})
	}
}
