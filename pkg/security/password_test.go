package security_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateLicenseKeyShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{4}(-[0-9A-F]{4}){3}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		key := security.GenerateLicenseKey()
		if !pattern.MatchString(key) {
			t.Fatalf("unexpected key shape %q", key)
		}
		seen[key] = struct{}{}
	}
	if len(seen) < 20 {
		t.Fatalf("expected unique keys, got %d distinct", len(seen))
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(16)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if len(pw) != 16 {
		t.Fatalf("expected 16 chars, got %d", len(pw))
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestNeedsRehashTracksConfig(t *testing.T) {
	cfg := config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("inventory-owner", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if security.NeedsRehash(hash, cfg) {
		t.Fatal("hash built from the same config should not need a rehash")
	}

	stronger := cfg
	stronger.ArgonTime = 2
	if !security.NeedsRehash(hash, stronger) {
		t.Fatal("raising the time cost should require a rehash")
	}
	if !security.NeedsRehash("not-a-hash", cfg) {
		t.Fatal("malformed hashes always need a rehash")
	}
}

func TestVerifyPasswordRejectsWrongVersion(t *testing.T) {
	cfg := config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("inventory-owner", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	tampered := strings.Replace(hash, "$v=19$", "$v=16$", 1)
	if _, err := security.VerifyPassword("inventory-owner", tampered); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}
