package token

import (
	"strings"
	"testing"
)

func TestTokenGenerator_Generate(t *testing.T) {
	generator := NewTokenGenerator()

	tests := []struct {
		name   string
		prefix string
	}{
		{
			name:   "generate state token",
			prefix: PrefixState,
		},
		{
			name:   "generate custom prefix token",
			prefix: "custom_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plainToken, hash, err := generator.Generate(tt.prefix)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			if !strings.HasPrefix(plainToken, tt.prefix) {
				t.Errorf("plainToken = %v, want prefix %v", plainToken, tt.prefix)
			}

			if len(hash) != 64 {
				t.Errorf("hash length = %d, want 64 (SHA256 hex)", len(hash))
			}

			if plainToken == hash {
				t.Error("plainToken and hash should be different")
			}
		})
	}
}

func TestTokenGenerator_Generate_Uniqueness(t *testing.T) {
	generator := NewTokenGenerator()

	token1, hash1, err := generator.Generate(PrefixState)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	token2, hash2, err := generator.Generate(PrefixState)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if token1 == token2 {
		t.Error("consecutive tokens should differ")
	}
	if hash1 == hash2 {
		t.Error("consecutive hashes should differ")
	}
}

func TestTokenGenerator_Verify(t *testing.T) {
	generator := NewTokenGenerator()

	plainToken, hash, err := generator.Generate(PrefixState)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !generator.Verify(plainToken, hash) {
		t.Error("Verify() should succeed for matching token and hash")
	}

	if generator.Verify(plainToken+"x", hash) {
		t.Error("Verify() should fail for tampered token")
	}

	if generator.Verify(plainToken, generator.Hash("other")) {
		t.Error("Verify() should fail for mismatched hash")
	}
}
