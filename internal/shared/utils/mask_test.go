package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "u***@example.com", MaskEmail("user@example.com"))
	assert.Equal(t, "a***@example.com", MaskEmail("a@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "***67", MaskPhone("+1 555 123 4567"))
	assert.Equal(t, "***", MaskPhone("12"))
}

func TestMaskToken(t *testing.T) {
	masked := MaskToken("st_abcdef1234567890")
	assert.Equal(t, "st_abc...", masked)
	assert.Equal(t, "***", MaskToken("short"))
}

func TestMaskForLog(t *testing.T) {
	in := "exchange failed for alice@example.com with token eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln"
	out := MaskForLog(in)

	assert.NotContains(t, out, "alice@example.com")
	assert.Contains(t, out, "a***@example.com")
	assert.False(t, strings.Contains(out, "eyJzdWIiOiIxIn0"), "JWT body must be redacted")
}
