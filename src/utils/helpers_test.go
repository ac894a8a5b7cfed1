package utils

import (
	"os"
	"regexp"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"

	"sbs/src/types"
)

func TestCapitalizeWords(t *testing.T) {
	assert.Equal(t, "Jane Doe", CapitalizeWords("jane doe"))
	assert.Equal(t, "Jane Doe", CapitalizeWords("  JANE   DOE  "))
	assert.Equal(t, "Mary-anne Smith", CapitalizeWords("mary-anne smith"))
	assert.Equal(t, "", CapitalizeWords(""))
}

func TestWithSuffix(t *testing.T) {
	os.Setenv("API_ENV", "local")
	assert.Equal(t, "EmailsToSend_local", WithSuffix("EmailsToSend"))

	os.Setenv("API_ENV", "")
	assert.Equal(t, "EmailsToSend", WithSuffix("EmailsToSend"))
}

func TestGenerateVoucherCode(t *testing.T) {
	format := regexp.MustCompile(`^GC-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)
	seen := map[string]bool{}
	for range 50 {
		code := GenerateVoucherCode()
		assert.Regexp(t, format, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not repeat constantly")
}

func TestNewToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")

	token, err := NewToken("42", "uid-42", "stylist")
	assert.Nil(t, err)
	assert.NotEmpty(t, token)

	claims := &types.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	assert.Nil(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "uid-42", claims.UID)
	assert.Equal(t, "stylist", claims.Role)
}
