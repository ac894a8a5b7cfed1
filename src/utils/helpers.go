package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"sbs/src/types"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

func IsLocal() bool {
	return os.Getenv("API_ENV") == "local"
}

// WithSuffix appends the environment name to a queue/topic name so staging and
// production never share a queue.
func WithSuffix(name string) string {
	env := os.Getenv("API_ENV")
	if env == "" {
		return name
	}
	return fmt.Sprintf("%s_%s", name, env)
}

// CapitalizeWords normalizes customer names on walk-in creation: lower-cases
// then upper-cases the first letter of every word.
func CapitalizeWords(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

const voucherCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateVoucherCode returns a code in the GC-XXXX-XXXX format. The alphabet
// drops lookalike characters so codes survive being read over the counter.
func GenerateVoucherCode() string {
	chars := make([]byte, 8)
	max := big.NewInt(int64(len(voucherCodeAlphabet)))
	for i := range chars {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(i))
		}
		chars[i] = voucherCodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("GC-%s-%s", chars[:4], chars[4:])
}

func NewToken(subject string, uid string, role string) (string, error) {
	jwtKey := []byte(os.Getenv("JWT_SECRET"))
	claims := types.Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}
