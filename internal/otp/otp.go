package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

// Generate returns a random 6-digit numeric code as a string (100000-999999).
func Generate() (string, error) {
	// 900000 possible codes, offset so the first digit is never zero
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("otp generate: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
