package logincode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of digits in a login code.
const Length = 6

func Generate() (string, error) {
	return GenerateN(Length)
}

// GenerateN returns an n-digit zero-padded numeric code drawn uniformly from crypto/rand.
func GenerateN(n int) (string, error) {
	if n <= 0 || n > 18 {
		return "", fmt.Errorf("login code length %d out of range", n)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
