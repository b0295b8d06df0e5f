package tokens

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
)

// PayloadVersion is the schema version of Payload carried in the "ver" claim.
const PayloadVersion = 1

type Class string

const (
	Access    Class = "access"
	Refresh   Class = "refresh"
	Temporary Class = "temporary"
)

func (c Class) valid() bool {
	switch c {
	case Access, Refresh, Temporary:
		return true
	}
	return false
}

// Payload is the identity embedded in every token.
type Payload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Claims struct {
	Payload
	Version     int    `json:"ver"`
	Type        Class  `json:"typ"`
	Fingerprint string `json:"pwf,omitempty"`
	jwt.RegisteredClaims
}

// Fingerprint returns a short digest of a stored credential. Temporary tokens
// carry it so they stop validating once the credential changes.
func Fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:8])
}
