package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	IdentityID uuid.UUID
	Email      string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued by the embedded backend.
// The identity id travels as the subject.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IdentityID parses the subject back into the identity id.
func (c *AccessTokenClaims) IdentityID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
