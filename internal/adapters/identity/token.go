// Package identity verifies the bearer tokens minted by the platform's
// authentication service. Tokens are HS256 JWTs carrying the participant id
// and display fields; the signaling layer never issues credentials of its
// own, the mint helper exists for tooling and tests.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/consiliumhq/signaling/internal/domain"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid token")
)

// Claims is the shared shape between the auth service and this verifier.
type Claims struct {
	ParticipantID string `json:"participant_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify resolves a credential to a participant identity. It is called once
// per connection at handshake time.
func (v *Verifier) Verify(credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	var claims Claims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid || claims.ParticipantID == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	name := claims.DisplayName
	if name == "" {
		name = claims.Email
	}
	identity, err := domain.NewIdentity(domain.ParticipantID(claims.ParticipantID), claims.Email, name)
	if err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

// Mint signs a token for the given participant, mirroring what the auth
// service issues.
func (v *Verifier) Mint(pid domain.ParticipantID, email, displayName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ParticipantID: string(pid),
		Email:         email,
		DisplayName:   displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
