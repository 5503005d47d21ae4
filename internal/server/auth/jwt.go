// Package auth holds the credential primitives of the server: password
// hashing and the signed, stateless session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is stamped into every token and required on verification.
const DefaultIssuer = "taskkeeper"

// Claims carries the username as the registered subject.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens. The key is fixed for the
// lifetime of the process.
type TokenService struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewTokenService(secretKey []byte) *TokenService {
	return &TokenService{secretKey: secretKey, issuer: DefaultIssuer, now: time.Now}
}

// Issue signs a token for subject that expires at now+ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify returns the subject of a valid token. Any failure yields
// common.ErrInvalidToken; expiry yields common.ErrTokenExpired, which
// matches ErrInvalidToken as well.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
