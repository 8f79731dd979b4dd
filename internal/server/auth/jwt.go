// Package auth implements credential hashing and stateless session tokens.
//
// Tokens are HS256 JWTs that embed the account id, email, and the session
// epoch (TokenVersion) current at issuance. Verification here checks only
// the signature and expiry; the epoch comparison against the stored account
// happens one layer up, in the session validator.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/temten/aexpo/internal/common"
)

// Claims is the claim set carried by aexpo access tokens: the registered
// claims plus the account identity and session epoch at issuance time.
type Claims struct {
	jwt.RegisteredClaims
	UserID       int64  `json:"uid"`
	Email        string `json:"email"`
	TokenVersion int64  `json:"jwt_version"`
}

// TokenIssuer signs and verifies access tokens with a server-held secret.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
}

// NewTokenIssuer fails fast when no signing secret is configured; a server
// that cannot sign tokens must not start.
func NewTokenIssuer(secret string, validity time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	return &TokenIssuer{secret: []byte(secret), validity: validity}, nil
}

// Issue signs a token embedding the account identity and the session epoch
// current at issuance.
func (i *TokenIssuer) Issue(userID int64, email string, tokenVersion int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		UserID:       userID,
		Email:        email,
		TokenVersion: tokenVersion,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// It does not know about the current session epoch.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, common.ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
