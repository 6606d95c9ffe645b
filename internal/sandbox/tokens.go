package sandbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for bearer tokens the backend did not issue.
var ErrInvalidToken = errors.New("sandbox: invalid token")

// Subject identifies the user a token was issued to.
type Subject struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

// Claims is the payload of a sandbox token: {sub: {id, login}, iat}.
type Claims struct {
	Sub Subject `json:"sub"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 tokens with one secret.
type tokenIssuer struct {
	secret []byte
}

func (t tokenIssuer) issue(sub Subject, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Sub: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t tokenIssuer) verify(tokenString string) (Subject, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Sub.ID == "" {
		return Subject{}, ErrInvalidToken
	}
	return claims.Sub, nil
}
