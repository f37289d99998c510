package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewJSONWebToken parses PEM encoded RSA keys. The private key is optional for verify-only instances.
func NewJSONWebToken(privateKey, publicKey []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKey) > 0 {
		if pk, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey); err == nil {
			j.privateKey = pk
		}
	}

	if len(publicKey) > 0 {
		if pk, err := jwt.ParseRSAPublicKeyFromPEM(publicKey); err == nil {
			j.publicKey = pk
		}
	}

	return j
}

func (j *JSONWebToken) Sign(subject, sessionID, role string, ttl time.Duration) (string, error) {
	if j.privateKey == nil {
		return "", fmt.Errorf("jwt: private key is not configured")
	}

	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

func (j *JSONWebToken) Parse(tokenString string) (Claims, error) {
	if j.publicKey == nil {
		return Claims{}, fmt.Errorf("jwt: public key is not configured")
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return j.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("jwt: invalid token")
	}

	return claims, nil
}
