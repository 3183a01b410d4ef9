package jwt

import (
	"crypto/rsa"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM); err == nil {
		j.privateKey = privateKey
	}
	if publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM); err == nil {
		j.publicKey = publicKey
	}

	return j
}

func (j *JSONWebToken) Sign(claims jwt.Claims) (string, error) {
	if j.privateKey == nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "signing key is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while signing the token")
	}

	return signed, nil
}

func (j *JSONWebToken) Parse(tokenString string, claims jwt.Claims) error {
	if j.publicKey == nil {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "verification key is not configured")
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid token")
	}

	return nil
}
