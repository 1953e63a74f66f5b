package client

import (
	"net/url"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	"github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

// NewSignerFromPrivateKeyByte builds a signer from a PEM encoded private
// key. The signature algorithm is derived from the key type.
func NewSignerFromPrivateKeyByte(key []byte, keyID string) (jose.Signer, error) {
	privateKey, alg, err := crypto.BytesToPrivateKey(key)
	if err != nil {
		return nil, err
	}
	signingKey := jose.SigningKey{
		Algorithm: alg,
		Key:       &jose.JSONWebKey{Key: privateKey, KeyID: keyID},
	}
	return jose.NewSigner(signingKey, &jose.SignerOptions{})
}

// NewSignerFromSecret builds an HS256 signer keyed with the raw bytes of
// the client secret, as used by the client_secret_jwt auth method.
func NewSignerFromSecret(clientSecret string) (jose.Signer, error) {
	signingKey := jose.SigningKey{
		Algorithm: jose.HS256,
		Key:       []byte(clientSecret),
	}
	return jose.NewSigner(signingKey, &jose.SignerOptions{})
}

// SignedClientAssertion builds the JWT bearer assertion for the
// client_secret_jwt and private_key_jwt token endpoint auth methods:
// iss and sub are the client_id, aud is the token endpoint with any
// query stripped, jti is fresh per assertion.
func SignedClientAssertion(clientID, tokenEndpoint string, signer jose.Signer) (string, error) {
	audience, err := stripQuery(tokenEndpoint)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := &oidc.ClientAssertionClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  oidc.Audience{audience},
		JWTID:     uuid.NewString(),
		IssuedAt:  oidc.FromTime(now),
		ExpiresAt: oidc.FromTime(now.Add(time.Hour)),
	}
	return crypto.Sign(claims, signer)
}

func stripQuery(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
