package oidc

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"

	jose "github.com/go-jose/go-jose/v4"
)

const (
	KeyUseSignature  = "sig"
	KeyUseEncryption = "enc"
)

var (
	// ErrKeyMultiple is returned when a token without a kid header could
	// be verified by more than one key of the set. The token must be
	// rejected, even if one of the candidates would have verified it.
	ErrKeyMultiple = errors.New("multiple possible keys match")

	// ErrKeyNone is returned when no key of the set matches the required
	// kid, use and key type.
	ErrKeyNone = errors.New("no possible keys matches")
)

// KeySet represents a set of JSON Web Keys capable of verifying a JWS,
// e.g. one remotely fetched from the jwks_uri of a discovery document.
type KeySet interface {
	// VerifySignature verifies the signature with the keyset and returns
	// the raw payload.
	VerifySignature(ctx context.Context, jws *jose.JSONWebSignature) (payload []byte, err error)
}

// GetKeyIDAndAlg returns the `kid` and `alg` headers of the JWS.
func GetKeyIDAndAlg(jws *jose.JSONWebSignature) (string, string) {
	keyID := ""
	alg := ""
	for _, sig := range jws.Signatures {
		keyID = sig.Header.KeyID
		alg = sig.Header.Algorithm
		break
	}
	return keyID, alg
}

// FindMatchingKey searches the given JSON Web Keys for the requested key
// ID, usage and algorithm type.
//
// A key matching the exact (non-empty) kid wins immediately. Without a kid
// on either side, a single use+type candidate is returned; more than one
// candidate yields ErrKeyMultiple, none yields ErrKeyNone.
func FindMatchingKey(keyID, use, expectedAlg string, keys ...jose.JSONWebKey) (key jose.JSONWebKey, err error) {
	var validKeys []jose.JSONWebKey
	for _, k := range keys {
		// ignore keys with the wrong use (let empty use of published keys pass)
		if k.Use != use && k.Use != "" {
			continue
		}
		if !algToKeyType(k.Key, expectedAlg) {
			continue
		}
		if k.KeyID == keyID && keyID != "" {
			return k, nil
		}
		if k.KeyID == "" || keyID == "" {
			validKeys = append(validKeys, k)
		}
	}
	if len(validKeys) == 1 {
		return validKeys[0], nil
	}
	if len(validKeys) > 1 {
		return key, ErrKeyMultiple
	}
	return key, ErrKeyNone
}

func algToKeyType(key any, alg string) bool {
	if alg == "" {
		return true
	}
	switch alg[0] {
	case 'R', 'P':
		switch key.(type) {
		case *rsa.PublicKey, *rsa.PrivateKey:
			return true
		}
		return false
	case 'E':
		switch key.(type) {
		case *ecdsa.PublicKey, *ecdsa.PrivateKey:
			return true
		}
		return false
	case 'O':
		switch key.(type) {
		case ed25519.PublicKey, ed25519.PrivateKey:
			return true
		}
		return false
	case 'H':
		_, ok := key.([]byte)
		return ok
	default:
		return false
	}
}
