package crypto

import (
	"crypto"
	"strconv"

	jose "github.com/go-jose/go-jose/v4"
)

// KeyUse values for the JWK "use" parameter.
const (
	KeyUseSignature  = "sig"
	KeyUseEncryption = "enc"
)

// NewJWKSet builds a public key set from signing and encryption keys,
// assigning sequential key ids across the whole set. Signing keys come
// first, so their ids stay stable when encryption keys are added later.
func NewJWKSet(sigKeys, encKeys []crypto.PublicKey) *jose.JSONWebKeySet {
	set := &jose.JSONWebKeySet{}
	kid := 0
	for _, key := range sigKeys {
		kid++
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:   key,
			KeyID: strconv.Itoa(kid),
			Use:   KeyUseSignature,
		})
	}
	for _, key := range encKeys {
		kid++
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:   key,
			KeyID: strconv.Itoa(kid),
			Use:   KeyUseEncryption,
		})
	}
	return set
}

// PublicJWK wraps a public key into a signature use JWK with the passed
// key id.
func PublicJWK(key any, keyID string, alg jose.SignatureAlgorithm) *jose.JSONWebKey {
	return &jose.JSONWebKey{
		Key:       key,
		KeyID:     keyID,
		Use:       KeyUseSignature,
		Algorithm: string(alg),
	}
}
