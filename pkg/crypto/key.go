package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

var (
	ErrPEMDecode          = errors.New("PEM decode failed")
	ErrUnsupportedFormat  = errors.New("unsupported key format")
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// BytesToPrivateKey parses a PEM encoded private key in either PKCS#1,
// PKCS#8 or EC form and returns it along with the signature algorithm
// the key is meant to be used with.
func BytesToPrivateKey(b []byte) (crypto.Signer, jose.SignatureAlgorithm, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, "", ErrPEMDecode
	}
	key, err := parsePrivateKey(block)
	if err != nil {
		return nil, "", err
	}
	alg, err := SignatureAlgorithmFromKey(key)
	if err != nil {
		return nil, "", err
	}
	return key, alg, nil
}

func parsePrivateKey(block *pem.Block) (crypto.Signer, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, block.Type)
	}
}

// SignatureAlgorithmFromKey returns the default signature algorithm
// for the type of the passed key.
func SignatureAlgorithmFromKey(key crypto.Signer) (jose.SignatureAlgorithm, error) {
	switch k := key.Public().(type) {
	case *rsa.PublicKey:
		return jose.RS256, nil
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			return jose.ES256, nil
		case elliptic.P384():
			return jose.ES384, nil
		case elliptic.P521():
			return jose.ES512, nil
		}
		return "", fmt.Errorf("%w: unknown curve %s", ErrUnsupportedKeyType, k.Curve.Params().Name)
	case ed25519.PublicKey:
		return jose.EdDSA, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, k)
	}
}

// Thumbprint computes the base64url encoded SHA-256 thumbprint of the
// public key in its JWK serialization (RFC 7638). Self-issued providers
// use it as the subject of the tokens they mint.
func Thumbprint(key any) (string, error) {
	jwk := &jose.JSONWebKey{Key: key}
	tp, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}
