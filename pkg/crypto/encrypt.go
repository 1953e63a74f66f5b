package crypto

import (
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// ContentTypeJWT marks a JWE whose plaintext is itself a JWT, as required
// for nested (signed then encrypted) tokens.
const ContentTypeJWT = "JWT"

// EncryptJWT wraps an already serialized JWT into a JWE for the given
// recipient key. The cty header is set so receivers know to verify the
// inner token after decryption.
func EncryptJWT(token string, alg jose.KeyAlgorithm, enc jose.ContentEncryption, key any) (string, error) {
	opts := (&jose.EncrypterOptions{}).WithContentType(ContentTypeJWT).WithType("JWT")
	encrypter, err := jose.NewEncrypter(enc, jose.Recipient{Algorithm: alg, Key: key}, opts)
	if err != nil {
		return "", fmt.Errorf("create encrypter: %w", err)
	}
	object, err := encrypter.Encrypt([]byte(token))
	if err != nil {
		return "", fmt.Errorf("encrypt token: %w", err)
	}
	return object.CompactSerialize()
}

// DecryptJWT unwraps a JWE with the given private key and returns the
// plaintext, which is expected to be the serialized inner JWT.
func DecryptJWT(token string, keyAlgs []jose.KeyAlgorithm, encs []jose.ContentEncryption, key any) (string, error) {
	object, err := jose.ParseEncrypted(token, keyAlgs, encs)
	if err != nil {
		return "", fmt.Errorf("parse encrypted token: %w", err)
	}
	plaintext, err := object.Decrypt(key)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return string(plaintext), nil
}
