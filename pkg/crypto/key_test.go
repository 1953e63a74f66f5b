package crypto_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openidtools/oidc/pkg/crypto"
)

func TestBytesToPrivateKey(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pkcs1 := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
	})
	ecDER, err := x509.MarshalECPrivateKey(ecKey)
	require.NoError(t, err)
	ecPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: ecDER,
	})
	pkcs8DER, err := x509.MarshalPKCS8PrivateKey(edKey)
	require.NoError(t, err)
	pkcs8 := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: pkcs8DER,
	})

	tests := []struct {
		name    string
		key     []byte
		wantAlg jose.SignatureAlgorithm
		wantErr error
	}{
		{
			name:    "no pem",
			key:     []byte("The non-PEM sequence"),
			wantErr: crypto.ErrPEMDecode,
		},
		{
			name:    "unsupported block type",
			key:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}}),
			wantErr: crypto.ErrUnsupportedFormat,
		},
		{
			name:    "pkcs1 rsa",
			key:     pkcs1,
			wantAlg: jose.RS256,
		},
		{
			name:    "ec",
			key:     ecPEM,
			wantAlg: jose.ES256,
		},
		{
			name:    "pkcs8 ed25519",
			key:     pkcs8,
			wantAlg: jose.EdDSA,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, alg, err := crypto.BytesToPrivateKey(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, key)
			assert.Equal(t, tt.wantAlg, alg)
		})
	}
}

func TestThumbprint(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tp, err := crypto.Thumbprint(key.Public())
	require.NoError(t, err)
	assert.NotEmpty(t, tp)

	// thumbprints are deterministic per key
	tp2, err := crypto.Thumbprint(key.Public())
	require.NoError(t, err)
	assert.Equal(t, tp, tp2)
}

// RFC 7638, section 3.1 example key.
func TestThumbprint_rfc7638(t *testing.T) {
	nBytes, err := base64.RawURLEncoding.DecodeString(
		"0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAtVT86zwu1RK7aPFFxuhDR1L6tSoc_BJECPebWKRXjBZCiFV4n3oknjhMstn64tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FDW2QvzqY368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n91CbOpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0fM4lFd2NcRwr3XPksINHaQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw")
	require.NoError(t, err)
	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: 65537,
	}

	tp, err := crypto.Thumbprint(pub)
	require.NoError(t, err)
	assert.Equal(t, "NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs", tp)
}
