package rp

import (
	"context"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/openidtools/oidc/internal/testutil"
	"github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

func TestVerifyTokens(t *testing.T) {
	keySet := tu.NewKeySet()
	verifier := &IDTokenVerifier{
		Issuer:            tu.ValidIssuer,
		MaxAgeIAT:         2 * time.Minute,
		Offset:            time.Second,
		SupportedSignAlgs: []string{string(tu.SignatureAlgorithm)},
		KeySet:            keySet,
		MaxAge:            2 * time.Minute,
		ACR:               tu.ACRVerify,
		Nonce:             func(context.Context) string { return tu.ValidNonce },
		ClientID:          tu.ValidClientID,
	}
	accessToken, _ := keySet.ValidAccessToken()
	atHash, err := oidc.ClaimHash(accessToken, tu.SignatureAlgorithm)
	require.NoError(t, err)

	tests := []struct {
		name          string
		accessToken   string
		idTokenClaims func() (string, *oidc.IDTokenClaims)
		wantErr       bool
	}{
		{
			name:          "without access token",
			idTokenClaims: keySet.ValidIDToken,
		},
		{
			name:        "with access token",
			accessToken: accessToken,
			idTokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, atHash,
				)
			},
		},
		{
			name:        "expired id token",
			accessToken: accessToken,
			idTokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration.Add(-time.Hour), tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, atHash,
				)
			},
			wantErr: true,
		},
		{
			name:        "wrong access token",
			accessToken: accessToken,
			idTokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "~~~",
				)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idToken, want := tt.idTokenClaims()
			got, err := VerifyTokens[*oidc.IDTokenClaims](context.Background(), tt.accessToken, idToken, verifier)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, got, want)
		})
	}
}

func TestVerifyImplicitResponse(t *testing.T) {
	keySet := tu.NewKeySet()
	verifier := &IDTokenVerifier{
		Issuer:            tu.ValidIssuer,
		MaxAgeIAT:         2 * time.Minute,
		Offset:            time.Second,
		SupportedSignAlgs: []string{string(tu.SignatureAlgorithm)},
		MaxAge:            2 * time.Minute,
		ACR:               tu.ACRVerify,
		Nonce:             func(context.Context) string { return tu.ValidNonce },
		ClientID:          tu.ValidClientID,
		KeySet:            keySet,
	}

	const code = "code-abc"
	accessToken, _ := keySet.ValidAccessToken()
	atHash, err := oidc.ClaimHash(accessToken, tu.SignatureAlgorithm)
	require.NoError(t, err)
	cHash, err := oidc.ClaimHash(code, tu.SignatureAlgorithm)
	require.NoError(t, err)

	newIDToken := func(cHash string) string {
		token, _ := keySet.NewIDTokenCustom(
			tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
			tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
			tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, atHash,
			map[string]any{"c_hash": cHash},
		)
		return token
	}

	t.Run("hybrid code bound", func(t *testing.T) {
		response := &oidc.AuthResponseImplicit{
			AccessToken: accessToken,
			IDToken:     newIDToken(cHash),
			State:       "state",
			Code:        code,
		}
		claims, err := VerifyImplicitResponse[*oidc.IDTokenClaims](context.Background(), response, verifier)
		require.NoError(t, err)
		assert.Equal(t, tu.ValidSubject, claims.Subject)
	})

	t.Run("c_hash mismatch", func(t *testing.T) {
		response := &oidc.AuthResponseImplicit{
			AccessToken: accessToken,
			IDToken:     newIDToken(cHash),
			State:       "state",
			Code:        "a-different-code",
		}
		_, err := VerifyImplicitResponse[*oidc.IDTokenClaims](context.Background(), response, verifier)
		require.ErrorIs(t, err, oidc.ErrCHash)
	})

	t.Run("no code skips the c_hash check", func(t *testing.T) {
		response := &oidc.AuthResponseImplicit{
			AccessToken: accessToken,
			IDToken:     newIDToken(cHash),
			State:       "state",
		}
		_, err := VerifyImplicitResponse[*oidc.IDTokenClaims](context.Background(), response, verifier)
		require.NoError(t, err)
	})
}

func TestVerifyIDToken(t *testing.T) {
	keySet := tu.NewKeySet()
	verifier := &IDTokenVerifier{
		Issuer:            tu.ValidIssuer,
		MaxAgeIAT:         2 * time.Minute,
		Offset:            time.Second,
		SupportedSignAlgs: []string{string(tu.SignatureAlgorithm)},
		KeySet:            keySet,
		MaxAge:            2 * time.Minute,
		ACR:               tu.ACRVerify,
		Nonce:             func(context.Context) string { return tu.ValidNonce },
	}

	tests := []struct {
		name        string
		clientID    string
		tokenClaims func() (string, *oidc.IDTokenClaims)
		wantErr     bool
	}{
		{
			name:        "success",
			clientID:    tu.ValidClientID,
			tokenClaims: keySet.ValidIDToken,
		},
		{
			name:        "parse err",
			clientID:    tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) { return "~~~~", nil },
			wantErr:     true,
		},
		{
			name:        "invalid signature",
			clientID:    tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) { return tu.InvalidSignatureToken, nil },
			wantErr:     true,
		},
		{
			name:     "empty subject",
			clientID: tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, "", tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "",
				)
			},
			wantErr: true,
		},
		{
			name:     "wrong issuer",
			clientID: tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					"https://evil.com", tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "",
				)
			},
			wantErr: true,
		},
		{
			name:     "wrong clientID",
			clientID: "wrong",
			tokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "",
				)
			},
			wantErr: true,
		},
		{
			name:     "expired",
			clientID: tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration.Add(-time.Hour), tu.ValidAuthTime, tu.ValidNonce,
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "",
				)
			},
			wantErr: true,
		},
		{
			name:     "wrong nonce",
			clientID: tu.ValidClientID,
			tokenClaims: func() (string, *oidc.IDTokenClaims) {
				return keySet.NewIDToken(
					tu.ValidIssuer, tu.ValidSubject, tu.ValidAudience,
					tu.ValidExpiration, tu.ValidAuthTime, "wrong",
					tu.ValidACR, tu.ValidAMR, tu.ValidClientID, tu.ValidSkew, "",
				)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier.ClientID = tt.clientID
			token, want := tt.tokenClaims()
			got, err := VerifyIDToken[*oidc.IDTokenClaims](context.Background(), token, verifier)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, got, want)
		})
	}
}

func TestVerifyIDToken_encrypted(t *testing.T) {
	keySet := tu.NewKeySet()
	verifier := &IDTokenVerifier{
		Issuer:            tu.ValidIssuer,
		MaxAgeIAT:         2 * time.Minute,
		Offset:            time.Second,
		SupportedSignAlgs: []string{string(tu.SignatureAlgorithm)},
		KeySet:            keySet,
		MaxAge:            2 * time.Minute,
		ACR:               tu.ACRVerify,
		Nonce:             func(context.Context) string { return tu.ValidNonce },
		ClientID:          tu.ValidClientID,
	}

	// the test KeySet also serves as the client's encryption key pair
	idToken, want := keySet.ValidIDToken()
	encrypted, err := crypto.EncryptJWT(idToken, jose.RSA_OAEP_256, jose.A128CBC_HS256, keySet.Public)
	require.NoError(t, err)

	t.Run("without decryption key", func(t *testing.T) {
		_, err := VerifyIDToken[*oidc.IDTokenClaims](context.Background(), encrypted, verifier)
		require.ErrorIs(t, err, ErrEncryptedToken)
	})
	t.Run("with decryption key", func(t *testing.T) {
		got, err := VerifyIDToken[*oidc.IDTokenClaims](context.Background(), encrypted, verifier, WithTokenDecryptionKey(keySet.Private))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestDecryptToken(t *testing.T) {
	t.Run("passthrough", func(t *testing.T) {
		got, err := DecryptToken("ABC.DEF.GHI", nil)
		require.NoError(t, err)
		assert.Equal(t, "ABC.DEF.GHI", got)
	})
	t.Run("encrypted without key", func(t *testing.T) {
		_, err := DecryptToken("A.B.C.D.E", nil)
		require.ErrorIs(t, err, ErrEncryptedToken)
	})
}

func TestVerifyAccessToken(t *testing.T) {
	keySet := tu.NewKeySet()
	accessToken, _ := keySet.ValidAccessToken()
	atHash, err := oidc.ClaimHash(accessToken, tu.SignatureAlgorithm)
	require.NoError(t, err)

	tests := []struct {
		name        string
		accessToken string
		atHash      string
		wantErr     error
	}{
		{
			name:        "empty hash",
			accessToken: accessToken,
		},
		{
			name:        "success",
			accessToken: accessToken,
			atHash:      atHash,
		},
		{
			name:        "mismatch",
			accessToken: accessToken,
			atHash:      "wrong",
			wantErr:     oidc.ErrAtHash,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAccessToken(tt.accessToken, tt.atHash, tu.SignatureAlgorithm)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestVerifyCodeHash(t *testing.T) {
	const code = "thecode"
	cHash, err := oidc.ClaimHash(code, jose.RS256)
	require.NoError(t, err)

	require.NoError(t, VerifyCodeHash(code, "", jose.RS256))
	require.NoError(t, VerifyCodeHash(code, cHash, jose.RS256))
	require.ErrorIs(t, VerifyCodeHash("other", cHash, jose.RS256), oidc.ErrCHash)
}

func TestNewIDTokenVerifier(t *testing.T) {
	keySet := tu.NewKeySet()
	v := NewIDTokenVerifier("https://issuer.example.com", "clientID", keySet,
		WithIssuedAtOffset(5*time.Second),
		WithIssuedAtMaxAge(time.Hour),
		WithAuthTimeMaxAge(2*time.Hour),
		WithSupportedSigningAlgorithms("RS256", "ES256"),
	)
	assert.Equal(t, "https://issuer.example.com", v.Issuer)
	assert.Equal(t, "clientID", v.ClientID)
	assert.Equal(t, 5*time.Second, v.Offset)
	assert.Equal(t, time.Hour, v.MaxAgeIAT)
	assert.Equal(t, 2*time.Hour, v.MaxAge)
	assert.Equal(t, []string{"RS256", "ES256"}, v.SupportedSignAlgs)
	assert.NotNil(t, v.AZP)
	assert.Empty(t, v.Nonce(context.Background()))
}
