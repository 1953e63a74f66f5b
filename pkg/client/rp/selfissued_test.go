package rp

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	oidccrypto "github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

func TestTargetForEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     AuthorizationTarget
	}{
		{"https://op.example.com/authorize", RemoteTarget},
		{"openid:", SelfIssuedTarget},
		{"openid://?response_type=id_token", SelfIssuedTarget},
		{"https://self-issued.me/authorize", SelfIssuedTarget},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetForEndpoint(tt.endpoint))
		})
	}
}

func newSelfIssuedRequest(scopes ...string) *oidc.AuthRequest {
	return &oidc.AuthRequest{
		Scopes:       scopes,
		ResponseType: oidc.ResponseTypeIDTokenOnly,
		ClientID:     "https://rp.example.com/cb",
		RedirectURI:  "https://rp.example.com/cb",
		Nonce:        "n-0S6_WzA2Mj",
	}
}

func TestSelfIssuedOP_Authorize(t *testing.T) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: privateKey}, nil)
	require.NoError(t, err)
	op, err := NewSelfIssuedOP(signer, privateKey.Public(), jose.ES256)
	require.NoError(t, err)

	t.Run("missing openid scope", func(t *testing.T) {
		_, err := op.Authorize(newSelfIssuedRequest(oidc.ScopeProfile), time.Minute)
		require.ErrorIs(t, err, oidc.ErrScopeMissing)
	})

	t.Run("signed token", func(t *testing.T) {
		response, err := op.Authorize(newSelfIssuedRequest(
			oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeAddress, oidc.ScopePhone,
		), time.Minute)
		require.NoError(t, err)

		claims, err := VerifySelfIssuedToken(response.IDToken, "https://rp.example.com/cb", time.Second)
		require.NoError(t, err)
		assert.Equal(t, oidc.IssuerSelfIssued, claims.Issuer)
		assert.NotEmpty(t, claims.Subject)
		assert.Equal(t, "n-0S6_WzA2Mj", claims.Nonce)
		assert.Equal(t, "Myself User", claims.Name)
		assert.Equal(t, "me@self-issued.me", claims.Email)
		require.NotNil(t, claims.Address)
		assert.Equal(t, "Via Test, 1", claims.Address.StreetAddress)
		assert.Equal(t, "Milano", claims.Address.Locality)
		assert.Equal(t, "20100", claims.Address.PostalCode)
		assert.Equal(t, "Italy", claims.Address.Country)
		assert.Equal(t, "0", claims.PhoneNumber)
	})

	t.Run("wrong audience", func(t *testing.T) {
		response, err := op.Authorize(newSelfIssuedRequest(oidc.ScopeOpenID), time.Minute)
		require.NoError(t, err)
		_, err = VerifySelfIssuedToken(response.IDToken, "https://other.example.com/cb", time.Second)
		require.ErrorIs(t, err, oidc.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		response, err := op.Authorize(newSelfIssuedRequest(oidc.ScopeOpenID), -time.Hour)
		require.NoError(t, err)
		_, err = VerifySelfIssuedToken(response.IDToken, "https://rp.example.com/cb", time.Second)
		require.ErrorIs(t, err, oidc.ErrExpired)
	})
}

func TestStartAuthorization(t *testing.T) {
	config := func(authURL string) *oauth2.Config {
		return &oauth2.Config{
			ClientID:    "https://rp.example.com/cb",
			RedirectURL: "https://rp.example.com/cb",
			Scopes:      []string{oidc.ScopeOpenID, oidc.ScopeEmail},
			Endpoint:    oauth2.Endpoint{AuthURL: authURL},
		}
	}

	t.Run("remote target", func(t *testing.T) {
		party := &relyingParty{oauthConfig: config("https://op.example.com/authorize")}
		result, err := StartAuthorization(party, "state-1", "nonce-1", nil, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, RemoteTarget, result.Target)
		assert.Nil(t, result.Response)
		assert.Contains(t, result.RedirectURL, "https://op.example.com/authorize")
		assert.Contains(t, result.RedirectURL, "state=state-1")
		assert.Contains(t, result.RedirectURL, "nonce=nonce-1")
	})

	t.Run("self-issued target", func(t *testing.T) {
		op, err := NewSelfIssuedOP(nil, nil, "")
		require.NoError(t, err)
		party := &relyingParty{oauthConfig: config("openid:")}
		result, err := StartAuthorization(party, "state-2", "nonce-2", op, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, SelfIssuedTarget, result.Target)
		assert.Empty(t, result.RedirectURL)
		require.NotNil(t, result.Response)
		assert.Equal(t, "state-2", result.Response.State)

		claims, err := VerifySelfIssuedToken(result.Response.IDToken, "https://rp.example.com/cb", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "nonce-2", claims.Nonce)
	})

	t.Run("self-issued target without provider", func(t *testing.T) {
		party := &relyingParty{oauthConfig: config("openid:")}
		_, err := StartAuthorization(party, "state-3", "", nil, time.Minute)
		require.ErrorIs(t, err, ErrNoSelfIssuedOP)
	})
}

func TestSelfIssuedOP_unsecured(t *testing.T) {
	op, err := NewSelfIssuedOP(nil, nil, "")
	require.NoError(t, err)

	response, err := op.Authorize(newSelfIssuedRequest(oidc.ScopeOpenID), time.Minute)
	require.NoError(t, err)

	claims, err := VerifySelfIssuedToken(response.IDToken, "https://rp.example.com/cb", time.Second)
	require.NoError(t, err)
	assert.Nil(t, claims.SubJWK)
	assert.Empty(t, claims.Subject)
}

func TestVerifySelfIssuedToken_subMismatch(t *testing.T) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: privateKey}, nil)
	require.NoError(t, err)
	op, err := NewSelfIssuedOP(signer, privateKey.Public(), jose.ES256)
	require.NoError(t, err)
	op.sub = "not-the-thumbprint"

	response, err := op.Authorize(newSelfIssuedRequest(oidc.ScopeOpenID), time.Minute)
	require.NoError(t, err)
	_, err = VerifySelfIssuedToken(response.IDToken, "https://rp.example.com/cb", time.Second)
	require.ErrorIs(t, err, oidc.ErrIntegrity)
}

func TestVerifySelfIssuedToken_wrongIssuer(t *testing.T) {
	token, err := oidccrypto.SignUnsecured(&oidc.IDTokenClaims{
		TokenClaims: oidc.TokenClaims{
			Issuer:     "https://op.example.com",
			Audience:   oidc.Audience{"https://rp.example.com/cb"},
			Expiration: oidc.FromTime(time.Now().Add(time.Minute)),
		},
	})
	require.NoError(t, err)
	_, err = VerifySelfIssuedToken(token, "https://rp.example.com/cb", time.Second)
	require.ErrorIs(t, err, oidc.ErrIssuerInvalid)
}
