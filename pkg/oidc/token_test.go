package oidc

import (
	"encoding/json"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDTokenClaims_Validate(t *testing.T) {
	valid := func() *IDTokenClaims {
		return &IDTokenClaims{
			TokenClaims: TokenClaims{
				Issuer:     "https://op.example.com",
				Subject:    "user",
				Audience:   Audience{"555666"},
				Expiration: FromTime(time.Now().Add(time.Hour)),
				IssuedAt:   NowTime(),
			},
		}
	}

	tests := []struct {
		name    string
		change  func(*IDTokenClaims)
		wantErr error
	}{
		{name: "valid", change: func(*IDTokenClaims) {}},
		{name: "no issuer", change: func(c *IDTokenClaims) { c.Issuer = "" }, wantErr: ErrIssMissing},
		{name: "no subject", change: func(c *IDTokenClaims) { c.Subject = "" }, wantErr: ErrSubMissing},
		{name: "no audience", change: func(c *IDTokenClaims) { c.Audience = nil }, wantErr: ErrAudMissing},
		{name: "no expiration", change: func(c *IDTokenClaims) { c.Expiration = 0 }, wantErr: ErrExpMissing},
		{name: "no issued at", change: func(c *IDTokenClaims) { c.IssuedAt = 0 }, wantErr: ErrIatMissing},
		{
			name: "self-issued skips subject check",
			change: func(c *IDTokenClaims) {
				c.Issuer = IssuerSelfIssued
				c.Subject = ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := valid()
			tt.change(claims)
			err := claims.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIDTokenClaims_customClaims(t *testing.T) {
	data := []byte(`{
		"iss": "https://op.example.com",
		"sub": "user",
		"aud": "555666",
		"locale": "de",
		"groups": ["admin", "dev"]
	}`)
	claims := new(IDTokenClaims)
	require.NoError(t, json.Unmarshal(data, claims))
	assert.Equal(t, "user", claims.Subject)
	assert.Equal(t, "de", claims.Locale.String())
	assert.Equal(t, []any{"admin", "dev"}, claims.Claims["groups"])
	assert.Equal(t, "user", claims.Claims["sub"], "registered claims also appear in the claims map")

	// registered fields win over entries of the claims map
	claims.Claims["sub"] = "spoofed"
	out, err := json.Marshal(claims)
	require.NoError(t, err)
	merged := make(map[string]any)
	require.NoError(t, json.Unmarshal(out, &merged))
	assert.Equal(t, "user", merged["sub"])
	assert.Equal(t, []any{"admin", "dev"}, merged["groups"])
}

func TestAccessTokenClaims_scopes(t *testing.T) {
	claims := NewAccessTokenClaims("https://op.example.com", "user", []string{"unit"}, time.Now().Add(time.Hour), "jti-1", "555666", 0)
	claims.Scopes = SpaceDelimitedArray{"openid", "profile"}

	data, err := json.Marshal(claims)
	require.NoError(t, err)

	got := new(AccessTokenClaims)
	require.NoError(t, json.Unmarshal(data, got))
	assert.Equal(t, SpaceDelimitedArray{"openid", "profile"}, got.Scopes)
	assert.Equal(t, "openid profile", got.Claims["scope"])
}

func TestAccessTokenResponse_Validate(t *testing.T) {
	require.NoError(t, (&AccessTokenResponse{AccessToken: "access", TokenType: BearerToken}).Validate())
	require.ErrorIs(t, (&AccessTokenResponse{TokenType: BearerToken}).Validate(), ErrAccessTokenMissing)
	require.ErrorIs(t, (&AccessTokenResponse{AccessToken: "access"}).Validate(), ErrTokenTypeMissing)
}

// The generic verification helpers call GetSignatureAlgorithm through
// the IDClaims constraint.
var _ IDClaims = (*IDTokenClaims)(nil)

func TestIDTokenClaims_signatureAlgorithm(t *testing.T) {
	claims := new(IDTokenClaims)
	claims.SetSignatureAlgorithm(jose.PS512)
	assert.Equal(t, jose.PS512, claims.GetSignatureAlgorithm())
}

func TestAppendClientIDToAudience(t *testing.T) {
	assert.Equal(t, []string{"unit", "555666"}, AppendClientIDToAudience("555666", []string{"unit"}))
	assert.Equal(t, []string{"555666"}, AppendClientIDToAudience("555666", nil))
	assert.Equal(t, []string{"555666"}, AppendClientIDToAudience("555666", []string{"555666"}))
}
