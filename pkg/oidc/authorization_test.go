package oidc

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhlemmer/gu"
)

func validAuthRequest() *AuthRequest {
	return &AuthRequest{
		Scopes:       SpaceDelimitedArray{ScopeOpenID, ScopeProfile},
		ResponseType: ResponseTypeCode,
		ClientID:     "555666",
		RedirectURI:  "https://rp.example.com/callback",
	}
}

func TestAuthRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		change  func(*AuthRequest)
		wantErr error
	}{
		{name: "valid", change: func(*AuthRequest) {}},
		{name: "no scopes", change: func(a *AuthRequest) { a.Scopes = nil }, wantErr: ErrScopeMissing},
		{name: "openid scope missing", change: func(a *AuthRequest) { a.Scopes = SpaceDelimitedArray{ScopeProfile} }, wantErr: ErrScopeMissing},
		{name: "no response type", change: func(a *AuthRequest) { a.ResponseType = "" }, wantErr: ErrResponseTypeMissing},
		{name: "no client id", change: func(a *AuthRequest) { a.ClientID = "" }, wantErr: ErrClientIDMissing},
		{name: "no redirect uri", change: func(a *AuthRequest) { a.RedirectURI = "" }, wantErr: ErrRedirectURIMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validAuthRequest()
			tt.change(request)
			err := request.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuthRequest_encode(t *testing.T) {
	request := validAuthRequest()
	request.Nonce = "n-0S6_WzA2Mj"
	request.Prompt = SpaceDelimitedArray{"login", "consent"}
	request.MaxAge = gu.Ptr[uint](300)
	request.Claims = &ClaimsRequest{
		IDToken: map[string]*ClaimEntry{
			"acr": {Essential: gu.Ptr(true), Values: []string{"phr"}},
		},
	}

	values := make(url.Values)
	require.NoError(t, DefaultEncoder.Encode(request, values))
	assert.Equal(t, "openid profile", values.Get("scope"))
	assert.Equal(t, "code", values.Get("response_type"))
	assert.Equal(t, "login consent", values.Get("prompt"))
	assert.Equal(t, "300", values.Get("max_age"))
	assert.JSONEq(t, `{"id_token": {"acr": {"essential": true, "values": ["phr"]}}}`, values.Get("claims"))
}

func TestAuthResponseCode_Validate(t *testing.T) {
	require.NoError(t, (&AuthResponseCode{Code: "abc"}).Validate())
	require.ErrorIs(t, (&AuthResponseCode{State: "state1"}).Validate(), ErrCodeMissing)
}

func TestAuthResponseImplicit_Validate(t *testing.T) {
	require.NoError(t, (&AuthResponseImplicit{IDToken: "token", State: "state1"}).Validate())
	require.ErrorIs(t, (&AuthResponseImplicit{State: "state1"}).Validate(), ErrIDTokenMissing)
	require.ErrorIs(t, (&AuthResponseImplicit{IDToken: "token"}).Validate(), ErrStateMissing)
}

func TestClaimsRequest_RequestedClaimNames(t *testing.T) {
	claims := &ClaimsRequest{
		UserInfo: map[string]*ClaimEntry{"email": nil, "name": nil},
		IDToken:  map[string]*ClaimEntry{"acr": {Values: []string{"phr"}}},
	}
	assert.ElementsMatch(t, []string{"email", "name"}, claims.RequestedClaimNames("userinfo"))
	assert.ElementsMatch(t, []string{"acr"}, claims.RequestedClaimNames("id_token"))
	assert.Empty(t, claims.RequestedClaimNames("other"))

	var nilClaims *ClaimsRequest
	assert.Nil(t, nilClaims.RequestedClaimNames("userinfo"))
}

func TestVerifyCodeChallenge(t *testing.T) {
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	challenge := &CodeChallenge{
		Challenge: NewSHACodeChallenge(verifier),
		Method:    CodeChallengeMethodS256,
	}
	assert.True(t, VerifyCodeChallenge(challenge, verifier))
	assert.False(t, VerifyCodeChallenge(challenge, "another-verifier"))

	plain := &CodeChallenge{Challenge: verifier, Method: CodeChallengeMethodPlain}
	assert.True(t, VerifyCodeChallenge(plain, verifier))
	assert.False(t, VerifyCodeChallenge(nil, verifier))
}
