package oidc

import (
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

// AccessTokenRequest exchanges an authorization code for tokens.
// Client authentication fields are filled according to the registered
// token_endpoint_auth_method before the request is sent.
type AccessTokenRequest struct {
	GrantType           GrantType `schema:"grant_type"`
	Code                string    `schema:"code"`
	RedirectURI         string    `schema:"redirect_uri"`
	ClientID            string    `schema:"client_id,omitempty"`
	ClientSecret        string    `schema:"client_secret,omitempty"`
	CodeVerifier        string    `schema:"code_verifier,omitempty"`
	ClientAssertion     string    `schema:"client_assertion,omitempty"`
	ClientAssertionType string    `schema:"client_assertion_type,omitempty"`
}

// NewAccessTokenRequest returns the code exchange message for the
// authorization_code grant.
func NewAccessTokenRequest(code, redirectURI string) *AccessTokenRequest {
	return &AccessTokenRequest{
		GrantType:   GrantTypeCode,
		Code:        code,
		RedirectURI: redirectURI,
	}
}

// RefreshTokenRequest requests a new access token with a refresh token
// (https://openid.net/specs/openid-connect-core-1_0.html#RefreshTokens).
type RefreshTokenRequest struct {
	RefreshToken        string              `schema:"refresh_token"`
	Scopes              SpaceDelimitedArray `schema:"scope,omitempty"`
	ClientID            string              `schema:"client_id,omitempty"`
	ClientSecret        string              `schema:"client_secret,omitempty"`
	ClientAssertion     string              `schema:"client_assertion,omitempty"`
	ClientAssertionType string              `schema:"client_assertion_type,omitempty"`
	GrantType           GrantType           `schema:"grant_type"`
}

// ClientAssertionClaims is the payload of the JWT used for
// client_secret_jwt and private_key_jwt authentication
// (https://openid.net/specs/openid-connect-core-1_0.html#ClientAuthentication).
// iss and sub both carry the client_id; aud is the token endpoint URL
// with any query stripped.
type ClientAssertionClaims struct {
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  Audience `json:"aud"`
	JWTID     string   `json:"jti"`
	IssuedAt  Time     `json:"iat"`
	ExpiresAt Time     `json:"exp"`
}

func (c *ClientAssertionClaims) GetIssuer() string {
	return c.Issuer
}

func (c *ClientAssertionClaims) GetAudience() []string {
	return c.Audience
}

func (c *ClientAssertionClaims) GetExpiration() time.Time {
	return c.ExpiresAt.AsTime()
}

func (c *ClientAssertionClaims) GetIssuedAt() time.Time {
	return c.IssuedAt.AsTime()
}

func (c *ClientAssertionClaims) GetNonce() string {
	return ""
}

func (c *ClientAssertionClaims) GetAuthenticationContextClassReference() string {
	return ""
}

func (c *ClientAssertionClaims) GetAuthTime() time.Time {
	return time.Time{}
}

func (c *ClientAssertionClaims) GetAuthorizedParty() string {
	return ""
}

func (c *ClientAssertionClaims) SetSignatureAlgorithm(_ jose.SignatureAlgorithm) {}

// RevokeRequest is the token revocation request (RFC 7009).
type RevokeRequest struct {
	Token         string `schema:"token"`
	TokenTypeHint string `schema:"token_type_hint,omitempty"`
	ClientID      string `schema:"client_id,omitempty"`
	ClientSecret  string `schema:"client_secret,omitempty"`
}

// EndSessionRequest initiates RP initiated logout
// (https://openid.net/specs/openid-connect-rpinitiated-1_0.html).
type EndSessionRequest struct {
	IdTokenHint           string `schema:"id_token_hint,omitempty"`
	ClientID              string `schema:"client_id,omitempty"`
	PostLogoutRedirectURI string `schema:"post_logout_redirect_uri,omitempty"`
	State                 string `schema:"state,omitempty"`
}
