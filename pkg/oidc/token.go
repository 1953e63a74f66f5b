package oidc

import (
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/oauth2"
)

// IssuerSelfIssued is the `iss` value of self-issued ID tokens. Self-issued
// tokens relax the mandatory-claims rule: sub, aud, exp and iat checks are
// carried out against the local synthesis, not a remote provider.
const IssuerSelfIssued = "https://self-issued.me"

const BearerToken = "Bearer"

// TokenClaims holds the registered claims shared by ID tokens and JWT
// access tokens, plus the passthrough map of every claim found on the wire
// (which also carries aggregated and distributed claims untouched).
type TokenClaims struct {
	Issuer                              string              `json:"iss,omitempty"`
	Subject                             string              `json:"sub,omitempty"`
	Audience                            Audience            `json:"aud,omitempty"`
	Expiration                          Time                `json:"exp,omitempty"`
	IssuedAt                            Time                `json:"iat,omitempty"`
	AuthTime                            Time                `json:"auth_time,omitempty"`
	NotBefore                           Time                `json:"nbf,omitempty"`
	Nonce                               string              `json:"nonce,omitempty"`
	AuthenticationContextClassReference string              `json:"acr,omitempty"`
	AuthenticationMethodsReferences     []string            `json:"amr,omitempty"`
	AuthorizedParty                     string              `json:"azp,omitempty"`
	ClientID                            string              `json:"client_id,omitempty"`
	JWTID                               string              `json:"jti,omitempty"`

	// SignatureAlg is populated by the token verifier with the algorithm
	// of the verified signature. It never appears on the wire.
	SignatureAlg jose.SignatureAlgorithm `json:"-"`

	// Claims are all the claims of the token, as received.
	Claims map[string]any `json:"-"`
}

func (c *TokenClaims) GetIssuer() string {
	return c.Issuer
}

func (c *TokenClaims) GetSubject() string {
	return c.Subject
}

func (c *TokenClaims) GetAudience() []string {
	return c.Audience
}

func (c *TokenClaims) GetExpiration() time.Time {
	return c.Expiration.AsTime()
}

func (c *TokenClaims) GetIssuedAt() time.Time {
	return c.IssuedAt.AsTime()
}

func (c *TokenClaims) GetNonce() string {
	return c.Nonce
}

func (c *TokenClaims) GetAuthTime() time.Time {
	return c.AuthTime.AsTime()
}

func (c *TokenClaims) GetAuthorizedParty() string {
	return c.AuthorizedParty
}

func (c *TokenClaims) GetAuthenticationContextClassReference() string {
	return c.AuthenticationContextClassReference
}

func (c *TokenClaims) GetSignatureAlgorithm() jose.SignatureAlgorithm {
	return c.SignatureAlg
}

func (c *TokenClaims) SetSignatureAlgorithm(algorithm jose.SignatureAlgorithm) {
	c.SignatureAlg = algorithm
}

// IDTokenClaims is the payload of an OIDC ID token
// (https://openid.net/specs/openid-connect-core-1_0.html#IDToken).
type IDTokenClaims struct {
	TokenClaims
	AccessTokenHash string           `json:"at_hash,omitempty"`
	CodeHash        string           `json:"c_hash,omitempty"`
	StateHash       string           `json:"s_hash,omitempty"`
	SubJWK          *jose.JSONWebKey `json:"sub_jwk,omitempty"`
	UserInfoProfile
	UserInfoEmail
	UserInfoPhone
	Address *UserInfoAddress `json:"address,omitempty"`
}

func (c *IDTokenClaims) GetAccessTokenHash() string {
	return c.AccessTokenHash
}

func (c *IDTokenClaims) GetCodeHash() string {
	return c.CodeHash
}

// IsSelfIssued reports whether the token claims to come from the
// self-issued pseudo-provider.
func (c *IDTokenClaims) IsSelfIssued() bool {
	return c.Issuer == IssuerSelfIssued
}

// Validate checks the mandatory ID token claims. Unless the token is
// self-issued, sub, aud, exp and iat must all be present next to iss.
func (c *IDTokenClaims) Validate() error {
	if c.Issuer == "" {
		return ErrIssMissing
	}
	if c.IsSelfIssued() {
		return nil
	}
	if c.Subject == "" {
		return ErrSubMissing
	}
	if len(c.Audience) == 0 {
		return ErrAudMissing
	}
	if c.Expiration == 0 {
		return ErrExpMissing
	}
	if c.IssuedAt == 0 {
		return ErrIatMissing
	}
	return nil
}

// MarshalJSON merges the registered fields with the custom claim map;
// registered fields win on conflict.
func (c *IDTokenClaims) MarshalJSON() ([]byte, error) {
	type Alias IDTokenClaims
	a := (*Alias)(c)
	return mergeAndMarshalClaims(a, c.Claims)
}

func (c *IDTokenClaims) UnmarshalJSON(data []byte) error {
	type Alias IDTokenClaims
	a := (*Alias)(c)
	return unmarshalJSONMulti(data, a, &c.Claims)
}

// NewIDTokenClaims builds claims for a token the RP issues itself
// (self-issued flow and test fixtures).
func NewIDTokenClaims(issuer, subject string, audience []string, expiration, authTime time.Time, nonce, acr string, amr []string, clientID string, skew time.Duration) *IDTokenClaims {
	audience = AppendClientIDToAudience(clientID, audience)
	return &IDTokenClaims{
		TokenClaims: TokenClaims{
			Issuer:                              issuer,
			Subject:                             subject,
			Audience:                            audience,
			Expiration:                          FromTime(expiration),
			IssuedAt:                            FromTime(time.Now().Add(-skew)),
			AuthTime:                            FromTime(authTime.Add(-skew)),
			Nonce:                               nonce,
			AuthenticationContextClassReference: acr,
			AuthenticationMethodsReferences:     amr,
			AuthorizedParty:                     clientID,
			ClientID:                            clientID,
		},
	}
}

// AppendClientIDToAudience adds the clientID to the audience,
// if it is not already present.
func AppendClientIDToAudience(clientID string, audience []string) []string {
	for _, aud := range audience {
		if aud == clientID {
			return audience
		}
	}
	return append(audience, clientID)
}

// AccessTokenClaims is the payload of a JWT-shaped access token.
type AccessTokenClaims struct {
	TokenClaims
	Scopes SpaceDelimitedArray `json:"scope,omitempty"`
}

func (c *AccessTokenClaims) MarshalJSON() ([]byte, error) {
	type Alias AccessTokenClaims
	a := (*Alias)(c)
	return mergeAndMarshalClaims(a, c.Claims)
}

func (c *AccessTokenClaims) UnmarshalJSON(data []byte) error {
	type Alias AccessTokenClaims
	a := (*Alias)(c)
	return unmarshalJSONMulti(data, a, &c.Claims)
}

// NewAccessTokenClaims builds claims for a JWT access token fixture.
func NewAccessTokenClaims(issuer, subject string, audience []string, expiration time.Time, jwtid, clientID string, skew time.Duration) *AccessTokenClaims {
	return &AccessTokenClaims{
		TokenClaims: TokenClaims{
			Issuer:     issuer,
			Subject:    subject,
			Audience:   audience,
			Expiration: FromTime(expiration),
			IssuedAt:   FromTime(time.Now().Add(-skew)),
			NotBefore:  FromTime(time.Now().Add(-skew)),
			JWTID:      jwtid,
			ClientID:   clientID,
		},
	}
}

// AccessTokenResponse is the token endpoint success response.
type AccessTokenResponse struct {
	AccessToken  string              `json:"access_token,omitempty" schema:"access_token,omitempty"`
	TokenType    string              `json:"token_type,omitempty" schema:"token_type,omitempty"`
	RefreshToken string              `json:"refresh_token,omitempty" schema:"refresh_token,omitempty"`
	ExpiresIn    uint64              `json:"expires_in,omitempty" schema:"expires_in,omitempty"`
	IDToken      string              `json:"id_token,omitempty" schema:"id_token,omitempty"`
	Scope        SpaceDelimitedArray `json:"scope,omitempty" schema:"scope,omitempty"`
	State        string              `json:"state,omitempty" schema:"state,omitempty"`
}

// Validate checks the mandatory token response fields.
func (a *AccessTokenResponse) Validate() error {
	if a.AccessToken == "" {
		return ErrAccessTokenMissing
	}
	if a.TokenType == "" {
		return ErrTokenTypeMissing
	}
	return nil
}

// IDClaims is satisfied by claim types carrying an ID token's getters,
// the constraint of the generic token verification helpers.
type IDClaims interface {
	Claims
	GetSubject() string
	GetAccessTokenHash() string
	GetCodeHash() string
	GetSignatureAlgorithm() jose.SignatureAlgorithm
}

// Tokens bundles the oauth2 token with the verified ID token of one
// token endpoint exchange.
type Tokens[C IDClaims] struct {
	*oauth2.Token
	IDTokenClaims C
	IDToken       string
}
