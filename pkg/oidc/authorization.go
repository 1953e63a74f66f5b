package oidc

import (
	"encoding/json"
	"strings"
)

const (
	// ScopeOpenID is mandatory in every OpenID Connect authorization request.
	ScopeOpenID = "openid"

	// ScopeProfile requests the End-User's default profile claims.
	ScopeProfile = "profile"

	// ScopeEmail requests the email and email_verified claims.
	ScopeEmail = "email"

	// ScopeAddress requests the address claim.
	ScopeAddress = "address"

	// ScopePhone requests the phone_number and phone_number_verified claims.
	ScopePhone = "phone"

	// ScopeOfflineAccess requests a refresh token.
	ScopeOfflineAccess = "offline_access"
)

// AuthRequest is the authorization request according to
// https://openid.net/specs/openid-connect-core-1_0.html#AuthRequest
type AuthRequest struct {
	Scopes       SpaceDelimitedArray `schema:"scope"`
	ResponseType ResponseType        `schema:"response_type"`
	ClientID     string              `schema:"client_id"`
	RedirectURI  string              `schema:"redirect_uri"`

	State        string       `schema:"state,omitempty"`
	Nonce        string       `schema:"nonce,omitempty"`
	ResponseMode ResponseMode `schema:"response_mode,omitempty"`

	Display     Display             `schema:"display,omitempty"`
	Prompt      SpaceDelimitedArray `schema:"prompt,omitempty"`
	MaxAge      *uint               `schema:"max_age,omitempty"`
	UILocales   Locales             `schema:"ui_locales,omitempty"`
	IDTokenHint string              `schema:"id_token_hint,omitempty"`
	LoginHint   string              `schema:"login_hint,omitempty"`
	ACRValues   []string            `schema:"acr_values,omitempty"`

	CodeChallenge       string              `schema:"code_challenge,omitempty"`
	CodeChallengeMethod CodeChallengeMethod `schema:"code_challenge_method,omitempty"`

	// RequestParam carries a request object by value. RequestURI carries it
	// by reference; the OP (or this RP, when resolving its own object)
	// fetches the referenced resource and processes its body instead.
	RequestParam string `schema:"request,omitempty"`
	RequestURI   string `schema:"request_uri,omitempty"`

	// Claims is the structured claims request for userinfo and id_token.
	// It collapses to a JSON object on the wire.
	Claims *ClaimsRequest `schema:"claims,omitempty"`
}

// Validate checks the field-presence invariants of the authorization
// request. The scope list must contain `openid`.
func (a *AuthRequest) Validate() error {
	if len(a.Scopes) == 0 || !containsScope(a.Scopes, ScopeOpenID) {
		return ErrScopeMissing
	}
	if a.ResponseType == "" {
		return ErrResponseTypeMissing
	}
	if a.ClientID == "" {
		return ErrClientIDMissing
	}
	if a.RedirectURI == "" {
		return ErrRedirectURIMissing
	}
	return nil
}

func containsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// AuthResponseCode is the authorization code flow response, arriving as
// query parameters on the redirect URI.
type AuthResponseCode struct {
	Code  string              `schema:"code"`
	State string              `schema:"state,omitempty"`
	Scope SpaceDelimitedArray `schema:"scope,omitempty"`
}

func (a *AuthResponseCode) Validate() error {
	if a.Code == "" {
		return ErrCodeMissing
	}
	return nil
}

// AuthResponseImplicit is the implicit (and hybrid) flow response returned
// in the fragment, form_post body, or query.
type AuthResponseImplicit struct {
	AccessToken string              `schema:"access_token,omitempty"`
	TokenType   string              `schema:"token_type,omitempty"`
	IDToken     string              `schema:"id_token"`
	State       string              `schema:"state"`
	Scope       SpaceDelimitedArray `schema:"scope,omitempty"`
	ExpiresIn   uint64              `schema:"expires_in,omitempty"`
	Code        string              `schema:"code,omitempty"`
}

func (a *AuthResponseImplicit) Validate() error {
	if a.IDToken == "" {
		return ErrIDTokenMissing
	}
	if a.State == "" {
		return ErrStateMissing
	}
	return nil
}

// ClaimsRequest is the `claims` authorization request parameter
// (https://openid.net/specs/openid-connect-core-1_0.html#ClaimsParameter).
type ClaimsRequest struct {
	UserInfo map[string]*ClaimEntry `json:"userinfo,omitempty"`
	IDToken  map[string]*ClaimEntry `json:"id_token,omitempty"`
}

// ClaimEntry constrains a single requested claim. A nil entry requests the
// claim as a voluntary claim with no constraints.
type ClaimEntry struct {
	Essential *bool    `json:"essential,omitempty"`
	Value     string   `json:"value,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// claimsRequestAlias shadows the marshalers below to avoid recursion.
type claimsRequestAlias ClaimsRequest

// MarshalJSON keeps the claims parameter a JSON object inside request
// objects, while MarshalText serializes it for query strings.
func (c *ClaimsRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal((*claimsRequestAlias)(c))
}

func (c *ClaimsRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, (*claimsRequestAlias)(c))
}

func (c *ClaimsRequest) MarshalText() ([]byte, error) {
	return json.Marshal((*claimsRequestAlias)(c))
}

func (c *ClaimsRequest) UnmarshalText(text []byte) error {
	return json.Unmarshal(text, (*claimsRequestAlias)(c))
}

// RequestedClaimNames flattens the claim names requested for the given
// target ("userinfo" or "id_token").
func (c *ClaimsRequest) RequestedClaimNames(target string) []string {
	if c == nil {
		return nil
	}
	var m map[string]*ClaimEntry
	switch strings.ToLower(target) {
	case "userinfo":
		m = c.UserInfo
	case "id_token":
		m = c.IDToken
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}
