package oidc

import (
	"encoding/json"
	"net/url"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
)

// ClientMetadata implements the client metadata of
// https://openid.net/specs/openid-connect-registration-1_0.html#ClientMetadata
// and https://www.rfc-editor.org/rfc/rfc7591#section-2.
// It is used both as the body of registration requests and inside
// registration responses.
type ClientMetadata struct {
	RedirectURIs            []string       `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod AuthMethod     `json:"token_endpoint_auth_method,omitempty"`
	GrantTypes              []GrantType    `json:"grant_types,omitempty"`
	ResponseTypes           []ResponseType `json:"response_types,omitempty"`

	ClientName string              `json:"client_name,omitempty"`
	ClientURI  string              `json:"client_uri,omitempty"`
	LogoURI    string              `json:"logo_uri,omitempty"`
	Scope      SpaceDelimitedArray `json:"scope,omitempty"`
	Contacts   []string            `json:"contacts,omitempty"`
	TOSURI     string              `json:"tos_uri,omitempty"`
	PolicyURI  string              `json:"policy_uri,omitempty"`

	// ClientNames carries the language tagged variants of client_name,
	// see https://www.rfc-editor.org/rfc/rfc7591#section-2.2.
	ClientNames InternationalizedField `json:"-"`

	// JWKSURI and JWKS must not both be present.
	JWKSURI string              `json:"jwks_uri,omitempty"`
	JWKS    *jose.JSONWebKeySet `json:"jwks,omitempty"`

	ApplicationType     string `json:"application_type,omitempty"`
	SectorIdentifierURI string `json:"sector_identifier_uri,omitempty"`
	SubjectType         string `json:"subject_type,omitempty"`

	IDTokenSignedResponseAlg    string `json:"id_token_signed_response_alg,omitempty"`
	IDTokenEncryptedResponseAlg string `json:"id_token_encrypted_response_alg,omitempty"`
	IDTokenEncryptedResponseEnc string `json:"id_token_encrypted_response_enc,omitempty"`

	UserinfoSignedResponseAlg    string `json:"userinfo_signed_response_alg,omitempty"`
	UserinfoEncryptedResponseAlg string `json:"userinfo_encrypted_response_alg,omitempty"`
	UserinfoEncryptedResponseEnc string `json:"userinfo_encrypted_response_enc,omitempty"`

	RequestObjectSigningAlg    string `json:"request_object_signing_alg,omitempty"`
	RequestObjectEncryptionAlg string `json:"request_object_encryption_alg,omitempty"`
	RequestObjectEncryptionEnc string `json:"request_object_encryption_enc,omitempty"`

	TokenEndpointAuthSigningAlg string `json:"token_endpoint_auth_signing_alg,omitempty"`

	DefaultMaxAge    int      `json:"default_max_age,omitempty"`
	RequireAuthTime  bool     `json:"require_auth_time,omitempty"`
	DefaultACRValues []string `json:"default_acr_values,omitempty"`
	InitiateLoginURI string   `json:"initiate_login_uri,omitempty"`
	RequestURIs      []string `json:"request_uris,omitempty"`

	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris,omitempty"`
}

// ClientRegistrationRequest is the JSON body POSTed to the registration
// endpoint. It is the registration-relevant subset of client information,
// which is exactly the metadata.
type ClientRegistrationRequest = ClientMetadata

func (c *ClientMetadata) MarshalJSON() ([]byte, error) {
	type Alias ClientMetadata
	return mergeAndMarshalClaims((*Alias)(c), c.ClientNames.taggedEntries())
}

func (c *ClientMetadata) UnmarshalJSON(data []byte) error {
	type Alias ClientMetadata
	if err := json.Unmarshal(data, (*Alias)(c)); err != nil {
		return err
	}
	c.ClientNames.FieldName = "client_name"
	return c.ClientNames.collectEntries(data)
}

// ClientInformationResponse is the registration endpoint's success
// response: the registered metadata plus the issued credentials.
type ClientInformationResponse struct {
	ClientID                string `json:"client_id"`
	ClientSecret            string `json:"client_secret,omitempty"`
	RegistrationAccessToken string `json:"registration_access_token,omitempty"`
	RegistrationClientURI   string `json:"registration_client_uri,omitempty"`
	ClientIDIssuedAt        Time   `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   Time   `json:"client_secret_expires_at,omitempty"`

	ClientMetadata
}

// clientCredentials are the fields of ClientInformationResponse that are
// not client metadata. Marshaling needs them separate, as the embedded
// metadata brings its own JSON methods.
type clientCredentials struct {
	ClientID                string `json:"client_id"`
	ClientSecret            string `json:"client_secret,omitempty"`
	RegistrationAccessToken string `json:"registration_access_token,omitempty"`
	RegistrationClientURI   string `json:"registration_client_uri,omitempty"`
	ClientIDIssuedAt        Time   `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   Time   `json:"client_secret_expires_at,omitempty"`
}

func (c *ClientInformationResponse) MarshalJSON() ([]byte, error) {
	metadata, err := c.ClientMetadata.MarshalJSON()
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(metadata, &merged); err != nil {
		return nil, err
	}
	credentials, err := json.Marshal(&clientCredentials{
		ClientID:                c.ClientID,
		ClientSecret:            c.ClientSecret,
		RegistrationAccessToken: c.RegistrationAccessToken,
		RegistrationClientURI:   c.RegistrationClientURI,
		ClientIDIssuedAt:        c.ClientIDIssuedAt,
		ClientSecretExpiresAt:   c.ClientSecretExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(credentials, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func (c *ClientInformationResponse) UnmarshalJSON(data []byte) error {
	var credentials clientCredentials
	if err := json.Unmarshal(data, &credentials); err != nil {
		return err
	}
	c.ClientID = credentials.ClientID
	c.ClientSecret = credentials.ClientSecret
	c.RegistrationAccessToken = credentials.RegistrationAccessToken
	c.RegistrationClientURI = credentials.RegistrationClientURI
	c.ClientIDIssuedAt = credentials.ClientIDIssuedAt
	c.ClientSecretExpiresAt = credentials.ClientSecretExpiresAt
	return c.ClientMetadata.UnmarshalJSON(data)
}

// Validate checks the invariants of registered client information:
// every registered URI must use the https scheme, redirect_uris and
// response_types counts must match when both are given, and response
// types must be consistent with any declared grant types.
func (c *ClientInformationResponse) Validate() error {
	if c.ClientID == "" {
		return ErrClientIDMissing
	}
	return c.ClientMetadata.Validate()
}

// Validate checks the metadata invariants shared by registration requests
// and responses.
func (c *ClientMetadata) Validate() error {
	uris := make([]string, 0, len(c.RedirectURIs)+len(c.RequestURIs)+4)
	uris = append(uris, c.RedirectURIs...)
	uris = append(uris, c.RequestURIs...)
	for _, u := range []string{c.JWKSURI, c.LogoURI, c.SectorIdentifierURI, c.InitiateLoginURI} {
		if u != "" {
			uris = append(uris, u)
		}
	}
	for _, raw := range uris {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme != "https" {
			return ErrRedirectURINotHTTPS
		}
	}
	if len(c.ResponseTypes) > 0 && len(c.RedirectURIs) > 0 &&
		len(c.ResponseTypes) != len(c.RedirectURIs) {
		return ErrRedirectURICount
	}
	if len(c.GrantTypes) > 0 {
		for _, rt := range c.ResponseTypes {
			if !grantTypesAllowResponseType(c.GrantTypes, rt) {
				return ErrGrantResponseMismatch
			}
		}
	}
	return nil
}

func grantTypesAllowResponseType(grants []GrantType, rt ResponseType) bool {
	needed := make([]GrantType, 0, 2)
	if strings.Contains(string(rt), string(ResponseTypeCode)) {
		needed = append(needed, GrantTypeCode)
	}
	if strings.Contains(string(rt), "id_token") || strings.Contains(string(rt), "token") {
		needed = append(needed, GrantTypeImplicit)
	}
	for _, n := range needed {
		found := false
		for _, g := range grants {
			if g == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
