package oidc

import (
	jose "github.com/go-jose/go-jose/v4"
)

const DiscoveryEndpoint = "/.well-known/openid-configuration"

// DiscoveryConfiguration is the provider metadata published at the
// discovery endpoint (https://openid.net/specs/openid-connect-discovery-1_0.html).
type DiscoveryConfiguration struct {
	// Issuer is the identifier of the OP, used in tokens as the `iss` claim.
	Issuer string `json:"issuer,omitempty"`

	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string `json:"token_endpoint,omitempty"`
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
	UserinfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
	EndSessionEndpoint    string `json:"end_session_endpoint,omitempty"`
	RegistrationEndpoint  string `json:"registration_endpoint,omitempty"`

	// JwksURI references the JSON Web Key Set holding the signing keys RPs
	// use to validate signatures, and possibly the OP's encryption keys.
	JwksURI string `json:"jwks_uri,omitempty"`

	ScopesSupported        []string       `json:"scopes_supported,omitempty"`
	ResponseTypesSupported []string       `json:"response_types_supported,omitempty"`
	ResponseModesSupported []ResponseMode `json:"response_modes_supported,omitempty"`
	GrantTypesSupported    []GrantType    `json:"grant_types_supported,omitempty"`
	ACRValuesSupported     []string       `json:"acr_values_supported,omitempty"`
	SubjectTypesSupported  []string       `json:"subject_types_supported,omitempty"`

	IDTokenSigningAlgValuesSupported    []string `json:"id_token_signing_alg_values_supported,omitempty"`
	IDTokenEncryptionAlgValuesSupported []string `json:"id_token_encryption_alg_values_supported,omitempty"`
	IDTokenEncryptionEncValuesSupported []string `json:"id_token_encryption_enc_values_supported,omitempty"`

	UserinfoSigningAlgValuesSupported    []string `json:"userinfo_signing_alg_values_supported,omitempty"`
	UserinfoEncryptionAlgValuesSupported []string `json:"userinfo_encryption_alg_values_supported,omitempty"`
	UserinfoEncryptionEncValuesSupported []string `json:"userinfo_encryption_enc_values_supported,omitempty"`

	RequestObjectSigningAlgValuesSupported    []string `json:"request_object_signing_alg_values_supported,omitempty"`
	RequestObjectEncryptionAlgValuesSupported []string `json:"request_object_encryption_alg_values_supported,omitempty"`
	RequestObjectEncryptionEncValuesSupported []string `json:"request_object_encryption_enc_values_supported,omitempty"`

	TokenEndpointAuthMethodsSupported          []AuthMethod `json:"token_endpoint_auth_methods_supported,omitempty"`
	TokenEndpointAuthSigningAlgValuesSupported []string     `json:"token_endpoint_auth_signing_alg_values_supported,omitempty"`

	DisplayValuesSupported []Display `json:"display_values_supported,omitempty"`
	ClaimTypesSupported    []string  `json:"claim_types_supported,omitempty"`
	ClaimsSupported        []string  `json:"claims_supported,omitempty"`

	ClaimsParameterSupported      bool                  `json:"claims_parameter_supported,omitempty"`
	CodeChallengeMethodsSupported []CodeChallengeMethod `json:"code_challenge_methods_supported,omitempty"`

	ServiceDocumentation   string  `json:"service_documentation,omitempty"`
	ClaimsLocalesSupported Locales `json:"claims_locales_supported,omitempty"`
	UILocalesSupported     Locales `json:"ui_locales_supported,omitempty"`

	RequestParameterSupported bool `json:"request_parameter_supported,omitempty"`
	// RequestURIParameterSupported defaults to true per spec, therefore no omitempty.
	RequestURIParameterSupported  bool `json:"request_uri_parameter_supported"`
	RequireRequestURIRegistration bool `json:"require_request_uri_registration,omitempty"`

	OPPolicyURI         string `json:"op_policy_uri,omitempty"`
	OPTermsOfServiceURI string `json:"op_tos_uri,omitempty"`

	// Keys is the materialized JWK Set fetched from JwksURI when the
	// configuration was obtained. It is a snapshot: concurrent flows share
	// it read-only and key rotation is handled by fetching a fresh
	// configuration (or via a remote key set that re-fetches on miss).
	Keys *jose.JSONWebKeySet `json:"-"`
}
