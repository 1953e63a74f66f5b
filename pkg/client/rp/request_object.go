package rp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/openidtools/oidc/pkg/client"
	"github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

// RequestObjectClaims is the JWT payload of an authorization request
// passed by value (`request`) or by reference (`request_uri`). The
// parameters mirror the plain query form, iss is the client_id and aud
// the issuer of the provider.
type RequestObjectClaims struct {
	Issuer   string        `json:"iss,omitempty"`
	Audience oidc.Audience `json:"aud,omitempty"`

	Scopes       oidc.SpaceDelimitedArray `json:"scope,omitempty"`
	ResponseType oidc.ResponseType        `json:"response_type,omitempty"`
	ClientID     string                   `json:"client_id,omitempty"`
	RedirectURI  string                   `json:"redirect_uri,omitempty"`
	State        string                   `json:"state,omitempty"`
	Nonce        string                   `json:"nonce,omitempty"`
	MaxAge       *uint                    `json:"max_age,omitempty"`
	Claims       *oidc.ClaimsRequest      `json:"claims,omitempty"`
}

// NewRequestObjectClaims lifts a plain authorization request into the
// claims of a request object.
func NewRequestObjectClaims(request *oidc.AuthRequest, clientID, issuer string) *RequestObjectClaims {
	return &RequestObjectClaims{
		Issuer:       clientID,
		Audience:     oidc.Audience{issuer},
		Scopes:       request.Scopes,
		ResponseType: request.ResponseType,
		ClientID:     request.ClientID,
		RedirectURI:  request.RedirectURI,
		State:        request.State,
		Nonce:        request.Nonce,
		MaxAge:       request.MaxAge,
		Claims:       request.Claims,
	}
}

// SignRequestObject serializes and signs the request object with the
// RP's signer.
func SignRequestObject(claims *RequestObjectClaims, signer jose.Signer) (string, error) {
	return crypto.Sign(claims, signer)
}

// SignAndEncryptRequestObject builds a nested request object: signed
// with the RP's signer first, then encrypted for the provider's
// encryption key. The provider reverses the layering, decrypting before
// verifying.
func SignAndEncryptRequestObject(claims *RequestObjectClaims, signer jose.Signer, alg jose.KeyAlgorithm, enc jose.ContentEncryption, encryptionKey any) (string, error) {
	signed, err := SignRequestObject(claims, signer)
	if err != nil {
		return "", err
	}
	return crypto.EncryptJWT(signed, alg, enc, encryptionKey)
}

// FetchRequestObject dereferences a request_uri and returns the raw
// request object token found at the location.
func FetchRequestObject(ctx context.Context, requestURI string, httpClient *http.Client) (string, error) {
	ctx, span := client.Tracer.Start(ctx, "FetchRequestObject")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURI, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request_uri returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ProcessRequestObject decodes a possibly nested request object:
// decrypt the outer JWE when one is present, then verify the inner JWS
// against the key set and unmarshal the claims.
func ProcessRequestObject(ctx context.Context, token string, decryptionKey any, supportedSigAlgs []string, set oidc.KeySet) (*RequestObjectClaims, error) {
	decrypted, err := DecryptToken(token, decryptionKey)
	if err != nil {
		return nil, err
	}
	claims := new(RequestObjectClaims)
	payload, err := oidc.ParseToken(decrypted, claims)
	if err != nil {
		return nil, err
	}
	if err := checkRequestObjectSignature(ctx, decrypted, payload, supportedSigAlgs, set); err != nil {
		return nil, err
	}
	return claims, nil
}

func checkRequestObjectSignature(ctx context.Context, token string, payload []byte, supportedSigAlgs []string, set oidc.KeySet) error {
	var discard discardClaims
	return oidc.CheckSignature(ctx, token, payload, &discard, supportedSigAlgs, set)
}

// discardClaims satisfies oidc.Claims for tokens whose claims are
// unmarshalled elsewhere.
type discardClaims struct {
	oidc.TokenClaims
}
