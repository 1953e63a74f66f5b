package rp

import (
	"crypto"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	oidccrypto "github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

// SchemeSelfIssued is the pseudo scheme of the self-issued provider's
// authorization endpoint. Requests against it never leave the process.
const SchemeSelfIssued = "openid"

// AuthorizationTarget discriminates where an authorization request goes:
// over the wire to a remote provider, or into the local self-issued
// branch.
type AuthorizationTarget int

const (
	RemoteTarget AuthorizationTarget = iota
	SelfIssuedTarget
)

// TargetForEndpoint classifies an authorization endpoint. The openid:
// pseudo scheme and the self-issued issuer both select the local branch.
func TargetForEndpoint(authorizationEndpoint string) AuthorizationTarget {
	if strings.HasPrefix(authorizationEndpoint, SchemeSelfIssued+":") ||
		strings.HasPrefix(authorizationEndpoint, oidc.IssuerSelfIssued) {
		return SelfIssuedTarget
	}
	return RemoteTarget
}

// ErrNoSelfIssuedOP is returned when the authorization endpoint selects
// the self-issued branch but no local provider was passed.
var ErrNoSelfIssuedOP = errors.New("authorization endpoint is self-issued, but no local provider is configured")

// AuthorizationResult is the outcome of StartAuthorization. Remote
// targets yield the URL to redirect the user to, the self-issued branch
// answers in-process with a minted response.
type AuthorizationResult struct {
	Target      AuthorizationTarget
	RedirectURL string
	Response    *oidc.AuthResponseImplicit
}

// StartAuthorization dispatches an authorization request on the target
// of the configured authorization endpoint. Remote providers get the
// redirect URL built by AuthURL, the openid: pseudo scheme is answered
// by the passed self-issued provider with tokens valid for the given
// duration.
func StartAuthorization(relyingParty RelyingParty, state, nonce string, selfIssued *SelfIssuedOP, validity time.Duration, opts ...AuthURLOpt) (*AuthorizationResult, error) {
	config := relyingParty.OAuthConfig()
	switch target := TargetForEndpoint(config.Endpoint.AuthURL); target {
	case SelfIssuedTarget:
		if selfIssued == nil {
			return nil, ErrNoSelfIssuedOP
		}
		response, err := selfIssued.Authorize(&oidc.AuthRequest{
			Scopes:       oidc.SpaceDelimitedArray(config.Scopes),
			ResponseType: oidc.ResponseTypeIDTokenOnly,
			ClientID:     config.ClientID,
			RedirectURI:  config.RedirectURL,
			State:        state,
			Nonce:        nonce,
		}, validity)
		if err != nil {
			return nil, err
		}
		return &AuthorizationResult{Target: target, Response: response}, nil
	default:
		if nonce != "" {
			opts = append(opts, WithNonce(nonce))
		}
		return &AuthorizationResult{Target: target, RedirectURL: AuthURL(state, relyingParty, opts...)}, nil
	}
}

// SelfIssuedOP mints self-issued ID tokens in-process. The subject is
// the thumbprint of its public key, published in the sub_jwk claim so
// the receiver can verify the token without any key distribution.
type SelfIssuedOP struct {
	signer jose.Signer
	subJWK *jose.JSONWebKey
	sub    string
}

// NewSelfIssuedOP builds a self-issued provider around a signing key.
// A nil signer produces unsecured (alg none) tokens.
func NewSelfIssuedOP(signer jose.Signer, publicKey crypto.PublicKey, alg jose.SignatureAlgorithm) (*SelfIssuedOP, error) {
	op := &SelfIssuedOP{signer: signer}
	if publicKey != nil {
		sub, err := oidccrypto.Thumbprint(publicKey)
		if err != nil {
			return nil, err
		}
		op.sub = sub
		op.subJWK = oidccrypto.PublicJWK(publicKey, "1", alg)
	}
	return op, nil
}

// Authorize answers an authorization request locally with a freshly
// minted self-issued ID token, audience bound to the redirect URI. The
// claims are populated from the requested scopes.
func (s *SelfIssuedOP) Authorize(request *oidc.AuthRequest, validity time.Duration) (*oidc.AuthResponseImplicit, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	claims := s.claimsForRequest(request, validity)
	token, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	return &oidc.AuthResponseImplicit{
		IDToken: token,
		State:   request.State,
	}, nil
}

func (s *SelfIssuedOP) claimsForRequest(request *oidc.AuthRequest, validity time.Duration) *oidc.IDTokenClaims {
	now := time.Now()
	claims := &oidc.IDTokenClaims{
		TokenClaims: oidc.TokenClaims{
			Issuer:     oidc.IssuerSelfIssued,
			Subject:    s.sub,
			Audience:   oidc.Audience{request.RedirectURI},
			Expiration: oidc.FromTime(now.Add(validity)),
			IssuedAt:   oidc.FromTime(now),
			Nonce:      request.Nonce,
		},
		SubJWK: s.subJWK,
	}
	if slices.Contains(request.Scopes, oidc.ScopeProfile) {
		claims.Name = "Myself User"
	}
	if slices.Contains(request.Scopes, oidc.ScopeEmail) {
		claims.Email = "me@self-issued.me"
	}
	if slices.Contains(request.Scopes, oidc.ScopeAddress) {
		claims.Address = &oidc.UserInfoAddress{
			StreetAddress: "Via Test, 1",
			Locality:      "Milano",
			PostalCode:    "20100",
			Country:       "Italy",
		}
	}
	if slices.Contains(request.Scopes, oidc.ScopePhone) {
		claims.PhoneNumber = "0"
	}
	return claims
}

func (s *SelfIssuedOP) sign(claims *oidc.IDTokenClaims) (string, error) {
	if s.signer == nil {
		return oidccrypto.SignUnsecured(claims)
	}
	return oidccrypto.Sign(claims, s.signer)
}

// VerifySelfIssuedToken validates a self-issued ID token: the issuer
// must be the self-issued one, the audience must contain the redirect
// URI of the request, the subject must equal the thumbprint of the key
// in sub_jwk, and the signature must verify against that key.
func VerifySelfIssuedToken(token, redirectURI string, offset time.Duration) (*oidc.IDTokenClaims, error) {
	claims := new(oidc.IDTokenClaims)
	_, err := oidc.ParseToken(token, claims)
	if err != nil {
		return nil, err
	}
	if !claims.IsSelfIssued() {
		return nil, fmt.Errorf("%w: expected %q, got %q", oidc.ErrIssuerInvalid, oidc.IssuerSelfIssued, claims.Issuer)
	}
	if !slices.Contains(claims.Audience, redirectURI) {
		return nil, fmt.Errorf("%w: audience must contain redirect_uri %q", oidc.ErrAudience, redirectURI)
	}
	if err := oidc.CheckExpiration(claims, offset); err != nil {
		return nil, err
	}
	if claims.SubJWK != nil {
		sub, err := oidccrypto.Thumbprint(claims.SubJWK.Key)
		if err != nil {
			return nil, err
		}
		if claims.Subject != sub {
			return nil, fmt.Errorf("%w: sub does not match the sub_jwk thumbprint", oidc.ErrIntegrity)
		}
		verified, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.RS256, jose.ES256, jose.EdDSA})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", oidc.ErrParse, err)
		}
		if _, err := verified.Verify(claims.SubJWK); err != nil {
			return nil, fmt.Errorf("%w: %v", oidc.ErrIntegrity, err)
		}
		return claims, nil
	}
	// unsecured tokens are accepted only in their explicit alg none form
	if err := oidccrypto.ParseUnsecured(token, &struct{}{}); err != nil {
		return nil, fmt.Errorf("%w: %v", oidc.ErrIntegrity, err)
	}
	return claims, nil
}
