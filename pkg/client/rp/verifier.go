package rp

import (
	"context"
	"errors"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/openidtools/oidc/pkg/client"
	"github.com/openidtools/oidc/pkg/crypto"
	"github.com/openidtools/oidc/pkg/oidc"
)

// Default tolerances of the ID token validation rules. The expiration
// check allows ten minutes of clock skew, issuance must not lie more
// than a day in the past.
const (
	DefaultClockSkew = 10 * time.Minute
	DefaultMaxAgeIAT = 24 * time.Hour
)

// ErrEncryptedToken is returned when a JWE arrives but no decryption key
// is configured.
var ErrEncryptedToken = errors.New("token is encrypted, but no decryption key is available")

// tokenDecryptionAlgs are the JWE algorithms accepted on inbound tokens.
var (
	tokenDecryptionAlgs = []jose.KeyAlgorithm{jose.RSA1_5, jose.RSA_OAEP, jose.RSA_OAEP_256}
	tokenDecryptionEncs = []jose.ContentEncryption{jose.A128CBC_HS256, jose.A192CBC_HS384, jose.A256CBC_HS512, jose.A128GCM, jose.A256GCM}
)

// VerifyTokens implement the Token Response Validation as defined in OIDC specification
// https://openid.net/specs/openid-connect-core-1_0.html#TokenResponseValidation
func VerifyTokens[C oidc.IDClaims](ctx context.Context, accessToken, idToken string, v *IDTokenVerifier, opts ...VerifyOpt) (claims C, err error) {
	ctx, span := client.Tracer.Start(ctx, "VerifyTokens")
	defer span.End()

	var nilClaims C

	claims, err = VerifyIDToken[C](ctx, idToken, v, opts...)
	if err != nil {
		return nilClaims, err
	}
	if err := VerifyAccessToken(accessToken, claims.GetAccessTokenHash(), claims.GetSignatureAlgorithm()); err != nil {
		return nilClaims, err
	}
	return claims, nil
}

type verifyConfig struct {
	decryptionKey any
}

type VerifyOpt func(*verifyConfig)

// WithTokenDecryptionKey supplies the private key used to unwrap an
// encrypted (JWE) ID token before signature verification. Decryption
// happens before verification, nested tokens are signed first and
// encrypted second on the issuing side.
func WithTokenDecryptionKey(key any) VerifyOpt {
	return func(c *verifyConfig) {
		c.decryptionKey = key
	}
}

// IsEncrypted reports whether the compact token has the five segment
// JWE form.
func IsEncrypted(token string) bool {
	return strings.Count(token, ".") == 4
}

// DecryptToken unwraps the outer JWE of a nested token. Tokens that are
// not encrypted pass through unchanged.
func DecryptToken(token string, key any) (string, error) {
	if !IsEncrypted(token) {
		return token, nil
	}
	if key == nil {
		return "", ErrEncryptedToken
	}
	return crypto.DecryptJWT(token, tokenDecryptionAlgs, tokenDecryptionEncs, key)
}

// VerifyIDToken validates the id token according to
// https://openid.net/specs/openid-connect-core-1_0.html#IDTokenValidation
func VerifyIDToken[C oidc.Claims](ctx context.Context, token string, v *IDTokenVerifier, opts ...VerifyOpt) (claims C, err error) {
	ctx, span := client.Tracer.Start(ctx, "VerifyIDToken")
	defer span.End()

	var nilClaims C
	config := new(verifyConfig)
	for _, opt := range opts {
		opt(config)
	}

	decrypted, err := DecryptToken(token, config.decryptionKey)
	if err != nil {
		return nilClaims, err
	}
	payload, err := oidc.ParseToken(decrypted, &claims)
	if err != nil {
		return nilClaims, err
	}

	if err := oidc.CheckSubject(claims); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckIssuer(claims, v.Issuer); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckAudience(claims, v.ClientID); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckAZPVerifier(claims, v.AZP); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckSignature(ctx, decrypted, payload, claims, v.SupportedSignAlgs, v.KeySet); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckExpiration(claims, v.Offset); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckIssuedAt(claims, v.MaxAgeIAT, v.Offset); err != nil {
		return nilClaims, err
	}

	if v.Nonce != nil {
		if err = oidc.CheckNonce(claims, v.Nonce(ctx)); err != nil {
			return nilClaims, err
		}
	}

	if err = oidc.CheckAuthorizationContextClassReference(claims, v.ACR); err != nil {
		return nilClaims, err
	}

	if err = oidc.CheckAuthTime(claims, v.MaxAge); err != nil {
		return nilClaims, err
	}

	return claims, nil
}

type IDTokenVerifier oidc.Verifier

// VerifyAccessToken validates the access token according to
// https://openid.net/specs/openid-connect-core-1_0.html#CodeFlowTokenValidation
func VerifyAccessToken(accessToken, atHash string, sigAlgorithm jose.SignatureAlgorithm) error {
	if atHash == "" {
		return nil
	}

	actual, err := oidc.ClaimHash(accessToken, sigAlgorithm)
	if err != nil {
		return err
	}
	if actual != atHash {
		return oidc.ErrAtHash
	}
	return nil
}

// VerifyImplicitResponse verifies the tokens of a parsed implicit or
// hybrid flow response: the full ID token chain, the at_hash binding of
// the access token and, when the response carries a code, its c_hash
// binding.
func VerifyImplicitResponse[C oidc.IDClaims](ctx context.Context, response *oidc.AuthResponseImplicit, v *IDTokenVerifier, opts ...VerifyOpt) (claims C, err error) {
	ctx, span := client.Tracer.Start(ctx, "VerifyImplicitResponse")
	defer span.End()

	var nilClaims C

	claims, err = VerifyTokens[C](ctx, response.AccessToken, response.IDToken, v, opts...)
	if err != nil {
		return nilClaims, err
	}
	if response.Code != "" {
		if err := VerifyCodeHash(response.Code, claims.GetCodeHash(), claims.GetSignatureAlgorithm()); err != nil {
			return nilClaims, err
		}
	}
	return claims, nil
}

// VerifyCodeHash validates the c_hash binding of a hybrid flow response:
// the left half of the hash of the code must equal the claim in the
// ID token.
func VerifyCodeHash(code, cHash string, sigAlgorithm jose.SignatureAlgorithm) error {
	if cHash == "" {
		return nil
	}

	actual, err := oidc.ClaimHash(code, sigAlgorithm)
	if err != nil {
		return err
	}
	if actual != cHash {
		return oidc.ErrCHash
	}
	return nil
}

// NewIDTokenVerifier returns a oidc.Verifier suitable for ID token verification.
func NewIDTokenVerifier(issuer, clientID string, keySet oidc.KeySet, options ...VerifierOption) *IDTokenVerifier {
	v := &IDTokenVerifier{
		Issuer:    issuer,
		ClientID:  clientID,
		KeySet:    keySet,
		Offset:    DefaultClockSkew,
		MaxAgeIAT: DefaultMaxAgeIAT,
		Nonce: func(_ context.Context) string {
			return ""
		},
		AZP: oidc.DefaultAZPVerifier(clientID),
	}

	for _, opts := range options {
		opts(v)
	}

	return v
}

// VerifierOption is the type for providing dynamic options to the IDTokenVerifier
type VerifierOption func(*IDTokenVerifier)

// WithIssuedAtOffset mitigates the risk of iat to be in the future
// because of clock skews with the ability to add an offset to the current time
func WithIssuedAtOffset(offset time.Duration) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.Offset = offset
	}
}

// WithIssuedAtMaxAge provides the ability to define the maximum duration between iat and now
func WithIssuedAtMaxAge(maxAge time.Duration) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.MaxAgeIAT = maxAge
	}
}

// WithNonceCheck sets the function to check the nonce
func WithNonceCheck(nonce func(context.Context) string) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.Nonce = nonce
	}
}

// WithACRVerifier sets the verifier for the acr claim
func WithACRVerifier(verifier oidc.ACRVerifier) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.ACR = verifier
	}
}

// WithAZPVerifier sets the verifier for the azp claim
func WithAZPVerifier(verifier oidc.AZPVerifier) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.AZP = verifier
	}
}

// WithAuthTimeMaxAge provides the ability to define the maximum duration between auth_time and now
func WithAuthTimeMaxAge(maxAge time.Duration) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.MaxAge = maxAge
	}
}

// WithSupportedSigningAlgorithms overwrites the default RS256 signing algorithm
func WithSupportedSigningAlgorithms(algs ...string) VerifierOption {
	return func(v *IDTokenVerifier) {
		v.SupportedSignAlgs = algs
	}
}
