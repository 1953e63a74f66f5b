package oidc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/openidtools/oidc/pkg/crypto"
)

// Claims is satisfied by every verifiable token payload.
type Claims interface {
	GetIssuer() string
	GetSubject() string
	GetAudience() []string
	GetExpiration() time.Time
	GetIssuedAt() time.Time
	GetNonce() string
	GetAuthenticationContextClassReference() string
	GetAuthTime() time.Time
	GetAuthorizedParty() string
	SetSignatureAlgorithm(algorithm jose.SignatureAlgorithm)
}

var (
	ErrParse = errors.New("parsing of token failed")

	ErrIssMissing = fmt.Errorf("%w: iss missing in token", ErrValidation)
	ErrSubMissing = fmt.Errorf("%w: sub missing in token", ErrValidation)
	ErrAudMissing = fmt.Errorf("%w: aud missing in token", ErrValidation)
	ErrExpMissing = fmt.Errorf("%w: exp missing in token", ErrValidation)
	ErrIatMissing = fmt.Errorf("%w: iat missing in token", ErrValidation)

	ErrIssuerInvalid = errors.New("wrong issuer in id token")
	ErrAudience      = errors.New("audience is not valid")
	ErrAzpMissing    = errors.New("authorized party is not set. If Token is valid for multiple audiences, azp must not be empty")
	ErrAzpInvalid    = errors.New("authorized party is not valid")
	ErrNonceInvalid  = errors.New("wrong nonce value in token")

	ErrSignatureMissing        = fmt.Errorf("%w: id_token does not contain a signature", ErrIntegrity)
	ErrSignatureMultiple       = fmt.Errorf("%w: id_token contains multiple signatures", ErrIntegrity)
	ErrSignatureUnsupportedAlg = errors.New("signature algorithm not supported")
	ErrSignatureInvalid        = fmt.Errorf("%w: signature does not verify", ErrIntegrity)
	ErrSignatureInvalidPayload = fmt.Errorf("%w: signature does not match payload", ErrIntegrity)

	ErrExpired         = errors.New("token is expired")
	ErrIatInFuture     = errors.New("issuedAt of token is in the future")
	ErrIatTooOld       = errors.New("issuedAt of token is too old")
	ErrAcrInvalid      = errors.New("acr is invalid")
	ErrAuthTimeMissing = errors.New("claim `auth_time` of token is missing")
	ErrAuthTimeTooOld  = errors.New("auth time of token is too old")

	ErrAtHash = errors.New("wrong at_hash for the released id token")
	ErrCHash  = errors.New("wrong c_hash for the released id token")
)

// ACRVerifier validates the acr claim of a token.
type ACRVerifier func(string) error

// AZPVerifier validates the azp claim of a token.
type AZPVerifier func(string) error

// DefaultACRVerifier returns an ACRVerifier that checks the acr claim
// against a list of expected values.
func DefaultACRVerifier(possibleValues []string) ACRVerifier {
	return func(acr string) error {
		for _, v := range possibleValues {
			if v == acr {
				return nil
			}
		}
		return fmt.Errorf("expected one of: %v, got: %q", possibleValues, acr)
	}
}

// DefaultAZPVerifier returns an AZPVerifier requiring azp, when present,
// to equal the clientID.
func DefaultAZPVerifier(clientID string) AZPVerifier {
	return func(azp string) error {
		if azp != "" && azp != clientID {
			return fmt.Errorf("%w: azp %q must be equal to client_id %q", ErrAzpInvalid, azp, clientID)
		}
		return nil
	}
}

// Verifier caries the fields needed for the claim checks below. The key
// set is re-consulted on every verification, so key rotation at the OP
// needs no lifecycle management here.
type Verifier struct {
	Issuer            string
	ClientID          string
	Nonce             func(ctx context.Context) string
	ACR               ACRVerifier
	AZP               AZPVerifier
	MaxAge            time.Duration
	MaxAgeIAT         time.Duration
	Offset            time.Duration
	SupportedSignAlgs []string
	KeySet            KeySet
}

// ParseToken decodes the payload segment of a compact JWS without
// verifying it and unmarshals it into claims. The raw payload is returned
// for the later signature comparison.
func ParseToken(tokenString string, claims any) ([]byte, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains an invalid number of segments", ErrParse)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed jwt payload: %v", ErrParse, err)
	}
	err = json.Unmarshal(payload, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return payload, nil
}

// CheckIssuer compares the token issuer with the expected one; a single
// trailing slash on either side is not significant.
func CheckIssuer(claims Claims, issuer string) error {
	if strings.TrimSuffix(claims.GetIssuer(), "/") != strings.TrimSuffix(issuer, "/") {
		return fmt.Errorf("%w: expected %q, got %q", ErrIssuerInvalid, issuer, claims.GetIssuer())
	}
	return nil
}

func CheckAudience(claims Claims, clientID string) error {
	for _, aud := range claims.GetAudience() {
		if aud == clientID {
			return nil
		}
	}
	return fmt.Errorf("%w: audience must contain client_id %q", ErrAudience, clientID)
}

func CheckSubject(claims Claims) error {
	if claims.GetSubject() == "" {
		return ErrSubMissing
	}
	return nil
}

// CheckAZPVerifier checks that azp is present when the token is valid for
// multiple audiences and delegates the value check to the verifier.
func CheckAZPVerifier(claims Claims, azp AZPVerifier) error {
	if len(claims.GetAudience()) > 1 && claims.GetAuthorizedParty() == "" {
		return ErrAzpMissing
	}
	if azp == nil {
		return nil
	}
	return azp(claims.GetAuthorizedParty())
}

// CheckSignature verifies the outer JWS of a token string against the key
// set and confirms the verified payload is the one the claims were parsed
// from. The signature algorithm is recorded on the claims.
func CheckSignature(ctx context.Context, token string, payload []byte, claims Claims, supportedSigAlgs []string, set KeySet) error {
	if supportedSigAlgs == nil {
		supportedSigAlgs = []string{string(jose.RS256)}
	}
	sigAlgs := make([]jose.SignatureAlgorithm, len(supportedSigAlgs))
	for i, alg := range supportedSigAlgs {
		sigAlgs[i] = jose.SignatureAlgorithm(alg)
	}
	jws, err := jose.ParseSigned(token, sigAlgs)
	if err != nil {
		if strings.Contains(err.Error(), "unexpected signature algorithm") {
			return fmt.Errorf("%w: expected %q", ErrSignatureUnsupportedAlg, supportedSigAlgs)
		}
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(jws.Signatures) == 0 {
		return ErrSignatureMissing
	}
	if len(jws.Signatures) > 1 {
		return ErrSignatureMultiple
	}
	signedPayload, err := set.VerifySignature(ctx, jws)
	if err != nil {
		if errors.Is(err, ErrKeyNone) || errors.Is(err, ErrKeyMultiple) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !bytes.Equal(signedPayload, payload) {
		return ErrSignatureInvalidPayload
	}
	claims.SetSignatureAlgorithm(jose.SignatureAlgorithm(jws.Signatures[0].Header.Algorithm))
	return nil
}

func CheckExpiration(claims Claims, offset time.Duration) error {
	expiration := claims.GetExpiration().Round(time.Second)
	if !time.Now().Add(-offset).Before(expiration) {
		return ErrExpired
	}
	return nil
}

func CheckIssuedAt(claims Claims, maxAgeIAT, offset time.Duration) error {
	issuedAt := claims.GetIssuedAt().Round(time.Second)
	if issuedAt.IsZero() {
		return ErrIatMissing
	}
	nowWithOffset := time.Now().Add(offset).Round(time.Second)
	if issuedAt.After(nowWithOffset) {
		return fmt.Errorf("%w: (iat: %v, now with offset: %v)", ErrIatInFuture, issuedAt, nowWithOffset)
	}
	if maxAgeIAT == 0 {
		return nil
	}
	maxAge := time.Now().Add(-maxAgeIAT).Round(time.Second)
	if issuedAt.Before(maxAge) {
		return fmt.Errorf("%w: must not be older than %v, but was %v (%v too old)",
			ErrIatTooOld, maxAge, issuedAt, maxAge.Sub(issuedAt))
	}
	return nil
}

func CheckNonce(claims Claims, nonce string) error {
	if claims.GetNonce() != nonce {
		return ErrNonceInvalid
	}
	return nil
}

func CheckAuthorizationContextClassReference(claims Claims, acr ACRVerifier) error {
	if acr == nil {
		return nil
	}
	if err := acr(claims.GetAuthenticationContextClassReference()); err != nil {
		return fmt.Errorf("%w: %v", ErrAcrInvalid, err)
	}
	return nil
}

func CheckAuthTime(claims Claims, maxAge time.Duration) error {
	if maxAge == 0 {
		return nil
	}
	if claims.GetAuthTime().IsZero() {
		return ErrAuthTimeMissing
	}
	authTime := claims.GetAuthTime().Round(time.Second)
	maxAuthTime := time.Now().Add(-maxAge).Round(time.Second)
	if authTime.Before(maxAuthTime) {
		return fmt.Errorf("%w: must not be older than %v, but was %v (%v too old)",
			ErrAuthTimeTooOld, maxAuthTime, authTime, maxAuthTime.Sub(authTime))
	}
	return nil
}

// ClaimHash computes the value of an at_hash / c_hash claim: the left half
// of the hash of the ASCII token, using the hash size implied by the
// signing algorithm of the ID token.
func ClaimHash(claim string, sigAlgorithm jose.SignatureAlgorithm) (string, error) {
	hash, err := crypto.GetHashAlgorithm(sigAlgorithm)
	if err != nil {
		return "", err
	}
	return crypto.HashString(hash, claim, true), nil
}
