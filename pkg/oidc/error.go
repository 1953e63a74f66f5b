package oidc

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	InvalidRequest          ErrorType = "invalid_request"
	InvalidScope            ErrorType = "invalid_scope"
	InvalidClient           ErrorType = "invalid_client"
	InvalidGrant            ErrorType = "invalid_grant"
	UnauthorizedClient      ErrorType = "unauthorized_client"
	UnsupportedGrantType    ErrorType = "unsupported_grant_type"
	UnsupportedResponseType ErrorType = "unsupported_response_type"
	AccessDenied            ErrorType = "access_denied"
	ServerError             ErrorType = "server_error"
	InvalidRedirectURI      ErrorType = "invalid_redirect_uri"
	InvalidClientMetadata   ErrorType = "invalid_client_metadata"
)

// Error is the OAuth2/OIDC wire error object ({error, error_description}).
// Every endpoint response carrying an `error` member is surfaced as one of
// these, short-circuiting the parse of the success shape.
type Error struct {
	Parent      error     `json:"-" schema:"-"`
	ErrorType   ErrorType `json:"error" schema:"error"`
	Description string    `json:"error_description,omitempty" schema:"error_description,omitempty"`
	State       string    `json:"state,omitempty" schema:"state,omitempty"`
}

func (e *Error) Error() string {
	message := "ErrorType=" + string(e.ErrorType)
	if e.Description != "" {
		message += " Description=" + e.Description
	}
	if e.Parent != nil {
		message += " Parent=" + e.Parent.Error()
	}
	return message
}

func (e *Error) Unwrap() error {
	return e.Parent
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.ErrorType == t.ErrorType &&
		(e.Description == t.Description || t.Description == "") &&
		(e.State == t.State || t.State == "")
}

func (e *Error) WithParent(err error) *Error {
	e.Parent = err
	return e
}

func (e *Error) WithDescription(desc string, args ...any) *Error {
	e.Description = fmt.Sprintf(desc, args...)
	return e
}

// The error kinds below partition every failure of the library so callers
// can match with errors.Is:
//
//   - ErrValidation: a message failed its own field-presence invariant
//   - *Error: the OP answered with a protocol error object
//   - verification sentinels (verifier.go): a semantic protocol rule broke
//   - ErrIntegrity: a signature or MAC did not verify
//   - ErrKeyNone / ErrKeyMultiple (keyset.go): key resolution failed
//   - transport errors are raised by pkg/http and wrapped unchanged
var (
	// ErrValidation is wrapped by every Validate() failure.
	ErrValidation = errors.New("message validation failed")

	// ErrIntegrity is wrapped whenever a signature or MAC does not verify,
	// so tampering can be told apart from semantically wrong claims.
	ErrIntegrity = errors.New("integrity check failed")
)

var (
	ErrScopeMissing          = fmt.Errorf("%w: missing required openid scope", ErrValidation)
	ErrClientIDMissing       = fmt.Errorf("%w: client_id is empty", ErrValidation)
	ErrRedirectURIMissing    = fmt.Errorf("%w: redirect_uri is empty", ErrValidation)
	ErrResponseTypeMissing   = fmt.Errorf("%w: response_type is empty", ErrValidation)
	ErrCodeMissing           = fmt.Errorf("%w: code is empty", ErrValidation)
	ErrIDTokenMissing        = fmt.Errorf("%w: id_token is empty", ErrValidation)
	ErrStateMissing          = fmt.Errorf("%w: state is empty", ErrValidation)
	ErrAccessTokenMissing    = fmt.Errorf("%w: access_token is empty", ErrValidation)
	ErrTokenTypeMissing      = fmt.Errorf("%w: token_type is empty", ErrValidation)
	ErrRedirectURINotHTTPS   = fmt.Errorf("%w: some of the URIs for the client is not on https", ErrValidation)
	ErrRedirectURICount      = fmt.Errorf("%w: redirect_uris count does not match response_types count", ErrValidation)
	ErrGrantResponseMismatch = fmt.Errorf("%w: response_types are not consistent with grant_types", ErrValidation)
)
