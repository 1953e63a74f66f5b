package oidc

import (
	"encoding/json"

	"golang.org/x/text/language"
)

// UserInfo implements the UserInfo response
// (https://openid.net/specs/openid-connect-core-1_0.html#UserInfoResponse).
// Claims carries every claim found on the wire, including aggregated and
// distributed claims (`_claim_names` / `_claim_sources`) as opaque values.
type UserInfo struct {
	Subject string `json:"sub,omitempty"`
	UserInfoProfile
	UserInfoEmail
	UserInfoPhone
	Address *UserInfoAddress `json:"address,omitempty"`

	Claims map[string]any `json:"-"`
}

func (u *UserInfo) GetSubject() string {
	return u.Subject
}

func (u *UserInfo) GetClaim(key string) any {
	return u.Claims[key]
}

func (u *UserInfo) AppendClaims(k string, v any) {
	if u.Claims == nil {
		u.Claims = make(map[string]any)
	}
	u.Claims[k] = v
}

func (u *UserInfo) MarshalJSON() ([]byte, error) {
	type Alias UserInfo
	a := (*Alias)(u)
	return mergeAndMarshalClaims(a, u.Claims)
}

func (u *UserInfo) UnmarshalJSON(data []byte) error {
	type Alias UserInfo
	a := (*Alias)(u)
	return unmarshalJSONMulti(data, a, &u.Claims)
}

type UserInfoProfile struct {
	Name              string  `json:"name,omitempty"`
	GivenName         string  `json:"given_name,omitempty"`
	FamilyName        string  `json:"family_name,omitempty"`
	MiddleName        string  `json:"middle_name,omitempty"`
	Nickname          string  `json:"nickname,omitempty"`
	Profile           string  `json:"profile,omitempty"`
	Picture           string  `json:"picture,omitempty"`
	Website           string  `json:"website,omitempty"`
	Gender            Gender  `json:"gender,omitempty"`
	Birthdate         string  `json:"birthdate,omitempty"`
	Zoneinfo          string  `json:"zoneinfo,omitempty"`
	Locale            *Locale `json:"locale,omitempty"`
	UpdatedAt         Time    `json:"updated_at,omitempty"`
	PreferredUsername string  `json:"preferred_username,omitempty"`
}

// Locale wraps a BCP47 language tag with lenient JSON semantics: an
// unparsable tag is dropped on unmarshal instead of failing the message.
type Locale struct {
	tag language.Tag
}

func NewLocale(tag language.Tag) *Locale {
	return &Locale{tag: tag}
}

func (l *Locale) Tag() language.Tag {
	if l == nil {
		return language.Und
	}
	return l.tag
}

func (l *Locale) String() string {
	return l.Tag().String()
}

func (l *Locale) MarshalJSON() ([]byte, error) {
	tag := l.Tag()
	if tag.IsRoot() {
		return []byte("null"), nil
	}
	return json.Marshal(tag.String())
}

func (l *Locale) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && data[0] == '"' {
		data = data[1 : len(data)-1]
	}
	tag, err := language.Parse(string(data))
	if err == nil && !tag.IsRoot() {
		l.tag = tag
	}
	return nil
}

type UserInfoEmail struct {
	Email string `json:"email,omitempty"`

	// EmailVerified tolerates providers that send the value as a string.
	EmailVerified Bool `json:"email_verified,omitempty"`
}

// Bool accepts both JSON booleans and the strings "true"/"false", which
// some providers emit for *_verified claims.
type Bool bool

func (bs *Bool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*bs = true
	case "false", `"false"`, "null", `""`:
		*bs = false
	default:
		return ErrParse
	}
	return nil
}

type UserInfoPhone struct {
	PhoneNumber         string `json:"phone_number,omitempty"`
	PhoneNumberVerified Bool   `json:"phone_number_verified,omitempty"`
}

type UserInfoAddress struct {
	Formatted     string `json:"formatted,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	Locality      string `json:"locality,omitempty"`
	Region        string `json:"region,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

// UserInfoRequest carries the access token when it is sent as a form
// parameter instead of the Authorization header.
type UserInfoRequest struct {
	AccessToken string `schema:"access_token"`
}
