package rp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jeremija/gosubmit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openidtools/oidc/pkg/oidc"
)

func TestParseCodeResponse(t *testing.T) {
	tests := []struct {
		name           string
		values         url.Values
		expectedState  string
		expectedScopes []string
		want           *oidc.AuthResponseCode
		wantErr        error
	}{
		{
			name: "success",
			values: url.Values{
				"code":  {"SplxlOBeZQQYbYS6WxSbIA"},
				"state": {"af0ifjsldkj"},
			},
			expectedState: "af0ifjsldkj",
			want: &oidc.AuthResponseCode{
				Code:  "SplxlOBeZQQYbYS6WxSbIA",
				State: "af0ifjsldkj",
			},
		},
		{
			name: "scope echo",
			values: url.Values{
				"code":  {"SplxlOBeZQQYbYS6WxSbIA"},
				"scope": {"openid profile"},
			},
			expectedScopes: []string{"openid", "profile", "email"},
			want: &oidc.AuthResponseCode{
				Code:  "SplxlOBeZQQYbYS6WxSbIA",
				Scope: oidc.SpaceDelimitedArray{"openid", "profile"},
			},
		},
		{
			name: "error response",
			values: url.Values{
				"error":             {"access_denied"},
				"error_description": {"user denied"},
				"state":             {"af0ifjsldkj"},
			},
			wantErr: &oidc.Error{
				ErrorType:   "access_denied",
				Description: "user denied",
				State:       "af0ifjsldkj",
			},
		},
		{
			name: "missing code",
			values: url.Values{
				"state": {"af0ifjsldkj"},
			},
			wantErr: oidc.ErrCodeMissing,
		},
		{
			name: "state mismatch",
			values: url.Values{
				"code":  {"SplxlOBeZQQYbYS6WxSbIA"},
				"state": {"other"},
			},
			expectedState: "af0ifjsldkj",
			wantErr:       oidc.ErrValidation,
		},
		{
			name: "unrequested scope",
			values: url.Values{
				"code":  {"SplxlOBeZQQYbYS6WxSbIA"},
				"scope": {"openid admin"},
			},
			expectedScopes: []string{"openid", "profile"},
			wantErr:        oidc.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCodeResponse(tt.values, tt.expectedState, tt.expectedScopes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseImplicitResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		got, err := ParseImplicitResponse(url.Values{
			"access_token": {"SlAV32hkKG"},
			"token_type":   {"bearer"},
			"id_token":     {"eyJ0.ey.J0"},
			"state":        {"af0ifjsldkj"},
			"expires_in":   {"3600"},
		}, "af0ifjsldkj", nil)
		require.NoError(t, err)
		assert.Equal(t, &oidc.AuthResponseImplicit{
			AccessToken: "SlAV32hkKG",
			TokenType:   "bearer",
			IDToken:     "eyJ0.ey.J0",
			State:       "af0ifjsldkj",
			ExpiresIn:   3600,
		}, got)
	})
	t.Run("hybrid with code", func(t *testing.T) {
		got, err := ParseImplicitResponse(url.Values{
			"code":     {"SplxlOBeZQQYbYS6WxSbIA"},
			"id_token": {"eyJ0.ey.J0"},
			"state":    {"af0ifjsldkj"},
		}, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "SplxlOBeZQQYbYS6WxSbIA", got.Code)
	})
	t.Run("missing id_token", func(t *testing.T) {
		_, err := ParseImplicitResponse(url.Values{
			"access_token": {"SlAV32hkKG"},
			"state":        {"af0ifjsldkj"},
		}, "", nil)
		require.ErrorIs(t, err, oidc.ErrIDTokenMissing)
	})
}

const formPostDocument = `<html>
 <head><title>Submit This Form</title></head>
 <body onload="javascript:document.forms[0].submit()">
  <form method="post" action="https://client.example.org/callback">
   <input type="hidden" name="state" value="DcP7csa3hMlvybERqcieLHrRzKBra"/>
   <input type="hidden" name="id_token" value="eyJ0.ey.J0"/>
   <input type="hidden" name="code" value="SplxlOBeZQQYbYS6WxSbIA"/>
  </form>
 </body>
</html>`

func TestParseFormPostResponse(t *testing.T) {
	got, err := ParseFormPostResponse(strings.NewReader(formPostDocument), "DcP7csa3hMlvybERqcieLHrRzKBra", nil)
	require.NoError(t, err)
	assert.Equal(t, &oidc.AuthResponseImplicit{
		IDToken: "eyJ0.ey.J0",
		State:   "DcP7csa3hMlvybERqcieLHrRzKBra",
		Code:    "SplxlOBeZQQYbYS6WxSbIA",
	}, got)

	t.Run("no form", func(t *testing.T) {
		_, err := ParseFormPostResponse(strings.NewReader("<html><body>nothing here</body></html>"), "", nil)
		require.Error(t, err)
	})
}

// The document must also be submittable by a browser; cross-check with a
// simulated form submission.
func TestParseFormPostResponse_submittable(t *testing.T) {
	req := gosubmit.ParseWithURL(strings.NewReader(formPostDocument), "https://op.example.org/authorize").
		FirstForm().Testing(t).NewTestRequest(gosubmit.AutoFill())
	require.NoError(t, req.ParseForm())
	assert.Equal(t, "SplxlOBeZQQYbYS6WxSbIA", req.PostFormValue("code"))
	assert.Equal(t, "DcP7csa3hMlvybERqcieLHrRzKBra", req.PostFormValue("state"))
	assert.Equal(t, "eyJ0.ey.J0", req.PostFormValue("id_token"))
}
