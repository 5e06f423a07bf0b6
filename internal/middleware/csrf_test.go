package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func issueState(t *testing.T, config StateConfig) (string, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	state, err := IssueOAuthState(w, config)
	if err != nil {
		t.Fatalf("IssueOAuthState() error = %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookieName {
			return state, c
		}
	}
	t.Fatal("state cookie not set")
	return "", nil
}

func TestIssueOAuthState_SetsCookie(t *testing.T) {
	state, c := issueState(t, StateConfig{CookieSecure: true, CookieDomain: "example.com"})

	if len(state) != 64 {
		t.Errorf("state length = %d, want 64", len(state))
	}
	if c.Value != state {
		t.Errorf("cookie value = %q, want %q", c.Value, state)
	}
	if c.MaxAge != oauthStateMaxAge {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, oauthStateMaxAge)
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("HttpOnly = %v, Secure = %v; want both true", c.HttpOnly, c.Secure)
	}
	if c.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", c.Domain)
	}
}

func TestIssueOAuthState_Unique(t *testing.T) {
	s1, _ := issueState(t, StateConfig{})
	s2, _ := issueState(t, StateConfig{})
	if s1 == s2 {
		t.Error("states should be unique")
	}
}

func TestVerifyOAuthState(t *testing.T) {
	state, cookie := issueState(t, StateConfig{})

	tests := []struct {
		name   string
		query  string
		cookie *http.Cookie
		want   bool
	}{
		{name: "match", query: "?state=" + state, cookie: cookie, want: true},
		{name: "mismatch", query: "?state=other", cookie: cookie, want: false},
		{name: "missing query", query: "", cookie: cookie, want: false},
		{name: "missing cookie", query: "?state=" + state, cookie: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback"+tt.query, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			if got := VerifyOAuthState(w, req, StateConfig{}); got != tt.want {
				t.Errorf("VerifyOAuthState() = %v, want %v", got, tt.want)
			}

			// state Cookieは常に削除される
			cleared := false
			for _, c := range w.Result().Cookies() {
				if c.Name == oauthStateCookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			if !cleared {
				t.Error("state cookie should be cleared")
			}
		})
	}
}
