package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const (
	// oauthStateCookieName は認可リクエストのstateを保持するCookieの名前。
	oauthStateCookieName = "oauth_state"

	// oauthStateMaxAge はstate Cookieの有効期間（秒）。
	oauthStateMaxAge = 600
)

// StateConfig はstate Cookieの属性。
type StateConfig struct {
	CookieSecure bool
	CookieDomain string
}

// IssueOAuthState はCSRF対策用のstateを生成し、Cookieに設定して返す。
// コールバックでVerifyOAuthStateにより照合する。
func IssueOAuthState(w http.ResponseWriter, config StateConfig) (string, error) {
	state, err := generateStateToken()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// VerifyOAuthState はクエリパラメータのstateとCookieのstateを照合する。
// 照合結果に関わらずstate Cookieは削除する。
func VerifyOAuthState(w http.ResponseWriter, r *http.Request, config StateConfig) bool {
	cookie, err := r.Cookie(oauthStateCookieName)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || cookie.Value == "" {
		slog.Warn("state validation failed: missing cookie",
			slog.String("path", r.URL.Path),
		)
		return false
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		slog.Warn("state validation failed: missing query parameter",
			slog.String("path", r.URL.Path),
		)
		return false
	}

	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		slog.Warn("state validation failed: mismatch",
			slog.String("path", r.URL.Path),
		)
		return false
	}
	return true
}

// generateStateToken は暗号的に安全なstateを生成する。
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
