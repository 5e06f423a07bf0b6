package middleware

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/securecookie"
)

const sessionCookieName = "session_id"

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secret string // 署名鍵の元になるシークレット
	MaxAge int    // 有効期間（秒）
	Secure bool
	Domain string
}

// SessionCookie はセッションIDを署名付きCookieとして読み書きする。
// 署名が検証できないCookieは存在しないものとして扱う。
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	config CookieConfig
}

// NewSessionCookie はSessionCookieを生成する。
// シークレットの長さに関わらずSHA-256で32バイトのHMAC鍵を導出する。
func NewSessionCookie(config CookieConfig) *SessionCookie {
	hashKey := sha256.Sum256([]byte(config.Secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(config.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &SessionCookie{codec: codec, config: config}
}

// Write はセッションIDを署名してCookieに設定する。
func (c *SessionCookie) Write(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.codec.Encode(sessionCookieName, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   c.config.MaxAge,
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read はCookieからセッションIDを取り出す。
// Cookieがない、または署名が不正な場合はfalseを返す。
func (c *SessionCookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var sessionID string
	if err := c.codec.Decode(sessionCookieName, cookie.Value, &sessionID); err != nil {
		return "", false
	}
	if sessionID == "" {
		return "", false
	}
	return sessionID, true
}

// Clear はセッションCookieを削除する。
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
