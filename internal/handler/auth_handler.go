// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/accountgate/internal/auth"
	"github.com/hitoshi/accountgate/internal/middleware"
	"github.com/hitoshi/accountgate/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SuccessRedirectURL string // ログイン成功時のリダイレクト先
	FailureRedirectURL string // ログイン失敗時のリダイレクト先
	LogoutRedirectURL  string // ログアウト後のリダイレクト先
	CookieDomain       string
	CookieSecure       bool
}

// AuthHandler はフェデレーションログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookies *middleware.SessionCookie
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookies *middleware.SessionCookie, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		config:  config,
	}
}

// userResponse は/auth/meのレスポンスボディ。
type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	ExternalID  string `json:"external_id"`
}

func (h *AuthHandler) stateConfig() middleware.StateConfig {
	return middleware.StateConfig{
		CookieSecure: h.config.CookieSecure,
		CookieDomain: h.config.CookieDomain,
	}
}

// Login はフェデレーションログインを開始する。
// GET /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// stateをCookieに保存（CSRF対策）
	state, err := middleware.IssueOAuthState(w, h.stateConfig())
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// Callback はプロバイダーからのコールバックを処理する。
// GET /auth/callback?code=xxx&state=yyy
//
// プロバイダー起因の失敗は失敗URLへのリダイレクト、ストア障害は500を返す。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）。state Cookieはここで破棄される
	if !middleware.VerifyOAuthState(w, r, h.stateConfig()) {
		h.redirectFailure(w, r, "state mismatch")
		return
	}

	query := r.URL.Query()

	// 2. プロバイダーが認証を拒否した場合
	if providerErr := query.Get("error"); providerErr != "" {
		slog.Warn("provider denied authentication",
			slog.String("error", providerErr),
			slog.String("error_description", query.Get("error_description")),
		)
		h.redirectFailure(w, r, "provider error")
		return
	}

	// 3. 認可コードの取得
	code := query.Get("code")
	if code == "" {
		h.redirectFailure(w, r, "missing authorization code")
		return
	}

	// 4. 認証処理
	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrFederationFailed) {
			slog.Warn("federated login failed", slog.String("error", err.Error()))
			h.redirectFailure(w, r, "federation failed")
			return
		}
		slog.Error("login callback failed", slog.String("error", err.Error()))
		middleware.WriteStoreUnavailable(w)
		return
	}

	// 5. 署名付きセッションCookieを設定
	if err := h.cookies.Write(w, session.ID); err != nil {
		slog.Error("failed to encode session cookie", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// 6. 成功URLにリダイレクト
	http.Redirect(w, r, h.config.SuccessRedirectURL, http.StatusFound)
}

// Logout はセッションを破棄する。
// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID, _ = h.cookies.Read(r)
	}

	// Cookieはストアの結果に関わらずクリアする
	h.cookies.Clear(w)

	if sessionID != "" {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			middleware.WriteStoreUnavailable(w)
			return
		}
	}

	http.Redirect(w, r, h.config.LogoutRedirectURL, http.StatusFound)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
//
// 未認証の場合は401ではなく404を返す。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
		ExternalID:  user.ExternalID,
	})
}

func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Info("redirecting to login failure url", slog.String("reason", reason))
	http.Redirect(w, r, h.config.FailureRedirectURL, http.StatusFound)
}
