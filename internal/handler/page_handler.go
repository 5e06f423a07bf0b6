package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/accountgate/internal/middleware"
	"github.com/hitoshi/accountgate/internal/web"
)

// PageHandler はログインページとアカウントページを返すハンドラー。
type PageHandler struct {
	pages *web.Pages
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(pages *web.Pages) *PageHandler {
	return &PageHandler{pages: pages}
}

// Login はログインページを返す。
// GET /
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.RenderLogin(w, "/auth"); err != nil {
		slog.Error("failed to render login page", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}

// Account は認証済みユーザーのアカウントページを返す。未認証の場合はログインページへリダイレクトする。
// GET /private
func (h *PageHandler) Account(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.pages.RenderAccount(w, user, "/auth/logout"); err != nil {
		slog.Error("failed to render account page", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}
