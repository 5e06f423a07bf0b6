// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/accountgate/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey      = contextKey("user")
	sessionIDContextKey = contextKey("session_id")
)

// UserResolver はセッションIDから現在のユーザーを解決するインターフェース。
// auth.Serviceが実装する。
type UserResolver interface {
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewSessionMiddleware は署名付きCookieからセッションを読み取り、
// ユーザーを再取得してリクエストコンテキストに注入するミドルウェアを返す。
// セッションがない、期限切れ、またはユーザーが削除済みの場合は匿名のまま次に渡す。
// ストア障害の場合は匿名扱いにせず500を返す。
func NewSessionMiddleware(resolver UserResolver, cookies *SessionCookie) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			sessionID, ok := cookies.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// 2. セッションからユーザーを再取得
			user, err := resolver.GetCurrentUser(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to resolve session user",
					slog.String("error", err.Error()),
				)
				WriteStoreUnavailable(w)
				return
			}

			ctx := ContextWithSessionID(r.Context(), sessionID)
			if user == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			annotateUserID(ctx, user.ID)
			ctx = ContextWithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// SessionIDFromContext はリクエストのセッションIDを取得する。
// ユーザーが解決できなかった場合でも、署名が有効なCookieがあればそのIDを返す。
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// ContextWithSessionID はコンテキストにセッションIDを注入する。
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}
