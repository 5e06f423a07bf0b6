// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// ExternalIDはフェデレーションプロバイダー上のIDで、全ユーザーで一意。
// ユーザーの検索はメールアドレスではなく必ずExternalIDで行う。
type User struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
	ExternalID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Principal はセッションに保存する最小限の識別情報。
// リクエストごとにUserIDからUserを再取得するため、プロフィールは保持しない。
type Principal struct {
	UserID string `json:"user_id"`
}

// IsZero はPrincipalが空かどうかを返す。
func (p Principal) IsZero() bool {
	return p.UserID == ""
}

// PrincipalOf はユーザーからPrincipalを構築する。
func PrincipalOf(u *User) Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{UserID: u.ID}
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	Principal Principal
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻の時点でセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
