package auth

import "context"

// Profile はフェデレーションプロバイダーから取得したユーザー情報を表す。
type Profile struct {
	ExternalID  string
	DisplayName string
	Email       string
	AvatarURL   string
}

// OAuthProvider はフェデレーションプロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL は認可エンドポイントのURLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}
