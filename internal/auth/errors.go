package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrFederationFailed はプロバイダーが認証を拒否した、または応答が不正な場合のエラー。
	// ルート層ではログイン失敗URLへのリダイレクトとして扱う。
	ErrFederationFailed = errors.New("federation failed")

	// ErrInvalidProfile はプロフィールに外部IDが含まれていない場合のエラー。
	ErrInvalidProfile = fmt.Errorf("%w: profile has no external identity id", ErrFederationFailed)

	// ErrStoreFault はユーザーストアまたはセッションストアの障害を表す。
	// タイムアウトもこのエラーとして扱い、ルート層では5xxを返す。
	ErrStoreFault = errors.New("identity store fault")
)

// storeFault はストア障害を操作名付きでラップする。
func storeFault(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFault, operation, err)
}
