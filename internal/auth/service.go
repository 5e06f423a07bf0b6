package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/accountgate/internal/model"
	"github.com/hitoshi/accountgate/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int           // セッション有効期間（秒）
	StoreTimeout  time.Duration // セッションストア呼び出しのタイムアウト
	Metrics       MetricsRecorder
}

// Service は認証に関するビジネスロジックを提供する。
// プロバイダーとのコード交換、Bridgeによるユーザー解決、セッション発行をまとめる。
type Service struct {
	oauth       OAuthProvider
	bridge      *Bridge
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	bridge *Bridge,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = DefaultStoreTimeout
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}
	return &Service{
		oauth:       oauth,
		bridge:      bridge,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL はプロバイダーの認可URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はプロバイダーのコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はBridgeがusersレコードを作成する。
// プロバイダー起因の失敗はErrFederationFailed、ストア障害はErrStoreFaultでラップして返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、プロフィールを取得
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.config.Metrics.RecordLoginFailure(FailureReasonExchange)
		return nil, fmt.Errorf("%w: %w", ErrFederationFailed, err)
	}

	// 2. ローカルユーザーを解決または作成
	principal, err := s.bridge.ResolveOrCreateUser(ctx, profile)
	if err != nil {
		reason := FailureReasonStore
		if errors.Is(err, ErrFederationFailed) {
			reason = FailureReasonProfile
		}
		s.config.Metrics.RecordLoginFailure(reason)
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, principal)
	if err != nil {
		s.config.Metrics.RecordLoginFailure(FailureReasonStore)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.config.Metrics.RecordLoginSuccess()
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		s.config.Metrics.RecordStoreFault("delete_session")
		return storeFault("delete session", err)
	}

	slog.Info("user logged out", slog.String("session_id", maskSessionID(sessionID)))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが存在しない、期限切れ、またはユーザーが存在しない場合はnil, nilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return s.bridge.Rehydrate(ctx, session.Principal)
}

func (s *Service) findSession(ctx context.Context, sessionID string) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		s.config.Metrics.RecordStoreFault("find_session")
		return nil, storeFault("find session", err)
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, principal model.Principal) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		Principal: principal,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.config.Metrics.RecordStoreFault("create_session")
		return nil, storeFault("save session", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// maskSessionID はログ出力用にセッションIDの先頭のみを残す。
func maskSessionID(id string) string {
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "***"
}
