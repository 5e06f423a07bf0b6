// Package auth はフェデレーションログイン、ローカルユーザーとの紐付け、
// セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/accountgate/internal/model"
	"github.com/hitoshi/accountgate/internal/repository"
)

// DefaultStoreTimeout はストア呼び出し1回あたりのデフォルトのタイムアウト。
const DefaultStoreTimeout = 5 * time.Second

// BridgeConfig はBridgeの設定。
type BridgeConfig struct {
	StoreTimeout time.Duration
	Metrics      MetricsRecorder
}

// Bridge はフェデレーションプロフィールとローカルユーザー、セッションのPrincipalを相互に変換する。
type Bridge struct {
	users   repository.UserRepository
	timeout time.Duration
	metrics MetricsRecorder
	now     func() time.Time
	newID   func() string
}

// NewBridge はBridgeを生成する。
func NewBridge(users repository.UserRepository, config BridgeConfig) *Bridge {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = DefaultStoreTimeout
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}
	return &Bridge{
		users:   users,
		timeout: config.StoreTimeout,
		metrics: config.Metrics,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// ResolveOrCreateUser は外部IDでローカルユーザーを検索し、存在しなければ作成してPrincipalを返す。
// 同じ外部IDで並行に初回ログインした場合は一意制約違反を検知し、
// 先に作成されたユーザーを再検索して返す。
func (b *Bridge) ResolveOrCreateUser(ctx context.Context, profile *Profile) (model.Principal, error) {
	if profile == nil || strings.TrimSpace(profile.ExternalID) == "" {
		return model.Principal{}, ErrInvalidProfile
	}

	// 1. 外部IDで既存ユーザーを検索
	existing, err := b.findByExternalID(ctx, profile.ExternalID)
	if err != nil {
		return model.Principal{}, err
	}
	if existing != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID),
		)
		return model.PrincipalOf(existing), nil
	}

	// 2. 新規ユーザーを作成
	now := b.now()
	user := &model.User{
		ID:          b.newID(),
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		AvatarURL:   profile.AvatarURL,
		ExternalID:  profile.ExternalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = b.create(ctx, user)
	if errors.Is(err, model.ErrDuplicateExternalID) {
		// 3. 並行ログインで先に作成されていた場合は再検索する
		winner, findErr := b.findByExternalID(ctx, profile.ExternalID)
		if findErr != nil {
			return model.Principal{}, findErr
		}
		if winner == nil {
			b.metrics.RecordStoreFault("create_user")
			return model.Principal{}, storeFault("create user",
				fmt.Errorf("duplicate external id reported but user not found"))
		}
		slog.Info("user created concurrently, reusing existing record",
			slog.String("user_id", winner.ID),
		)
		return model.PrincipalOf(winner), nil
	}
	if err != nil {
		return model.Principal{}, err
	}

	b.metrics.RecordUserCreated()
	slog.Info("new user created", slog.String("user_id", user.ID))
	return model.PrincipalOf(user), nil
}

// Rehydrate はセッションのPrincipalからユーザーを再取得する。
// Principalが空、またはユーザーが存在しない場合はnil, nilを返す。
func (b *Bridge) Rehydrate(ctx context.Context, principal model.Principal) (*model.User, error) {
	if principal.IsZero() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	user, err := b.users.FindByID(ctx, principal.UserID)
	if err != nil {
		b.metrics.RecordStoreFault("find_user")
		return nil, storeFault("find user by id", err)
	}
	return user, nil
}

func (b *Bridge) findByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	user, err := b.users.FindByExternalID(ctx, externalID)
	if err != nil {
		b.metrics.RecordStoreFault("find_user_by_external_id")
		return nil, storeFault("find user by external id", err)
	}
	return user, nil
}

// create はユーザーを作成する。一意制約違反はmodel.ErrDuplicateExternalIDのまま返す。
func (b *Bridge) create(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := b.users.Create(ctx, user)
	if err == nil || errors.Is(err, model.ErrDuplicateExternalID) {
		return err
	}
	b.metrics.RecordStoreFault("create_user")
	return storeFault("create user", err)
}
