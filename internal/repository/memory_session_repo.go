package repository

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/hitoshi/accountgate/internal/model"
)

// MemorySessionRepo はプロセス内メモリを使用したセッションリポジトリ。
// 単一インスタンスでの開発・デモ用途を想定している。
// 期限切れエントリはttlcacheのバックグラウンド処理で削除される。
type MemorySessionRepo struct {
	cache *ttlcache.Cache[string, model.Session]
	now   func() time.Time
}

// NewMemorySessionRepo はMemorySessionRepoを生成し、期限切れエントリの削除を開始する。
// 不要になったらStopを呼び出すこと。
func NewMemorySessionRepo() *MemorySessionRepo {
	cache := ttlcache.New[string, model.Session](
		ttlcache.WithDisableTouchOnHit[string, model.Session](),
	)
	go cache.Start()

	return &MemorySessionRepo{cache: cache, now: time.Now}
}

// Stop は期限切れエントリ削除のバックグラウンド処理を停止する。
func (r *MemorySessionRepo) Stop() {
	r.cache.Stop()
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.cache.Set(session.ID, *session, session.ExpiresAt.Sub(r.now()))
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item := r.cache.Get(id)
	if item == nil {
		return nil, nil
	}

	session := item.Value()
	if session.Expired(r.now()) {
		return nil, nil
	}
	return &session, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.cache.Delete(id)
	return nil
}

// compile-time interface check
var _ SessionRepository = (*MemorySessionRepo)(nil)
