package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPrincipalOf(t *testing.T) {
	if p := PrincipalOf(&User{ID: "u1", Email: "j@x.com"}); p.UserID != "u1" {
		t.Errorf("PrincipalOf().UserID = %q, want %q", p.UserID, "u1")
	}
	if p := PrincipalOf(nil); !p.IsZero() {
		t.Errorf("PrincipalOf(nil) = %+v, want zero", p)
	}
}

// Principalはユーザーidのみをシリアライズする
func TestPrincipal_JSONHoldsOnlyUserID(t *testing.T) {
	data, err := json.Marshal(PrincipalOf(&User{ID: "u1", DisplayName: "Jane", Email: "j@x.com"}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"user_id":"u1"}` {
		t.Errorf("json = %s, want %s", data, `{"user_id":"u1"}`)
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ExpiresAt: tt.expiresAt}
			if got := s.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewStoreUnavailableError()
	if got := err.Error(); got != "[STORE_UNAVAILABLE] 認証情報の保存先に接続できませんでした。" {
		t.Errorf("Error() = %q", got)
	}
}
