// Package model はドメインモデルを定義する。
package model

import "time"

// CredentialProviderID はメールアドレス+パスワード認証のaccountsレコードを表すprovider_id。
const CredentialProviderID = "credential"

// User はサービス利用ユーザー（アカウント）を表す。
// emailはユニークで、保存時の大文字小文字をそのまま区別する。
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account はユーザーに紐づく認証情報を表す。
// パスワード認証の場合はProviderIDが"credential"、AccountIDがユーザーIDとなる。
type Account struct {
	ID           string
	UserID       string
	ProviderID   string
	AccountID    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Remember  bool
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity はリクエストに紐づく解決済みの認証主体を表す。
// セッション付与ステップがリクエストごとに1回設定し、以降は読み取り専用。
type Identity struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IdentityFromUser はUserからIdentityを生成する。
func IdentityFromUser(u *User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
