// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/personality/internal/model"
)

// UserStore は退会処理が必要とするユーザーの取得・削除インターフェース。
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionDeleter はユーザーの全セッションを削除するインターフェース。
type SessionDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	users    UserStore
	sessions SessionDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users UserStore, sessions SessionDeleter) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: accounts）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("starting account withdrawal",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除し、以降のリクエストを匿名にする
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	// 2. ユーザーを削除（accountsはCASCADE削除）
	if err := s.users.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account withdrawal completed",
		slog.String("user_id", userID),
	)

	return nil
}
