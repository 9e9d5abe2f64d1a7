// Package user はユーザー管理のドメインロジックを提供する。
// ユーザーの作成はWebhook経由のみで行い、ここでは参照・名前の更新・削除を扱う。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// Sanitizer は名前から表示に不要なマークアップを除去する。
type Sanitizer interface {
	SanitizePtr(text *string) *string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。sanitizerはnilでもよい。
func NewService(userRepo repository.UserRepository, sanitizer Sanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
	}
}

// List はユーザー一覧を返す。limitが0以下の場合は全件を返す。
func (s *Service) List(ctx context.Context, limit int) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は内部IDでユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Update は指定されたフィールドのみを更新し、更新後のユーザーを返す。
// clerk_idとemailはIdP側が正のため、ここでは変更できない。
func (s *Service) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if s.sanitizer != nil {
		update.FirstName = s.sanitizer.SanitizePtr(update.FirstName)
		update.LastName = s.sanitizer.SanitizePtr(update.LastName)
	}

	user, err := s.userRepo.UpdateByID(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Delete は内部IDでユーザーを削除する。存在しない場合はUSER_NOT_FOUNDを返す。
// IdP側のユーザーは削除しないため、再度user.createdが届くまでローカルには存在しない。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)
	return nil
}
