// Package book は書籍管理のドメインロジックを提供する。
package book

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// Sanitizer はタイトルや著者名から表示に不要なマークアップを除去する。
type Sanitizer interface {
	Sanitize(text string) string
}

// Service は書籍管理のサービス層。
type Service struct {
	bookRepo  repository.BookRepository
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。sanitizerはnilでもよい。
func NewService(bookRepo repository.BookRepository, sanitizer Sanitizer) *Service {
	return &Service{
		bookRepo:  bookRepo,
		sanitizer: sanitizer,
	}
}

// List は書籍一覧を返す。limitが0以下の場合は全件を返す。
func (s *Service) List(ctx context.Context, limit int) ([]*model.Book, error) {
	books, err := s.bookRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("書籍一覧の取得に失敗しました: %w", err)
	}
	return books, nil
}

// Get は指定IDの書籍を取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("書籍の取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewBookNotFoundError(id)
	}
	return b, nil
}

// Create は書籍を登録し、採番されたIDを含む書籍を返す。
func (s *Service) Create(ctx context.Context, b model.Book) (*model.Book, error) {
	if err := s.clean(&b); err != nil {
		return nil, err
	}

	if err := s.bookRepo.Create(ctx, &b); err != nil {
		return nil, fmt.Errorf("書籍の登録に失敗しました: %w", err)
	}

	slog.Info("書籍を登録しました",
		slog.Int64("book_id", b.ID),
	)
	return &b, nil
}

// Update は指定IDの書籍を上書き更新する。
func (s *Service) Update(ctx context.Context, id int64, b model.Book) (*model.Book, error) {
	if err := s.clean(&b); err != nil {
		return nil, err
	}
	b.ID = id

	updated, err := s.bookRepo.Update(ctx, &b)
	if err != nil {
		return nil, fmt.Errorf("書籍の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewBookNotFoundError(id)
	}
	return &b, nil
}

// Delete は指定IDの書籍を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.bookRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("書籍の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewBookNotFoundError(id)
	}

	slog.Info("書籍を削除しました",
		slog.Int64("book_id", id),
	)
	return nil
}

// clean はタイトルと著者名を無害化し、空になった場合は検証エラーを返す。
func (s *Service) clean(b *model.Book) error {
	if s.sanitizer != nil {
		b.Title = s.sanitizer.Sanitize(b.Title)
		b.Author = s.sanitizer.Sanitize(b.Author)
	}
	if b.Title == "" {
		return model.NewValidationFailedError("titleは必須です")
	}
	if b.Author == "" {
		return model.NewValidationFailedError("authorは必須です")
	}
	return nil
}
