// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bookshelf/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// 一意性（clerk_id, email）の保証はDB制約に委譲する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByClerkID はIdPのユーザーIDでユーザーを取得する。見つからない場合はnilを返す。
	FindByClerkID(ctx context.Context, clerkID string) (*model.User, error)

	// List はユーザー一覧を作成日時の昇順で返す。limitが0以下の場合は全件を返す。
	List(ctx context.Context, limit int) ([]*model.User, error)

	// Create はユーザーを作成する。
	// clerk_idまたはemailが重複する場合はDUPLICATE_USERのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateByClerkID はIdPのユーザーIDで一致するユーザーを部分更新し、更新後の値を返す。
	// 見つからない場合はnilを返す。
	UpdateByClerkID(ctx context.Context, clerkID string, update model.UserUpdate) (*model.User, error)

	// UpdateByID は指定IDのユーザーを部分更新し、更新後の値を返す。
	// 見つからない場合はnilを返す。
	UpdateByID(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)

	// DeleteByClerkID はIdPのユーザーIDで一致するユーザーを削除する。
	// 削除した場合はtrue、該当なしの場合はfalseを返す。
	DeleteByClerkID(ctx context.Context, clerkID string) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 削除した場合はtrue、該当なしの場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// BookRepository は書籍データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Book, error)

	// List は書籍一覧をID昇順で返す。limitが0以下の場合は全件を返す。
	List(ctx context.Context, limit int) ([]*model.Book, error)

	// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
	Create(ctx context.Context, book *model.Book) error

	// Update は書籍を上書き更新する。該当なしの場合はfalseを返す。
	Update(ctx context.Context, book *model.Book) (bool, error)

	// Delete は指定IDの書籍を削除する。該当なしの場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
