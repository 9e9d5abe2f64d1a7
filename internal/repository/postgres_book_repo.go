package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

func scanBook(row rowScanner) (*model.Book, error) {
	var (
		book model.Book
		year sql.NullInt64
	)
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &year); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		book.Year = &y
	}
	return &book, nil
}

// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT id, title, author, year FROM books WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}
	return book, nil
}

// List は書籍一覧をID昇順で返す。limitが0以下の場合は全件を返す。
func (r *PostgresBookRepo) List(ctx context.Context, limit int) ([]*model.Book, error) {
	query := `SELECT id, title, author, year FROM books ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (title, author, year) VALUES ($1, $2, $3) RETURNING id`,
		book.Title, book.Author, book.Year,
	).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

// Update は書籍を上書き更新する。該当なしの場合はfalseを返す。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET title = $1, author = $2, year = $3 WHERE id = $4`,
		book.Title, book.Author, book.Year, book.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete は指定IDの書籍を削除する。該当なしの場合はfalseを返す。
func (r *PostgresBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
