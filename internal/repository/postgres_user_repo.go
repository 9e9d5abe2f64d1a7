package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

const userColumns = `id, clerk_id, first_name, last_name, email, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, now: time.Now}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser はusersテーブルの1行をmodel.Userに変換する。
func scanUser(row rowScanner) (*model.User, error) {
	var (
		user      model.User
		firstName sql.NullString
		lastName  sql.NullString
	)
	if err := row.Scan(
		&user.ID, &user.ClerkID, &firstName, &lastName,
		&user.Email, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.FirstName = nullStringPtr(firstName)
	user.LastName = nullStringPtr(lastName)
	return &user, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByClerkID はIdPのユーザーIDでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE clerk_id = $1`,
		clerkID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by clerk ID: %w", err)
	}
	return user, nil
}

// List はユーザー一覧を作成日時の昇順で返す。limitが0以下の場合は全件を返す。
func (r *PostgresUserRepo) List(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。
// clerk_idまたはemailの一意制約違反はDUPLICATE_USERとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.ClerkID, user.FirstName, user.LastName,
		user.Email, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return model.NewDuplicateUserError()
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateByClerkID はIdPのユーザーIDで一致するユーザーを部分更新する。
func (r *PostgresUserRepo) UpdateByClerkID(ctx context.Context, clerkID string, update model.UserUpdate) (*model.User, error) {
	return r.update(ctx, "clerk_id", clerkID, update)
}

// UpdateByID は指定IDのユーザーを部分更新する。
func (r *PostgresUserRepo) UpdateByID(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	return r.update(ctx, "id", id, update)
}

// update はnilでないフィールドのみをSET句に含めて更新する。
// 更新対象がない場合もupdated_atは更新せず、存在確認のみ行う。
func (r *PostgresUserRepo) update(ctx context.Context, keyColumn, key string, update model.UserUpdate) (*model.User, error) {
	if update.IsEmpty() {
		if keyColumn == "clerk_id" {
			return r.FindByClerkID(ctx, key)
		}
		return r.FindByID(ctx, key)
	}

	query, args := buildUserUpdate(keyColumn, key, update, r.now().UTC())

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// buildUserUpdate は部分更新用のUPDATE文とパラメータを構築する。
// 名前の空文字はNULLIFでNULLとして保存する。
// keyColumnは呼び出し元で固定値のみを渡すこと。
func buildUserUpdate(keyColumn, key string, update model.UserUpdate, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column, placeholder string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = "+fmt.Sprintf(placeholder, len(args)))
	}

	if update.FirstName != nil {
		add("first_name", "NULLIF($%d, '')", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", "NULLIF($%d, '')", *update.LastName)
	}
	add("updated_at", "$%d", now)

	args = append(args, key)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE %s = $%d RETURNING %s`,
		strings.Join(sets, ", "), keyColumn, len(args), userColumns,
	)
	return query, args
}

// DeleteByClerkID はIdPのユーザーIDで一致するユーザーを削除する。
func (r *PostgresUserRepo) DeleteByClerkID(ctx context.Context, clerkID string) (bool, error) {
	return r.delete(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return r.delete(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepo) delete(ctx context.Context, query, key string) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
