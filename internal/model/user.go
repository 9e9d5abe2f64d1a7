// Package model はドメインモデルを定義する。
package model

import "time"

// User は外部IdP（Clerk）から同期されたローカルユーザーを表す。
// ClerkIDは作成後に変更されず、Webhookイベントの突合キーとして使用する。
type User struct {
	ID        string
	ClerkID   string
	FirstName *string
	LastName  *string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate はユーザーの部分更新内容を表す。
// nilのフィールドは更新対象外とし、既存の値を維持する。
// 空文字は名前の削除を表し、作成時と同じくNULLとして保存される。
type UserUpdate struct {
	FirstName *string
	LastName  *string
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil
}

// Book は書籍を表す。
type Book struct {
	ID     int64
	Title  string
	Author string
	Year   *int
}
