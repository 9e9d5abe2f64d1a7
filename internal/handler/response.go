package handler

import (
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
// 既存クライアントとの互換性のためキーはcamelCaseとする。
type userResponse struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerkId"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// bookResponse は書籍情報のAPIレスポンス。
type bookResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   *int   `json:"year"`
}

// messageResponse は処理結果メッセージとユーザー情報のレスポンス。
type messageResponse struct {
	Message string        `json:"message"`
	User    *userResponse `json:"user"`
}

func toUserResponse(u *model.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		ClerkID:   u.ClerkID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*model.User) []*userResponse {
	res := make([]*userResponse, len(users))
	for i, u := range users {
		res[i] = toUserResponse(u)
	}
	return res
}

func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Year:   b.Year,
	}
}

func toBookResponses(books []*model.Book) []bookResponse {
	res := make([]bookResponse, len(books))
	for i, b := range books {
		res[i] = toBookResponse(b)
	}
	return res
}
