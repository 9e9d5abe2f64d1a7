package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/model"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	List(ctx context.Context, limit int) ([]*model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	Create(ctx context.Context, b model.Book) (*model.Book, error)
	Update(ctx context.Context, id int64, b model.Book) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

// BookHandler は書籍管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface) *BookHandler {
	return &BookHandler{
		service: service,
	}
}

// bookRequest は書籍の登録・更新リクエストのボディ。
// 文字数の上限はbooksテーブルのカラム長に合わせる。
type bookRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=100"`
	Year   *int   `json:"year" validate:"omitempty,gte=0,lte=9999"`
}

func (req bookRequest) toModel() model.Book {
	return model.Book{Title: req.Title, Author: req.Author, Year: req.Year}
}

// ListBooks は書籍一覧を返す。
// GET /api/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimit(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	books, err := h.service.List(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponses(books))
}

// GetBook は書籍詳細を返す。
// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// CreateBook は書籍を登録する。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if apiErr := decodeAndValidate(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	b, err := h.service.Create(r.Context(), req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(b))
}

// UpdateBook は書籍を上書き更新する。
// PUT /api/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if apiErr := decodeAndValidate(w, r, &req); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	b, err := h.service.Update(r.Context(), id, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// DeleteBook は書籍を削除する。
// DELETE /api/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// bookIDParam はパスパラメータidを正の整数として解析する。
// 不正な場合はエラーレスポンスを書き込みfalseを返す。
func bookIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError("書籍IDは正の整数で指定してください"))
		return 0, false
	}
	return id, true
}
