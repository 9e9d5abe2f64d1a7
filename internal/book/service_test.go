package book

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/security"
)

// --- モック ---

type mockBookRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.Book, error)
	listFn     func(ctx context.Context, limit int) ([]*model.Book, error)
	createFn   func(ctx context.Context, b *model.Book) error
	updateFn   func(ctx context.Context, b *model.Book) (bool, error)
	deleteFn   func(ctx context.Context, id int64) (bool, error)
}

func (m *mockBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockBookRepo) List(ctx context.Context, limit int) ([]*model.Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return []*model.Book{}, nil
}
func (m *mockBookRepo) Create(ctx context.Context, b *model.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	return nil
}
func (m *mockBookRepo) Update(ctx context.Context, b *model.Book) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, b)
	}
	return false, nil
}
func (m *mockBookRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestService_Create_AssignsIDAndSanitizes(t *testing.T) {
	var stored model.Book
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, b *model.Book) error {
			b.ID = 7
			stored = *b
			return nil
		},
	}
	svc := NewService(repo, security.NewTextSanitizer())

	year := 1998
	b, err := svc.Create(context.Background(), model.Book{
		Title:  "<b>Go &amp; You</b>",
		Author: "  Rob  ",
		Year:   &year,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != 7 {
		t.Errorf("ID = %d, want 7", b.ID)
	}
	if stored.Title != "Go & You" {
		t.Errorf("Title = %q, want %q", stored.Title, "Go & You")
	}
	if stored.Author != "Rob" {
		t.Errorf("Author = %q, want %q", stored.Author, "Rob")
	}
	if stored.Year == nil || *stored.Year != 1998 {
		t.Errorf("Year = %v, want 1998", stored.Year)
	}
}

func TestService_Create_EmptyAfterSanitizeIsRejected(t *testing.T) {
	called := false
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, b *model.Book) error {
			called = true
			return nil
		},
	}
	svc := NewService(repo, security.NewTextSanitizer())

	_, err := svc.Create(context.Background(), model.Book{Title: "<script>x</script>", Author: "A"})
	assertCode(t, err, model.ErrCodeValidationFailed)
	if called {
		t.Error("repository should not be called for invalid input")
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockBookRepo{}, nil)

	_, err := svc.Get(context.Background(), 99)
	assertCode(t, err, model.ErrCodeBookNotFound)
}

func TestService_Update(t *testing.T) {
	repo := &mockBookRepo{
		updateFn: func(ctx context.Context, b *model.Book) (bool, error) {
			if b.ID != 3 {
				t.Errorf("ID = %d, want 3", b.ID)
			}
			return true, nil
		},
	}
	svc := NewService(repo, nil)

	b, err := svc.Update(context.Background(), 3, model.Book{ID: 100, Title: "T", Author: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != 3 {
		t.Errorf("ID = %d, want path ID 3", b.ID)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(&mockBookRepo{}, nil)

	_, err := svc.Update(context.Background(), 3, model.Book{Title: "T", Author: "A"})
	assertCode(t, err, model.ErrCodeBookNotFound)
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := NewService(&mockBookRepo{}, nil)

	err := svc.Delete(context.Background(), 3)
	assertCode(t, err, model.ErrCodeBookNotFound)
}

func TestService_Delete_RepoError(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &mockBookRepo{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, repoErr },
	}
	svc := NewService(repo, nil)

	if err := svc.Delete(context.Background(), 3); !errors.Is(err, repoErr) {
		t.Errorf("err = %v, want wrapped %v", err, repoErr)
	}
}
