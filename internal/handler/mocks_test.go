package handler

import (
	"context"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/webhook"
)

// --- モック ---

type mockDispatcher struct {
	dispatchFn func(ctx context.Context, evt webhook.Event) (*webhook.Result, error)
	calls      int
}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt webhook.Event) (*webhook.Result, error) {
	m.calls++
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, evt)
	}
	return &webhook.Result{Message: "OK"}, nil
}

type mockVerificationRecorder struct {
	reasons []string
}

func (m *mockVerificationRecorder) RecordVerificationFailure(reason string) {
	m.reasons = append(m.reasons, reason)
}

type mockUserService struct {
	listFn   func(ctx context.Context, limit int) ([]*model.User, error)
	getFn    func(ctx context.Context, id string) (*model.User, error)
	updateFn func(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockUserService) List(ctx context.Context, limit int) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockBookService struct {
	listFn   func(ctx context.Context, limit int) ([]*model.Book, error)
	getFn    func(ctx context.Context, id int64) (*model.Book, error)
	createFn func(ctx context.Context, b model.Book) (*model.Book, error)
	updateFn func(ctx context.Context, id int64, b model.Book) (*model.Book, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockBookService) List(ctx context.Context, limit int) ([]*model.Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return []*model.Book{}, nil
}

func (m *mockBookService) Get(ctx context.Context, id int64) (*model.Book, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewBookNotFoundError(id)
}

func (m *mockBookService) Create(ctx context.Context, b model.Book) (*model.Book, error) {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	b.ID = 1
	return &b, nil
}

func (m *mockBookService) Update(ctx context.Context, id int64, b model.Book) (*model.Book, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, b)
	}
	b.ID = id
	return &b, nil
}

func (m *mockBookService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func strPtr(s string) *string { return &s }
