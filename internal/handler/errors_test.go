package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bookshelf/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewMissingHeadersError(), http.StatusBadRequest},
		{model.NewInvalidSignatureError(), http.StatusBadRequest},
		{model.NewInvalidPayloadError("x"), http.StatusBadRequest},
		{model.NewMissingEmailError(), http.StatusBadRequest},
		{model.NewUnhandledEventTypeError("x"), http.StatusBadRequest},
		{model.NewValidationFailedError("x"), http.StatusBadRequest},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewBookNotFoundError(1), http.StatusNotFound},
		{model.NewDuplicateUserError(), http.StatusConflict},
		{model.NewRequestTimeoutError(), http.StatusRequestTimeout},
		{model.NewRateLimitedError(), http.StatusTooManyRequests},
		{model.NewReconcileFailedError("x"), http.StatusInternalServerError},
		{model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("%w: pq: duplicate key", model.NewDuplicateUserError()))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if body := decodeErrorBody(t, w); body["code"] != model.ErrCodeDuplicateUser {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeDuplicateUser)
	}
}

func TestHandleServiceError_DeadlineExceeded(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("query users: %w", context.DeadlineExceeded))

	if w.Code != http.StatusRequestTimeout {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestTimeout)
	}
}
