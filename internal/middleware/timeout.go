package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// NewTimeoutMiddleware はリクエストコンテキストに期限を設定するミドルウェアを返す。
// ハンドラーが応答を書き込む前に期限を超えた場合は408を返す。
// ハンドラーはコンテキストのキャンセルに従って処理を打ち切る必要がある。
func NewTimeoutMiddleware(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !rec.written {
				slog.Warn("request timed out",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", timeout),
				)
				WriteErrorResponse(w, http.StatusRequestTimeout, model.NewRequestTimeoutError())
			}
		})
	}
}
