package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/webhook"
)

// maxWebhookBodyBytes はWebhookペイロードの上限サイズ。
const maxWebhookBodyBytes = 1 << 20

// EventVerifier は署名付きペイロードを検証してイベントに変換する。
type EventVerifier interface {
	Verify(body []byte, h webhook.Headers) (webhook.Event, error)
}

// EventDispatcher は検証済みイベントをユーザーストアの操作に振り分ける。
type EventDispatcher interface {
	Dispatch(ctx context.Context, evt webhook.Event) (*webhook.Result, error)
}

// VerificationRecorder は検証失敗をメトリクスに記録する。
type VerificationRecorder interface {
	RecordVerificationFailure(reason string)
}

// WebhookHandler はIdPからのWebhookを受信するHTTPハンドラー。
type WebhookHandler struct {
	verifier   EventVerifier
	dispatcher EventDispatcher
	recorder   VerificationRecorder
}

// NewWebhookHandler はWebhookHandlerを生成する。recorderはnilでもよい。
func NewWebhookHandler(verifier EventVerifier, dispatcher EventDispatcher, recorder VerificationRecorder) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

// Receive は署名を検証し、イベントを処理する。
// 署名検証は受信した生のボディに対して行うため、デコード前のバイト列をそのまま渡す。
// POST /api/webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewInvalidPayloadError("リクエストボディが大きすぎます"))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPayloadError(err.Error()))
		return
	}

	evt, err := h.verifier.Verify(body, webhook.HeadersFrom(r.Header))
	if err != nil {
		h.recordVerificationFailure(err)
		slog.Warn("Error verifying webhook",
			slog.String("error", err.Error()),
		)
		handleServiceError(w, err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), evt)
	if err != nil {
		slog.Warn("webhook event rejected",
			slog.String("event_type", evt.Type()),
			slog.String("error", err.Error()),
		)
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: result.Message,
		User:    toUserResponse(result.User),
	})
}

func (h *WebhookHandler) recordVerificationFailure(err error) {
	if h.recorder == nil {
		return
	}
	reason := "unknown"
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		reason = strings.ToLower(apiErr.Code)
	}
	h.recorder.RecordVerificationFailure(reason)
}
