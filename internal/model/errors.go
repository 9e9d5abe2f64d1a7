// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: webhook, validation, user, book, system
	Action   string // 呼び出し元向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingHeaders     = "MISSING_HEADERS"
	ErrCodeInvalidSignature   = "INVALID_SIGNATURE"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeMissingEmail       = "MISSING_EMAIL"
	ErrCodeUnhandledEventType = "UNHANDLED_EVENT_TYPE"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeReconcileFailed    = "RECONCILE_FAILED"
	ErrCodeBookNotFound       = "BOOK_NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewMissingHeadersError はsvix署名ヘッダー欠落エラーを生成する。
func NewMissingHeadersError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingHeaders,
		Message:  "Error occurred -- no svix headers",
		Category: "webhook",
		Action:   "svix-id、svix-timestamp、svix-signatureヘッダーを付与してください。",
	}
}

// NewInvalidSignatureError は署名検証失敗エラーを生成する。
func NewInvalidSignatureError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignature,
		Message:  "Error occurred -- invalid webhook signature",
		Category: "webhook",
		Action:   "Webhookシークレットとタイムスタンプを確認してください。",
	}
}

// NewInvalidPayloadError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidPayloadError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPayload,
		Message:  fmt.Sprintf("リクエストボディの解析に失敗しました: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewMissingEmailError はuser.createdイベントにメールアドレスが含まれない場合のエラーを生成する。
func NewMissingEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingEmail,
		Message:  "イベントにメールアドレスが含まれていません。",
		Category: "webhook",
		Action:   "IdP側のユーザーにメールアドレスが登録されているか確認してください。",
	}
}

// NewUnhandledEventTypeError は未対応のイベント種別エラーを生成する。
func NewUnhandledEventTypeError(eventType string) *APIError {
	return &APIError{
		Code:     ErrCodeUnhandledEventType,
		Message:  fmt.Sprintf("Unhandled event type: %s", eventType),
		Category: "webhook",
		Action:   "user.created、user.updated、user.deleted のいずれかを購読してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateUserError はclerk_idまたはemailが既に登録済みの場合のエラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "ユーザーは既に登録されています。",
		Category: "user",
		Action:   "同じイベントが再送されていないか確認してください。",
	}
}

// NewReconcileFailedError はIdPへのメタデータ反映失敗エラーを生成する。
// レスポンスには使用せず、ログとメトリクスにのみ記録する。
func NewReconcileFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeReconcileFailed,
		Message:  fmt.Sprintf("IdPへのメタデータ反映に失敗しました: %s", reason),
		Category: "system",
		Action:   "IdP側のpublic metadataを手動で確認してください。",
	}
}

// NewBookNotFoundError は書籍が見つからない場合のエラーを生成する。
func NewBookNotFoundError(bookID int64) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された書籍が見つかりません: %d", bookID),
		Category: "book",
		Action:   "書籍IDを確認してください。",
	}
}

// NewValidationFailedError は入力値検証エラーを生成する。
func NewValidationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewRequestTimeoutError はリクエストのタイムアウトエラーを生成する。
func NewRequestTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestTimeout,
		Message:  "リクエストがタイムアウトしました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// ErrCodeRateLimited はレート制限超過のエラーコード。
const ErrCodeRateLimited = "RATE_LIMITED"

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数を待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録すること。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
