package webhook

import (
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/hitoshi/bookshelf/internal/model"
)

// Svix署名ヘッダー名
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// Headers はSvixの署名ヘッダーの値を保持する。
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFrom はHTTPリクエストヘッダーから署名ヘッダーを取り出す。
func HeadersFrom(h http.Header) Headers {
	return Headers{
		ID:        h.Get(HeaderID),
		Timestamp: h.Get(HeaderTimestamp),
		Signature: h.Get(HeaderSignature),
	}
}

func (h Headers) complete() bool {
	return h.ID != "" && h.Timestamp != "" && h.Signature != ""
}

// Verifier はWebhookペイロードの署名を検証する。
// 検証はsvixライブラリに委譲する（HMAC-SHA256、タイムスタンプ許容幅5分）。
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier は共有シークレットからVerifierを生成する。
// シークレットは "whsec_" プレフィックス付きのbase64文字列を想定する。
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify は署名を検証し、成功した場合のみペイロードをイベントに変換して返す。
// ヘッダーが欠けている場合は暗号学的検証を行わずにMISSING_HEADERSを返す。
func (v *Verifier) Verify(body []byte, h Headers) (Event, error) {
	if !h.complete() {
		return nil, model.NewMissingHeadersError()
	}

	header := http.Header{}
	header.Set(HeaderID, h.ID)
	header.Set(HeaderTimestamp, h.Timestamp)
	header.Set(HeaderSignature, h.Signature)

	if err := v.wh.Verify(body, header); err != nil {
		// 原因はログ用に保持し、レスポンスにはAPIErrorのみを使用する
		return nil, fmt.Errorf("%w: %v", model.NewInvalidSignatureError(), err)
	}

	evt, err := decodeEvent(body)
	if err != nil {
		return nil, model.NewInvalidPayloadError(err.Error())
	}
	return evt, nil
}
