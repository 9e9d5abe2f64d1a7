// Package webhook はIdP（Clerk）からSvix経由で配信される署名付きイベントを検証し、
// ローカルのユーザーストアへ反映する。
package webhook

import (
	"encoding/json"
	"fmt"
)

// イベント種別
const (
	EventTypeUserCreated = "user.created"
	EventTypeUserUpdated = "user.updated"
	EventTypeUserDeleted = "user.deleted"
)

// Event は検証済みのWebhookイベントを表す。
// 実体はUserCreatedEvent、UserUpdatedEvent、UserDeletedEvent、UnknownEventのいずれか。
type Event interface {
	// Type はイベント種別タグを返す。
	Type() string
	isEvent()
}

// UserCreatedEvent はIdP側でユーザーが作成されたことを表す。
type UserCreatedEvent struct {
	SubjectID      string
	EmailAddresses []string
	FirstName      *string
	LastName       *string
	// ImageURL はusersテーブルに列がないため保存しない。処理ログにhas_imageとして出力する。
	ImageURL       string
}

// UserUpdatedEvent はIdP側でユーザー情報が更新されたことを表す。
// nilの名前フィールドはペイロードに含まれなかったことを示す。
type UserUpdatedEvent struct {
	SubjectID string
	FirstName *string
	LastName  *string
	// ImageURL は保存しない。処理ログにhas_imageとして出力する。
	ImageURL  string
}

// UserDeletedEvent はIdP側でユーザーが削除されたことを表す。
type UserDeletedEvent struct {
	SubjectID string
}

// UnknownEvent は未対応の種別のイベントを表す。
type UnknownEvent struct {
	EventType string
}

func (UserCreatedEvent) Type() string { return EventTypeUserCreated }
func (UserUpdatedEvent) Type() string { return EventTypeUserUpdated }
func (UserDeletedEvent) Type() string { return EventTypeUserDeleted }
func (e UnknownEvent) Type() string   { return e.EventType }

func (UserCreatedEvent) isEvent() {}
func (UserUpdatedEvent) isEvent() {}
func (UserDeletedEvent) isEvent() {}
func (UnknownEvent) isEvent()     {}

// clerkPayload はClerkのWebhookペイロードのうち利用するフィールド。
type clerkPayload struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		ImageURL  string  `json:"image_url"`
	} `json:"data"`
}

// decodeEvent はペイロードを種別ごとのイベント型に変換する。
// JSONのnullは未指定と同じく扱う。
func decodeEvent(body []byte) (Event, error) {
	var p clerkPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("JSONのデコードに失敗しました: %w", err)
	}
	if p.Type == "" {
		return nil, fmt.Errorf("typeが指定されていません")
	}

	switch p.Type {
	case EventTypeUserCreated, EventTypeUserUpdated, EventTypeUserDeleted:
		if p.Data.ID == "" {
			return nil, fmt.Errorf("data.idが指定されていません")
		}
	default:
		return UnknownEvent{EventType: p.Type}, nil
	}

	switch p.Type {
	case EventTypeUserCreated:
		emails := make([]string, 0, len(p.Data.EmailAddresses))
		for _, e := range p.Data.EmailAddresses {
			emails = append(emails, e.EmailAddress)
		}
		return UserCreatedEvent{
			SubjectID:      p.Data.ID,
			EmailAddresses: emails,
			FirstName:      p.Data.FirstName,
			LastName:       p.Data.LastName,
			ImageURL:       p.Data.ImageURL,
		}, nil
	case EventTypeUserUpdated:
		return UserUpdatedEvent{
			SubjectID: p.Data.ID,
			FirstName: p.Data.FirstName,
			LastName:  p.Data.LastName,
			ImageURL:  p.Data.ImageURL,
		}, nil
	default:
		return UserDeletedEvent{SubjectID: p.Data.ID}, nil
	}
}
