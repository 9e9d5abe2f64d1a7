package webhook

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

// defaultReconcileTimeout はメタデータ反映呼び出しのデフォルトタイムアウト。
const defaultReconcileTimeout = 5 * time.Second

// UserStore はDispatcherが利用するユーザー永続化のインターフェース。
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	UpdateByClerkID(ctx context.Context, clerkID string, update model.UserUpdate) (*model.User, error)
	DeleteByClerkID(ctx context.Context, clerkID string) (bool, error)
}

// MetadataReconciler は作成したユーザーの内部IDをIdP側のpublic metadataに書き戻す。
type MetadataReconciler interface {
	ReconcileUserID(ctx context.Context, subjectID, userID string) error
}

// Sanitizer は名前から表示に不要なマークアップを除去する。
type Sanitizer interface {
	SanitizePtr(text *string) *string
}

// EventRecorder はイベント処理結果をメトリクスに記録する。
type EventRecorder interface {
	RecordWebhookEvent(eventType, result string)
	RecordReconcileFailure()
}

// Result はイベント処理の結果を表す。
// user.deletedの場合Userはnilとなる。
type Result struct {
	Message string
	User    *model.User
}

// Dispatcher は検証済みイベントをユーザーストアの操作に振り分ける。
type Dispatcher struct {
	store            UserStore
	reconciler       MetadataReconciler
	sanitizer        Sanitizer
	recorder         EventRecorder
	reconcileTimeout time.Duration
	now              func() time.Time
	newID            func() string
}

// Option はDispatcherの設定を変更する。
type Option func(*Dispatcher)

// WithSanitizer は名前に適用するSanitizerを設定する。
func WithSanitizer(s Sanitizer) Option {
	return func(d *Dispatcher) { d.sanitizer = s }
}

// WithRecorder はメトリクスの記録先を設定する。
func WithRecorder(r EventRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithReconcileTimeout はメタデータ反映のタイムアウトを設定する。0以下は無視する。
func WithReconcileTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.reconcileTimeout = timeout
		}
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithIDGenerator はユーザーIDの生成関数を差し替える。
func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) { d.newID = newID }
}

// NewDispatcher はDispatcherを生成する。reconcilerはnilでもよく、その場合メタデータ反映を行わない。
func NewDispatcher(store UserStore, reconciler MetadataReconciler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:            store,
		reconciler:       reconciler,
		reconcileTimeout: defaultReconcileTimeout,
		now:              time.Now,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch はイベント種別に応じてユーザーの作成・更新・削除を行う。
// 1リクエスト1イベントを同期的に処理し、リトライは行わない。
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (*Result, error) {
	var (
		result *Result
		err    error
		label  = evt.Type()
	)

	switch e := evt.(type) {
	case UserCreatedEvent:
		result, err = d.handleCreated(ctx, e)
	case UserUpdatedEvent:
		result, err = d.handleUpdated(ctx, e)
	case UserDeletedEvent:
		result, err = d.handleDeleted(ctx, e)
	case UnknownEvent:
		label = "unknown"
		err = model.NewUnhandledEventTypeError(e.EventType)
	default:
		label = "unknown"
		err = model.NewUnhandledEventTypeError(evt.Type())
	}

	d.record(label, err)
	return result, err
}

func (d *Dispatcher) handleCreated(ctx context.Context, e UserCreatedEvent) (*Result, error) {
	if len(e.EmailAddresses) == 0 || strings.TrimSpace(e.EmailAddresses[0]) == "" {
		return nil, model.NewMissingEmailError()
	}

	now := d.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:        d.newID(),
		ClerkID:   e.SubjectID,
		FirstName: emptyToNil(d.sanitize(e.FirstName)),
		LastName:  emptyToNil(d.sanitize(e.LastName)),
		Email:     strings.TrimSpace(e.EmailAddresses[0]),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.store.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("ユーザーを作成しました",
		slog.String("event_type", e.Type()),
		slog.String("clerk_id", e.SubjectID),
		slog.String("user_id", user.ID),
		slog.Bool("has_image", e.ImageURL != ""),
	)

	d.reconcile(ctx, e.SubjectID, user.ID)

	return &Result{Message: "OK", User: user}, nil
}

// reconcile はIdPへ内部IDを書き戻す。
// 失敗してもユーザー作成は取り消さず、WARNログとメトリクスのみ記録する。
func (d *Dispatcher) reconcile(ctx context.Context, subjectID, userID string) {
	if d.reconciler == nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, d.reconcileTimeout)
	defer cancel()

	if err := d.reconciler.ReconcileUserID(rctx, subjectID, userID); err != nil {
		apiErr := model.NewReconcileFailedError(err.Error())
		slog.Warn("IdPへのメタデータ反映に失敗しました",
			slog.String("code", apiErr.Code),
			slog.String("clerk_id", subjectID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		if d.recorder != nil {
			d.recorder.RecordReconcileFailure()
		}
	}
}

func (d *Dispatcher) handleUpdated(ctx context.Context, e UserUpdatedEvent) (*Result, error) {
	// サニタイズで空になった名前は空文字のまま渡し、ストア側でNULLとして保存させる
	update := model.UserUpdate{
		FirstName: d.sanitize(e.FirstName),
		LastName:  d.sanitize(e.LastName),
	}

	user, err := d.store.UpdateByClerkID(ctx, e.SubjectID, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ユーザーを更新しました",
		slog.String("event_type", e.Type()),
		slog.String("clerk_id", e.SubjectID),
		slog.Bool("has_image", e.ImageURL != ""),
	)

	return &Result{Message: "OK", User: user}, nil
}

func (d *Dispatcher) handleDeleted(ctx context.Context, e UserDeletedEvent) (*Result, error) {
	deleted, err := d.store.DeleteByClerkID(ctx, e.SubjectID)
	if err != nil {
		return nil, err
	}

	// 該当なしでも成功として扱う（再送時の冪等性）
	slog.Info("ユーザー削除イベントを処理しました",
		slog.String("event_type", e.Type()),
		slog.String("clerk_id", e.SubjectID),
		slog.Bool("deleted", deleted),
	)

	return &Result{Message: "OK"}, nil
}

func (d *Dispatcher) sanitize(text *string) *string {
	if d.sanitizer == nil {
		return text
	}
	return d.sanitizer.SanitizePtr(text)
}

func (d *Dispatcher) record(eventType string, err error) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordWebhookEvent(eventType, resultLabel(err))
}

// resultLabel はメトリクス用の結果ラベルを返す。
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return strings.ToLower(apiErr.Code)
	}
	return "error"
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
