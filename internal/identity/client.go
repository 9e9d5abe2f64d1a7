// Package identity はIdP（Clerk）のBackend APIクライアントを提供する。
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL はClerk Backend APIのベースURL。
	DefaultBaseURL = "https://api.clerk.com"
	// maxErrorBodyBytes はエラーレスポンスからログに残す最大バイト数。
	maxErrorBodyBytes = 512
)

// Client はClerk Backend APIのクライアント。
// 作成したユーザーの内部IDをpublic metadataに書き戻すために使用する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	secretKey  string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
	}
}

type metadataRequest struct {
	PublicMetadata map[string]string `json:"public_metadata"`
}

// ReconcileUserID はIdPユーザーのpublic metadataにuserIdを設定する。
// Clerkのメタデータ更新APIはディープマージのため、既存の他のキーは維持される。
func (c *Client) ReconcileUserID(ctx context.Context, subjectID, userID string) error {
	if subjectID == "" {
		return fmt.Errorf("IdPのユーザーIDが空です")
	}

	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(subjectID) + "/metadata"

	payload, err := json.Marshal(metadataRequest{
		PublicMetadata: map[string]string{"userId": userID},
	})
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Bookshelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Clerk APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("clerk_id", subjectID),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Error("Clerk APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("clerk_id", subjectID),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("Clerk APIがステータス %d を返しました", resp.StatusCode)
	}

	// レスポンスボディは使用しないが、コネクション再利用のため読み捨てる
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
