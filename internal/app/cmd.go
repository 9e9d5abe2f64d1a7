package app

import "strings"

// Command はbookshelfバイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe はWebhook受信と書籍・ユーザーAPIを提供するHTTPサーバーを起動する。
	CommandServe Command = "serve"
	// CommandMigrate はbooks・usersテーブルのマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認して終了する。
	// distrolessイメージにはcurlがないため、DockerのHEALTHCHECKから使用する。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はos.Args[1:]の先頭要素からサブコマンドを判定する。
// 大文字小文字と前後の空白は区別しない。
// 引数なしや未知のコマンドはserveとして扱い、コンテナのCMD省略時もサーバーが起動するようにする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch cmd := Command(strings.ToLower(strings.TrimSpace(args[0]))); cmd {
	case CommandServe, CommandMigrate, CommandHealthcheck:
		return cmd
	default:
		return CommandServe
	}
}
