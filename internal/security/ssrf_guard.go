// Package security はアプリケーションのセキュリティ機能を提供する。
//
// OutboundGuard はIdP APIなど外部サービスへの送信リクエストを、
// 設定ミスや改ざんされた接続先URLから保護する。
// TextSanitizer はIdPやクライアントから受け取った表示用テキストからマークアップを除去する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// blockedNetworks は送信先として許可しないネットワーク範囲。
// safeurlはDNS解決後のIPアドレスもDialerで検証するため、
// ここでの静的チェックは起動時の設定検証にのみ使用する。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	networks := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		networks = append(networks, *network)
	}
	return networks
}

// OutboundGuard は外部APIへの送信リクエストに対するSSRF防止設定を保持する。
type OutboundGuard struct {
	allowedSchemes []string
	allowedPorts   []int
}

// NewOutboundGuard はhttpsかつ443番ポートのみを許可するOutboundGuardを生成する。
func NewOutboundGuard() *OutboundGuard {
	return &OutboundGuard{
		allowedSchemes: []string{"https"},
		allowedPorts:   []int{443},
	}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// プライベートIP、ループバック、リンクローカル、メタデータIPへの接続は
// safeurlのDialerフックにより拒否される。
func (g *OutboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(g.allowedSchemes...).
		SetAllowedPorts(g.allowedPorts...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateBaseURL は外部APIのベースURLを起動時に静的検証する。
// DNS解決は行わないため、DNS再バインディングはNewSafeClient側で防止される。
func (g *OutboundGuard) ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(g.allowedSchemes, scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, g.allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}
