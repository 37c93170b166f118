// Package http provides the outbound HTTP client used by market data providers.
package http

import (
	"net"
	"net/http"
	"time"
)

// maxIdleConnsPerHost は1プロバイダあたりのアイドル接続数です。
// ポーラーは同一ホストへ銘柄ごとに連続してリクエストするため、既定値(2)より多く保持します。
const maxIdleConnsPerHost = 10

// NewHTTPClient はマーケットデータプロバイダ呼び出し用のHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - ResponseHeaderTimeout: ヘッダー受信までの最大時間（timeout を超えない）
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること
func NewHTTPClient(timeout time.Duration) *http.Client {
	headerTimeout := 10 * time.Second
	if timeout > 0 && timeout < headerTimeout {
		headerTimeout = timeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
