package provider

import "context"

// ClientInfo はセッションに記録するクライアント情報。
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientInfoKey struct{}

// ContextWithClientInfo はコンテキストにクライアント情報を付与する。
func ContextWithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext はコンテキストのクライアント情報を返す。未設定の場合はゼロ値を返す。
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
