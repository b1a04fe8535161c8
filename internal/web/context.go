package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// ActorHeader carries the authenticated user name set by the upstream
// auth layer.
const ActorHeader = "X-Actor"

// requestMetadata stores the actor, client IP and User-Agent on the request
// context for audit entries.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), clientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
			ctx = core.ContextWithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already rewritten for proxied requests.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
