package http

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type contextKey string

const clientIPContextKey contextKey = "client_ip"

// ClientIPOptions controls where the client address is read from.
type ClientIPOptions struct {
	// TrustForwardedHeaders honours X-Forwarded-For and X-Real-IP. Only enable
	// it behind a proxy that overwrites those headers, otherwise any caller can
	// pick the key its public rate limit is counted under.
	TrustForwardedHeaders bool
}

// ExtractClientIP returns the client address for r. Forwarded headers are
// consulted only when opts allows it; the connection address is the fallback.
func ExtractClientIP(r *http.Request, opts ClientIPOptions) string {
	if opts.TrustForwardedHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip, ok := parseIP(first); ok {
				return ip
			}
		}

		if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

// ClientIPFromContext returns the address stored by ClientIPMiddleware.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

// ClientIPMiddleware stores the client address in the request context, where
// it keys public route rate limits and request logs.
func ClientIPMiddleware(opts ClientIPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientIPContextKey, ExtractClientIP(r, opts))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
