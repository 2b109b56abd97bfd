package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/users-api/services/audit"
)

// MaxRequestIDLength bounds client-supplied request IDs to the width of
// audit_logs.request_id
const MaxRequestIDLength = 255

// RequestMeta copies chi's request ID into the context and records the
// caller's address and user agent for the audit trail.
// Mount it after chi's RequestID and RealIP middleware.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimw.GetReqID(ctx)
		if len(requestID) > MaxRequestIDLength {
			requestID = truncateRequestID(requestID)
			ctx = context.WithValue(ctx, chimw.RequestIDKey, requestID)
		}

		ctx = WithRequestID(ctx, requestID)
		ctx = audit.WithRequestMeta(ctx, audit.RequestMeta{
			RequestID: requestID,
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// truncateRequestID cuts id to MaxRequestIDLength bytes without splitting a rune
func truncateRequestID(id string) string {
	return strings.ToValidUTF8(id[:MaxRequestIDLength], "")
}

// clientIP strips the port from a RemoteAddr. RealIP may already have
// replaced it with a bare address.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
