package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

type contextKey string

const userContextKey contextKey = "user"

// MetricsMiddleware records request count and latency labelled by route
// pattern, so path parameters do not explode cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		code := strconv.Itoa(status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Microseconds())/1000)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "api.auth"
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, NewKind(op, ErrUnauthorized))
			return
		}
		user, err := s.deps.Authenticate(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, identity.ErrInvalidCredential):
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, WrapKind(op, ErrUnauthorized, err))
			return
		default:
			s.log.Warn(r.Context(), "credential check failed", logger.Error(err),
				logger.String("requestId", middleware.GetReqID(r.Context())))
			writeError(w, http.StatusServiceUnavailable, CodeUnavailable, WrapKind(op, ErrUnavailable, err))
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userContextKey).(model.User)
	return u, ok && u.ID != ""
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
