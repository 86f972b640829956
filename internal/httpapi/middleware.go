package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyCompanyID ctxKey = "companyID"
const ctxKeyPostEvent ctxKey = "validatedPostEvent"
const ctxKeyPostStatement ctxKey = "validatedPostStatement"

// requestLogger logs basic request info at INFO and panics at ERROR.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Info("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requireCompany parses the company_id query param and stores it in the
// request context for the handler to use.
func (s *Server) requireCompany() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("company_id")
			if raw == "" {
				badRequest(w, "company_id is required")
				return
			}
			companyID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid company_id")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyCompanyID, companyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func companyIDFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyCompanyID).(uuid.UUID)
	return id
}
