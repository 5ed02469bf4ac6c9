package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// ---- Context Keys ----

type contextKey string

const contextKeyAPIKey contextKey = "apiKey"

// AuthConfig configuração de autenticação
type AuthConfig struct {
	Enabled bool
	APIKeys []string // Lista de API keys válidas
}

// ---- Middlewares ----

// Logger attaches a request scoped logger to the context and logs the outcome
// of every request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := log.Log.WithName("http").WithValues("requestId", middleware.GetReqID(r.Context()))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(log.IntoContext(r.Context(), logger)))

		logger.V(1).Info("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"remoteAddr", r.RemoteAddr,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

// Recoverer turns a panic into a JSON 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).Info("Recovered from panic", "panic", rec)
				writeJSON(w, http.StatusInternalServerError, NewErrorResponse("INTERNAL_ERROR", "Internal server error", ""))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// APIKeyAuth middleware para autenticação via API Key
func APIKeyAuth(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			// X-API-Key first, then a Bearer token
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeJSON(w, http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", "API key required", ""))
				return
			}

			valid := false
			for _, key := range config.APIKeys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
					valid = true
					break
				}
			}

			if !valid {
				writeJSON(w, http.StatusUnauthorized, NewErrorResponse("INVALID_API_KEY", "Invalid API key", ""))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the id assigned by the RequestID middleware.
func GetRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// GetAPIKey obtém a API key do contexto
func GetAPIKey(ctx context.Context) string {
	if key, ok := ctx.Value(contextKeyAPIKey).(string); ok {
		return key
	}
	return ""
}
