package middleware

import (
	"net/http"
	"strings"

	"github.com/casahojaldre/chatbot-backend/api/responses"
	pkgauth "github.com/casahojaldre/chatbot-backend/pkg/auth"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

// AdminAuth gates a back-office route behind a bearer token that must
// carry the given capability.
func AdminAuth(checker pkgauth.Checker, capability pkgauth.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "token checker not configured"))
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if err := checker.Allow(token, capability); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
