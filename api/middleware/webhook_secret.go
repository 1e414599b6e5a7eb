package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/casahojaldre/chatbot-backend/api/responses"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramSecret rejects webhook calls that do not carry the secret
// token registered with setWebhook. An empty configured secret disables
// the check, which only makes sense in dev.
func TelegramSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(telegramSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
