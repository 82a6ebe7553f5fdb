package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// SecretTokenHeader carries the secret given to setWebhook on every update.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret rejects requests whose secret token header does not match
// secret. An empty secret disables the check.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SecretTokenHeader)
			if token == "" {
				http.Error(w, "Secret token header required", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				slog.WarnContext(r.Context(), "Webhook secret mismatch", "remote_addr", r.RemoteAddr)
				http.Error(w, "Invalid secret token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
