package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newSecretRouter(secret string) http.Handler {
	r := chi.NewRouter()
	r.With(WebhookSecret(secret)).Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestWebhookSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		status int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"check disabled", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			if tt.header != "" {
				req.Header.Set(SecretTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()

			newSecretRouter(tt.secret).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
