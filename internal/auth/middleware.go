package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/globaltelecom/voicebridge/internal/metrics"
	"github.com/rs/zerolog"
)

// SecretHeader is the header the voice platform presents on each webhook
const SecretHeader = "X-Vapi-Secret"

// SharedSecret returns middleware that rejects requests whose secret header
// does not exactly match the configured value. Runs before any body
// processing; a mismatch is a 403 with no payload interpretation.
func SharedSecret(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				logger.Warn().Str("path", r.URL.Path).Bool("header_present", presented != "").Msg("webhook secret mismatch")
				metrics.Get().RecordAuthFailure()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{
					"status":  "error",
					"message": "Unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
