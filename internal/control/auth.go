// ABOUTME: Shared-secret auth for the control plane (spec 4.8)
// ABOUTME: Every REST request and the stream upgrade must present a matching Authorization header
package control

import (
	"net/http"

	"github.com/sonicrelay/voicenode/internal/apperr"
)

// requireAuth rejects any request whose Authorization header doesn't match
// password exactly. An empty password disables the check (local/dev use).
func requireAuth(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password != "" && r.Header.Get("Authorization") != password {
				writeError(w, r, apperr.New(apperr.AuthFailed, "missing or invalid Authorization header"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticateStream reports whether the stream upgrade request carries a
// matching Authorization header; the caller closes the connection on false
// rather than writing a REST error body (spec 4.8: "failure -> 401 (REST)
// or stream close").
func authenticateStream(password string, r *http.Request) bool {
	return password == "" || r.Header.Get("Authorization") == password
}
