package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/tenant"
)

// RequireOwner rejects requests that do not carry a valid owner header and stores
// the owner id in the request context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := tenant.ParseOwner(r.Header.Get(tenant.OwnerHeader))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(tenant.WithOwner(r.Context(), ownerID)))
	})
}
