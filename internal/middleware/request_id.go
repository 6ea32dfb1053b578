package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
)

const RequestIDHeader = "X-Request-ID"

// RequestID makes sure every request carries an X-Request-ID, echoed back
// on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// writeError answers with the status domain.StatusOf assigns to err.
func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domain.StatusOf(err))
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(RequestIDHeader),
	})
}
