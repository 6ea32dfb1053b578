package handlers

import (
	"encoding/json"
	"net/http"

	"spiritus-backend/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get("X-Request-ID"),
	}
}

func errorRespWithDetails(code, message, details string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Details = details
	return resp
}
