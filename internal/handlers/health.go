package handlers

import (
	"net/http"

	"spiritus-backend/internal/models"
)

type HealthHandler struct {
	configured func() bool
}

// NewHealthHandler reports the credential status through configured, usually
// RelayService.Configured.
func NewHealthHandler(configured func() bool) *HealthHandler {
	return &HealthHandler{configured: configured}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:           "ok",
		GeminiConfigured: h.configured(),
	})
}
