package models

// ErrorResponse is the JSON body of every relay error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	GeminiConfigured bool   `json:"gemini_configured"`
}
