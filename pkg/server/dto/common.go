package dto

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}
