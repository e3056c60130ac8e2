package models

// ErrorResponse is the generic error body
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: Internal server error
	Error string `json:"error"`
}

// MessageResponse is the generic success body
// swagger:model MessageResponse
type MessageResponse struct {
	// Success message
	// example: Product deleted successfully
	Message string `json:"message"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned with 400 when request fields fail validation
// swagger:model ValidationErrorResponse
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// HealthResponse is returned by /health
// swagger:model HealthResponse
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Uptime    string `json:"uptime"`
	Database  string `json:"database"`
}
