package api

import "github.com/FACorreiaa/go-trip-planner/internal/types"

// Response represents a generic API response for success or error messages.
type Response struct {
	Success   bool   `json:"success" example:"false"`                           // Indicates if the operation was successful.
	Message   string `json:"message,omitempty" example:"Operation successful"`  // Optional success message.
	Error     string `json:"error,omitempty" example:"Resource not found"`      // Optional error message.
	RequestID string `json:"request_id,omitempty" example:"host/abc123-000001"` // Request ID for correlating logs.
}

// ValidationErrorBody is returned with 422 when a payload is rejected.
type ValidationErrorBody struct {
	Success   bool               `json:"success" example:"false"`
	Error     string             `json:"error" example:"validation failed"`
	Errors    []types.FieldError `json:"errors"`
	RequestID string             `json:"request_id,omitempty"`
}
