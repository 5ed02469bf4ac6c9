package api

import (
	"net/http"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
)

// ---- Response DTOs ----

// APIResponse é a resposta padrão da API
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries the fault kind as code
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EventResponse is the outcome of one lifecycle event
type EventResponse struct {
	PhysicalResourceID string                 `json:"physicalResourceId"`
	Data               map[string]interface{} `json:"data,omitempty"`
}

// ResourceTypesResponse lists the supported resource types
type ResourceTypesResponse struct {
	ResourceTypes []string `json:"resourceTypes"`
}

// HealthResponse representa a resposta do health check
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Caller    string `json:"caller,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ---- Helper Functions ----

// NewSuccessResponse cria uma resposta de sucesso
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse cria uma resposta de erro
func NewErrorResponse(code, message, details string) APIResponse {
	return APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// statusForKind maps a fault kind to an HTTP status.
func statusForKind(kind faults.Kind) int {
	switch kind {
	case faults.ValidationError:
		return http.StatusBadRequest
	case faults.RemoteNotFound:
		return http.StatusNotFound
	case faults.RemoteContention:
		return http.StatusConflict
	case faults.PipelineAborted, faults.CleanupFailed, faults.RemoteOther:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
