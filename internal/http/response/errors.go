package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SendFailedResponse is the 500 body of a failed dispatch. details is always present.
type SendFailedResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Message is the body of informational replies such as GET /.
type Message struct {
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, details string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Details: details})
}

// Messages the booking API answers with.
const (
	MsgMissingFields    = "Missing required fields"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgSendFailed       = "Failed to send meeting link"
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternal         = "Something went wrong!"
	MsgServerRunning    = "Appointment server is running"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func NotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, MsgRouteNotFound)
}

func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}

func SendFailed(w http.ResponseWriter, details string) {
	WriteJSON(w, http.StatusInternalServerError, SendFailedResponse{Error: MsgSendFailed, Details: details})
}

func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, MsgInternal)
}
