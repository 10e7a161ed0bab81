package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err as an ErrorResponse using the AppError status.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	if appErr.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(appErr.StatusCode())

	response := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	return json.NewEncoder(w).Encode(response)
}
