package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeRoomNoLongerAvailable,
				Message: "room was taken",
			},
			expected: "ROOM_NO_LONGER_AVAILABLE: room was taken",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeTransport,
				Message: "store unreachable",
				Err:     errors.New("dial tcp: connection refused"),
			},
			expected: "TRANSPORT_ERROR: store unreachable (caused by: dial tcp: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_UnwrapKeepsSentinel(t *testing.T) {
	sentinel := errors.New("booking write failed")
	appErr := Wrap(sentinel, CodeBookingWriteFailed, "could not save booking", http.StatusBadGateway)

	if !errors.Is(appErr, sentinel) {
		t.Errorf("errors.Is should find the wrapped sentinel")
	}
	wrapped := fmt.Errorf("reserve: %w", appErr)
	if !errors.Is(wrapped, sentinel) {
		t.Errorf("errors.Is should see through fmt wrapping")
	}
}

func TestAppError_Retryable(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{CodeTransport, true},
		{CodeBookingWriteFailed, true},
		{CodeBookingDeleteFailed, true},
		{CodeTimeout, true},
		{CodeUnavailable, true},
		{CodeRoomNoLongerAvailable, false},
		{CodeUnauthenticated, false},
		{CodeValidation, false},
		{CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", http.StatusInternalServerError)
			if got := err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	cause := errors.New("no session")
	err := Unauthenticated(cause)

	if err.Code != CodeUnauthenticated {
		t.Errorf("expected code %s, got %s", CodeUnauthenticated, err.Code)
	}
	if err.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, err.HTTPStatus)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestTransport(t *testing.T) {
	err := Transport("Failed to read bookings", errors.New("timeout"))

	if err.Code != CodeTransport {
		t.Errorf("expected code %s, got %s", CodeTransport, err.Code)
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, err.HTTPStatus)
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "H1_2024-08-01_Deluxe_Room")

	if err.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, err.Code)
	}
	if err.Details["id"] != "H1_2024-08-01_Deluxe_Room" {
		t.Errorf("unexpected id detail %v", err.Details["id"])
	}
}

func TestHasCodeAndIsRetryable(t *testing.T) {
	appErr := Wrap(errors.New("x"), CodeBookingDeleteFailed, "delete failed", http.StatusBadGateway)
	wrapped := fmt.Errorf("cancel: %w", appErr)

	if !HasCode(wrapped, CodeBookingDeleteFailed) {
		t.Errorf("HasCode should match through wrapping")
	}
	if HasCode(wrapped, CodeTransport) {
		t.Errorf("HasCode should not match a different code")
	}
	if !IsRetryable(wrapped) {
		t.Errorf("delete failure should be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Errorf("plain errors are never retryable")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Booking")
	regularErr := errors.New("regular error")

	if result := AsAppError(fmt.Errorf("ctx: %w", appErr)); result != appErr {
		t.Errorf("AsAppError() should unwrap to the same AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteError(rec, Transport("store down", nil)); err != nil {
		t.Fatalf("WriteError returned %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Errorf("retryable errors should set Retry-After")
	}

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != CodeTransport {
		t.Errorf("expected code %s, got %s", CodeTransport, body.Code)
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Booking", "k").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "not found") {
		t.Errorf("ToJSON() should contain error message")
	}
}
