package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestConstructorCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("Validation failed", map[string]any{"subject": "Subject is required"}), "VALIDATION_FAILED", http.StatusUnprocessableEntity},
		{"not found", NewNotFound("Ticket"), "NOT_FOUND", http.StatusNotFound},
		{"invalid transition", NewInvalidTransition("Ticket is already closed"), "INVALID_TRANSITION", http.StatusBadRequest},
		{"invalid argument", NewInvalidArgument("Invalid ticket ID"), "INVALID_ARGUMENT", http.StatusBadRequest},
		{"internal", NewInternalError(errors.New("connection refused")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de *DomainError
			if !errors.As(tt.err, &de) {
				t.Fatalf("error %T is not a DomainError", tt.err)
			}
			if de.Code != tt.wantCode {
				t.Fatalf("Code = %q, want %q", de.Code, tt.wantCode)
			}
			if de.HTTPStatus != tt.wantStatus {
				t.Fatalf("HTTPStatus = %d, want %d", de.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	de := ToDomainError(NewNotFound("Ticket"))
	if de.Message != "Ticket not found" {
		t.Fatalf("Message = %q, want %q", de.Message, "Ticket not found")
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	de := ToDomainError(NewInternalError(cause))
	if de.Message != "internal server error" {
		t.Fatalf("Message = %q, want generic", de.Message)
	}
	if !errors.Is(de, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"nil passthrough", nil, "", 0},
		{"domain error passthrough", NewInvalidTransition("Ticket is not closed"), "INVALID_TRANSITION", http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("close ticket: %w", NewInvalidTransition("Ticket is already closed")), "INVALID_TRANSITION", http.StatusBadRequest},
		{"sql no rows", sql.ErrNoRows, "NOT_FOUND", http.StatusNotFound},
		{"pgx no rows", pgx.ErrNoRows, "NOT_FOUND", http.StatusNotFound},
		{"wrapped pgx no rows", fmt.Errorf("query ticket: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"unknown error", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			if tt.err == nil {
				if de != nil {
					t.Fatalf("ToDomainError(nil) = %v, want nil", de)
				}
				return
			}
			if de == nil {
				t.Fatal("ToDomainError returned nil for non-nil error")
			}
			if de.Code != tt.wantCode {
				t.Fatalf("Code = %q, want %q", de.Code, tt.wantCode)
			}
			if de.HTTPStatus != tt.wantStatus {
				t.Fatalf("HTTPStatus = %d, want %d", de.HTTPStatus, tt.wantStatus)
			}
		})
	}
}
