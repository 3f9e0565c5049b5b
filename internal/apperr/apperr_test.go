package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func TestCategoryThroughWrapping(t *testing.T) {
	base := Validation("title", "title is required")
	wrapped := fmt.Errorf("create ticket: %w", base)

	if !IsValidation(wrapped) {
		t.Fatal("wrapped validation error lost its category")
	}
	if got := FieldOf(wrapped); got != "title" {
		t.Errorf("FieldOf = %q, want title", got)
	}
	if got := HTTPStatus(wrapped); got != http.StatusBadRequest {
		t.Errorf("HTTPStatus = %d, want 400", got)
	}
}

func TestRemoteWriteUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := RemoteWrite("insert ticket", cause)

	if !errors.Is(err, cause) {
		t.Error("RemoteWrite should unwrap to its cause")
	}
	if !IsRemoteWrite(err) {
		t.Error("IsRemoteWrite = false")
	}
	if HTTPStatus(err) != http.StatusBadGateway {
		t.Errorf("HTTPStatus = %d, want 502", HTTPStatus(err))
	}
}

func TestIsAuthSignal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unauthorized status", statusErr(http.StatusUnauthorized), true},
		{"forbidden status", fmt.Errorf("fetch: %w", statusErr(http.StatusForbidden)), true},
		{"server error status", statusErr(http.StatusInternalServerError), false},
		{"jwt message", errors.New("JWT expired"), true},
		{"token expired message", errors.New("parse token: token has invalid claims: token is expired"), true},
		{"unrelated", errors.New("connection refused"), false},
		{"categorized", AuthExpired("session expired"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthExpired(tt.err); got != tt.want {
				t.Errorf("IsAuthExpired(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestUncategorized(t *testing.T) {
	err := errors.New("plain")
	if CategoryOf(err) != "" {
		t.Error("plain error should have no category")
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		t.Error("plain error should map to 500")
	}
}
