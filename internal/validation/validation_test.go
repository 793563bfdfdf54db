package validation

import (
	"strings"
	"testing"

	"github.com/skillsenselab/housekeeper/internal/errors"
)

type testRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Name     string `json:"name"`
}

func TestValidateSuccess(t *testing.T) {
	req := testRequest{Email: "a@x.com", Username: "alice"}
	if err := Validate(&req); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     testRequest
		wantMsg string
	}{
		{"missing email", testRequest{Username: "alice"}, "email: is required"},
		{"bad email", testRequest{Email: "nope", Username: "alice"}, "email: must be a valid email address"},
		{"short username", testRequest{Email: "a@x.com", Username: "al"}, "username: must be at least 3 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.req)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.HTTPStatus != 422 {
				t.Errorf("expected 422, got %d", appErr.HTTPStatus)
			}
			if !strings.Contains(appErr.Message, tc.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tc.wantMsg, appErr.Message)
			}
			if appErr.Details["fields"] == nil {
				t.Error("expected field details")
			}
		})
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	err := Validate(&testRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, _ := errors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError details, got %T", appErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(fields))
	}
}

func TestVar(t *testing.T) {
	if err := Var("a@x.com", "required,email"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Var("not-an-email", "required,email"); err == nil {
		t.Error("expected error for invalid email")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"LastName", "last_name"},
		{"Email", "email"},
		{"username", "username"},
		{"OldPassword", "old_password"},
	}
	for _, tc := range tests {
		if got := toSnakeCase(tc.in); got != tc.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
