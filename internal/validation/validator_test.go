package validation

import "testing"

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateStructOK(t *testing.T) {
	body := loginBody{Email: "a@example.com", Password: "long-enough"}
	if err := ValidateStruct(&body); err != nil {
		t.Fatalf("ValidateStruct: %v", err)
	}
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	body := loginBody{Email: "not-an-email", Password: "short"}
	err := ValidateStruct(&body)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	fields := verr.Fields()
	if _, ok := fields["email"]; !ok {
		t.Errorf("missing email field error: %v", fields)
	}
	if _, ok := fields["password"]; !ok {
		t.Errorf("missing password field error: %v", fields)
	}
	if verr.ProblemStatus() != 400 {
		t.Errorf("status = %d, want 400", verr.ProblemStatus())
	}
}

func TestValidateStructSummaryCountsOthers(t *testing.T) {
	body := loginBody{}
	err := ValidateStruct(&body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); got != "email is required, and 1 other error" {
		t.Errorf("summary = %q", got)
	}
}
