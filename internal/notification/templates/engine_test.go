package templates

import (
	"context"
	"strings"
	"testing"
)

func TestRenderVerifyEmail(t *testing.T) {
	e := NewEngine()

	out, err := Render(context.Background(), e, VerifyEmail, VerifyEmailData{
		Name:         "Ada",
		Code:         "123456",
		SupportEmail: "support@example.com",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if out.Subject == "" {
		t.Error("empty subject")
	}
	if !strings.Contains(out.EmailHTML, "123456") {
		t.Error("html body missing the code")
	}
	if !strings.Contains(out.EmailText, "support@example.com") {
		t.Error("text body missing the support address")
	}
}

func TestRenderHTMLEscapesData(t *testing.T) {
	e := NewEngine()

	out, err := Render(context.Background(), e, ResetPassword, ResetPasswordData{
		Name:         "<script>alert(1)</script>",
		Code:         "654321",
		SupportEmail: "support@example.com",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out.EmailHTML, "<script>") {
		t.Error("html body did not escape user-controlled data")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewEngine()

	h := Expect[struct{}]("auth.does_not_exist")
	if _, err := Render(context.Background(), e, h, struct{}{}); err == nil {
		t.Fatal("expected error for unknown template id")
	}
}
