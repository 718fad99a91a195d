package template

import (
	"strings"
	"testing"
	"time"
)

func TestRenderPasswordReset(t *testing.T) {
	email, err := RenderPasswordReset(PasswordResetData{
		ProjectName: "Accounts",
		Email:       "user@example.com",
		Link:        "http://localhost:5173/reset-password?token=abc_DEF-123",
		ValidFor:    time.Hour,
	})
	if err != nil {
		t.Fatalf("RenderPasswordReset() error = %v", err)
	}
	if email.Subject != "Accounts - Password recovery for user user@example.com" {
		t.Fatalf("unexpected subject %q", email.Subject)
	}
	for _, want := range []string{"token=abc_DEF-123", "user@example.com", "1h0m0s"} {
		if !strings.Contains(email.HTML, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestRenderNewAccountEscapes(t *testing.T) {
	email, err := RenderNewAccount(NewAccountData{
		ProjectName: "Accounts",
		Username:    "<script>alert(1)</script>",
		Link:        "http://localhost:5173",
	})
	if err != nil {
		t.Fatalf("RenderNewAccount() error = %v", err)
	}
	if strings.Contains(email.HTML, "<script>") {
		t.Fatalf("username was not escaped")
	}
}
