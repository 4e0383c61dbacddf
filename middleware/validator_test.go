package middleware

import (
	"strings"
	"testing"
)

func TestValidateStructAggregatesFieldErrors(t *testing.T) {
	type payload struct {
		Title      string `validate:"required"`
		ImageURL   string `validate:"omitempty,url"`
		TotalSteps int    `validate:"min=1"`
	}

	if err := ValidateStruct(payload{Title: "run", TotalSteps: 3}); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	err := ValidateStruct(payload{ImageURL: "not a url"})
	if err == nil {
		t.Fatal("invalid payload accepted")
	}

	msg := err.Error()
	for _, want := range []string{"title", "imageurl", "totalsteps"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("field %q missing from error %q", want, msg)
		}
	}
}
