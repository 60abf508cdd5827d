package validator

import (
	"strings"
	"testing"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type reportPayload struct {
	Type   string `json:"type" validate:"required,report_type"`
	Status string `json:"status" validate:"omitempty,report_status"`
}

func TestDomainRules(t *testing.T) {
	for _, typ := range []string{"water", "air", "land"} {
		if err := ValidateStruct(&reportPayload{Type: typ}); err != nil {
			t.Fatalf("expected %q to be a valid report type, got %v", typ, err)
		}
	}

	err := ValidateStruct(&reportPayload{Type: "fire"})
	if err == nil {
		t.Fatal("expected report type failure")
	}
	ve, ok := err.(ValidationErrors)
	if !ok || len(ve) != 1 || ve[0].Tag != "report_type" {
		t.Fatalf("expected a single report_type failure, got %v", err)
	}

	if err := ValidateStruct(&reportPayload{Type: "water", Status: "In Progress"}); err != nil {
		t.Fatalf("expected valid status, got %v", err)
	}
	if err := ValidateStruct(&reportPayload{Type: "water", Status: "Archived"}); err == nil {
		t.Fatal("expected report status failure")
	}
}

func TestValidateStructSuccess(t *testing.T) {
	err := ValidateStruct(&samplePayload{
		Email: "citizen@example.com",
		Code:  "123456",
	})
	if err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&samplePayload{Email: "not-an-email", Code: "12"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	ve, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(ve) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(ve))
	}
	if ve[0].Field != "email" {
		t.Fatalf("expected json field name, got %q", ve[0].Field)
	}
	if !strings.Contains(err.Error(), "code") {
		t.Fatalf("expected code failure in message, got %q", err.Error())
	}
}
