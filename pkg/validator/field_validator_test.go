package validator

import (
	"strings"
	"testing"

	"github.com/assetwise/assetwise/internal/domain"
)

func testSchema() []domain.FieldDefinition {
	return []domain.FieldDefinition{
		{Key: "ram_gb", Label: "RAM (GB)", Type: domain.FieldTypeNumber, Required: true},
		{Key: "tier", Label: "Warranty Tier", Type: domain.FieldTypeSelect, Options: []string{"Basic", "Premium"}},
		{Key: "managed", Label: "Managed", Type: domain.FieldTypeBoolean},
		{Key: "deployed_on", Label: "Deployed On", Type: domain.FieldTypeDate},
	}
}

func TestValidateCustomFieldsAccepts(t *testing.T) {
	fv := NewFieldValidator()

	result := fv.ValidateCustomFields(map[string]any{
		"ram_gb":      float64(16),
		"tier":        "Premium",
		"managed":     true,
		"deployed_on": "2024-03-01",
	}, testSchema())

	if !result.IsValid {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
}

func TestValidateCustomFieldsCollectsAllErrors(t *testing.T) {
	fv := NewFieldValidator()

	result := fv.ValidateCustomFields(map[string]any{
		"tier":    "Gold",
		"managed": "yes",
	}, testSchema())

	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors (missing required, bad select, bad boolean), got %+v", result.Errors)
	}

	messages := make([]string, len(result.Errors))
	for i, fieldErr := range result.Errors {
		messages[i] = fieldErr.Message
	}
	joined := strings.Join(messages, "; ")
	for _, want := range []string{
		"RAM (GB) is required",
		"Warranty Tier must be one of: Basic, Premium",
		"Managed must be a boolean",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected message %q in %q", want, joined)
		}
	}
}

func TestValidateCustomFieldsRejectsUnknownKeys(t *testing.T) {
	fv := NewFieldValidator()

	result := fv.ValidateCustomFields(map[string]any{
		"ram_gb":  float64(8),
		"typo_ed": "value",
	}, testSchema())

	if result.IsValid {
		t.Fatalf("expected unknown key to fail validation")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != "typo_ed" {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
}

func TestValidateCustomFieldsBlankRequiredString(t *testing.T) {
	fv := NewFieldValidator()

	result := fv.ValidateCustomFields(map[string]any{
		"ram_gb": "   ",
	}, testSchema())

	if result.IsValid {
		t.Fatalf("expected blank required value to fail")
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-03-01",
		"2024-03-01 14:30:00",
		"2024/03/01",
		"03/01/2024",
		"2024-03-01T14:30:00Z",
	} {
		if _, err := ParseDate(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}

	if _, err := ParseDate("not a date"); err == nil {
		t.Fatalf("expected parse failure for junk input")
	}
}
