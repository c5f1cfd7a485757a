package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateFieldSchema(t *testing.T) {
	valid := []FieldDefinition{
		{Key: "ram_gb", Label: "RAM (GB)", Type: FieldTypeNumber, Required: true},
		{Key: "tier", Label: "Tier", Type: FieldTypeSelect, Options: []string{"Basic"}},
	}
	if err := ValidateFieldSchema(valid); err != nil {
		t.Fatalf("expected valid schema, got %v", err)
	}

	dup := []FieldDefinition{
		{Key: "ram", Label: "RAM", Type: FieldTypeNumber},
		{Key: "RAM", Label: "RAM again", Type: FieldTypeNumber},
	}
	if err := ValidateFieldSchema(dup); err == nil {
		t.Fatalf("expected duplicate keys to be rejected")
	}

	badSelect := []FieldDefinition{
		{Key: "tier", Label: "Tier", Type: FieldTypeSelect},
	}
	if err := ValidateFieldSchema(badSelect); err == nil {
		t.Fatalf("expected select without options to be rejected")
	}

	badType := []FieldDefinition{
		{Key: "x", Label: "X", Type: FieldType("enum")},
	}
	if err := ValidateFieldSchema(badType); err == nil {
		t.Fatalf("expected unknown type to be rejected")
	}
}

func TestFieldByLabelIsCaseInsensitive(t *testing.T) {
	category := NewCategory(uuid.New(), "Laptops", "", []FieldDefinition{
		{Key: "ram_gb", Label: "RAM (GB)", Type: FieldTypeNumber},
	})

	field, ok := category.FieldByLabel("ram (gb)")
	if !ok || field.Key != "ram_gb" {
		t.Fatalf("expected case-insensitive label lookup, got %v %v", field, ok)
	}
	if _, ok := category.FieldByLabel("CPU"); ok {
		t.Fatalf("expected unknown label to miss")
	}
}

func TestWithFieldSchemaDoesNotAliasInput(t *testing.T) {
	schema := []FieldDefinition{
		{Key: "ram_gb", Label: "RAM (GB)", Type: FieldTypeNumber},
	}
	category := NewCategory(uuid.New(), "Laptops", "", schema)

	schema[0].Label = "mutated"
	if category.FieldSchema[0].Label != "RAM (GB)" {
		t.Fatalf("expected schema to be deep-copied, got %q", category.FieldSchema[0].Label)
	}

	updated := category.WithFieldSchema([]FieldDefinition{
		{Key: "cpu", Label: "CPU", Type: FieldTypeText},
	})
	if len(category.FieldSchema) != 1 || category.FieldSchema[0].Key != "ram_gb" {
		t.Fatalf("expected original category unchanged, got %+v", category.FieldSchema)
	}
	if len(updated.FieldSchema) != 1 || updated.FieldSchema[0].Key != "cpu" {
		t.Fatalf("expected replaced schema, got %+v", updated.FieldSchema)
	}
}
