package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the type of a custom field in a category schema
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeDate     FieldType = "date"
	FieldTypeBoolean  FieldType = "boolean"
)

// ParseFieldType normalizes a field type string, returning false when it is
// not one of the supported types.
func ParseFieldType(raw string) (FieldType, bool) {
	ft := FieldType(strings.ToLower(strings.TrimSpace(raw)))
	switch ft {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeSelect, FieldTypeDate, FieldTypeBoolean:
		return ft, true
	}
	return "", false
}

// FieldDefinition represents one custom field in a category schema. Key is
// the storage key inside Asset.CustomFields; Label is what end users see,
// including in CSV headers.
type FieldDefinition struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// Validate checks structural invariants of a single field definition.
func (f FieldDefinition) Validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return fmt.Errorf("field key is required")
	}
	if strings.TrimSpace(f.Label) == "" {
		return fmt.Errorf("field %s: label is required", f.Key)
	}
	if _, ok := ParseFieldType(string(f.Type)); !ok {
		return fmt.Errorf("field %s: unknown type %q", f.Key, f.Type)
	}
	if f.Type == FieldTypeSelect && len(f.Options) == 0 {
		return fmt.Errorf("field %s: select fields require options", f.Key)
	}
	return nil
}

// Category represents a tenant-defined grouping of assets with an ordered
// custom-field schema.
type Category struct {
	ID          uuid.UUID         `json:"id"`
	TenantID    uuid.UUID         `json:"tenant_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FieldSchema []FieldDefinition `json:"field_schema"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewCategory creates a new category with immutable pattern
func NewCategory(tenantID uuid.UUID, name, description string, schema []FieldDefinition) Category {
	now := time.Now()
	return Category{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		FieldSchema: copyFieldSchema(schema), // Deep copy to ensure immutability
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateFieldSchema enforces the schema invariants: every definition is
// structurally valid and keys are unique within the category.
func ValidateFieldSchema(schema []FieldDefinition) error {
	seen := make(map[string]struct{}, len(schema))
	for _, field := range schema {
		if err := field.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(field.Key)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate field key %q", field.Key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// WithFieldSchema returns a new category with a replaced field schema
func (c Category) WithFieldSchema(schema []FieldDefinition) Category {
	return Category{
		ID:          c.ID,
		TenantID:    c.TenantID,
		Name:        c.Name,
		Description: c.Description,
		FieldSchema: copyFieldSchema(schema),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   time.Now(),
	}
}

// WithName returns a new category with updated name
func (c Category) WithName(name string) Category {
	return Category{
		ID:          c.ID,
		TenantID:    c.TenantID,
		Name:        name,
		Description: c.Description,
		FieldSchema: copyFieldSchema(c.FieldSchema),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   time.Now(),
	}
}

// FieldByLabel looks a definition up by its user-facing label.
func (c Category) FieldByLabel(label string) (FieldDefinition, bool) {
	for _, field := range c.FieldSchema {
		if strings.EqualFold(field.Label, label) {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// GetFieldSchemaAsJSONB returns the field schema as JSONB for database storage
func (c Category) GetFieldSchemaAsJSONB() (json.RawMessage, error) {
	if c.FieldSchema == nil {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(c.FieldSchema)
}

// FromJSONBFieldSchema creates a field schema from JSONB data
func FromJSONBFieldSchema(schemaJSON json.RawMessage) ([]FieldDefinition, error) {
	var schema []FieldDefinition
	err := json.Unmarshal(schemaJSON, &schema)
	return schema, err
}

// copyFieldSchema creates a deep copy of the schema slice to ensure immutability
func copyFieldSchema(schema []FieldDefinition) []FieldDefinition {
	if schema == nil {
		return nil
	}
	newSchema := make([]FieldDefinition, len(schema))
	copy(newSchema, schema)
	return newSchema
}
