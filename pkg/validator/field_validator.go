package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/assetwise/assetwise/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// ParseDate parses a date string against the supported layouts.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// FieldValidator checks typed custom-field values against a category schema
type FieldValidator struct{}

// NewFieldValidator creates a new field validator
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// FieldError represents a validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Result represents the result of validation
type Result struct {
	IsValid bool         `json:"is_valid"`
	Errors  []FieldError `json:"errors"`
}

// ValidateCustomFields validates a key-keyed custom field map against the
// category's field definitions. All errors are collected, not short-circuited.
func (fv *FieldValidator) ValidateCustomFields(values map[string]any, schema []domain.FieldDefinition) Result {
	result := Result{
		IsValid: true,
		Errors:  []FieldError{},
	}

	defined := make(map[string]domain.FieldDefinition, len(schema))
	for _, field := range schema {
		defined[field.Key] = field

		value, exists := values[field.Key]

		// Required field missing
		if field.Required && (!exists || value == nil || isBlank(value)) {
			result.IsValid = false
			result.Errors = append(result.Errors, FieldError{
				Field:   field.Key,
				Message: fmt.Sprintf("%s is required", field.Label),
			})
			continue
		}

		// Skip validation for missing optional fields
		if !exists || value == nil {
			continue
		}

		if err := fv.validateFieldType(field, value); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, FieldError{
				Field:   field.Key,
				Message: err.Error(),
				Value:   value,
			})
		}
	}

	// Reject values not defined in the schema
	for key := range values {
		if _, exists := defined[key]; !exists {
			result.IsValid = false
			result.Errors = append(result.Errors, FieldError{
				Field:   key,
				Message: fmt.Sprintf("field %q is not defined in the category schema", key),
				Value:   values[key],
			})
		}
	}

	return result
}

func (fv *FieldValidator) validateFieldType(field domain.FieldDefinition, value any) error {
	switch field.Type {
	case domain.FieldTypeText, domain.FieldTypeTextarea:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s must be text, got %T", field.Label, value)
		}
	case domain.FieldTypeNumber:
		if !isNumber(value) {
			return fmt.Errorf("%s must be a number", field.Label)
		}
	case domain.FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s must be a boolean", field.Label)
		}
	case domain.FieldTypeDate:
		switch v := value.(type) {
		case string:
			if _, err := ParseDate(v); err != nil {
				return fmt.Errorf("%s must be a valid date", field.Label)
			}
		case time.Time:
			// already parsed; accept value
		default:
			return fmt.Errorf("%s must be a date string, got %T", field.Label, value)
		}
	case domain.FieldTypeSelect:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s must be one of the defined options", field.Label)
		}
		for _, option := range field.Options {
			if option == strVal {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(field.Options, ", "))
	default:
		return fmt.Errorf("unknown field type: %s", field.Type)
	}
	return nil
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}

func isBlank(value any) bool {
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str) == ""
	}
	return false
}
