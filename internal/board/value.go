package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldValue is the tagged variant stored for a custom field on a task. The
// Kind always matches the declaring field's type once a value passes the edit
// boundary; exactly one payload field is meaningful per kind.
type FieldValue struct {
	Kind    FieldType  `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Number  float64    `json:"number,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	Checked bool       `json:"checked,omitempty"`
}

// TextValue builds a value for text, link, and dropdown fields.
func TextValue(kind FieldType, text string) FieldValue {
	return FieldValue{Kind: kind, Text: text}
}

// NumberValue builds a value for number fields.
func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: FieldNumber, Number: n}
}

// DateValue builds a value for date fields.
func DateValue(t time.Time) FieldValue {
	return FieldValue{Kind: FieldDate, Date: &t}
}

// CheckboxValue builds a value for checkbox fields.
func CheckboxValue(checked bool) FieldValue {
	return FieldValue{Kind: FieldCheckbox, Checked: checked}
}

// Blank reports whether the value counts as missing for mandatory-field
// checks: the zero value, a string payload that is empty or whitespace-only,
// or a date payload without a date.
func (v FieldValue) Blank() bool {
	switch v.Kind {
	case "":
		return true
	case FieldLink, FieldText, FieldDropdown:
		return strings.TrimSpace(v.Text) == ""
	case FieldDate:
		return v.Date == nil || v.Date.IsZero()
	default:
		return false
	}
}

// ConformsTo reports whether the value may be stored for a field of the given
// declaration, checking the kind tag and, for dropdowns with declared options,
// membership in the option list. Blank values always conform so callers can
// clear a field.
func (v FieldValue) ConformsTo(field CustomField) error {
	if v.Blank() {
		return nil
	}
	if v.Kind != field.Type {
		return fmt.Errorf("field %q holds %s values, got %s", field.Name, field.Type, v.Kind)
	}
	if field.Type == FieldDropdown && len(field.DropdownOptions) > 0 {
		for _, opt := range field.DropdownOptions {
			if opt == v.Text {
				return nil
			}
		}
		return fmt.Errorf("field %q has no option %q", field.Name, v.Text)
	}
	return nil
}

// Clone returns a copy that shares no pointers with the receiver.
func (v FieldValue) Clone() FieldValue {
	cp := v
	if v.Date != nil {
		d := *v.Date
		cp.Date = &d
	}
	return cp
}

// Display renders the value for tables and checklists.
func (v FieldValue) Display() string {
	switch v.Kind {
	case FieldLink, FieldText, FieldDropdown:
		return v.Text
	case FieldNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case FieldDate:
		if v.Date == nil {
			return ""
		}
		return v.Date.UTC().Format("2006-01-02")
	case FieldCheckbox:
		if v.Checked {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// ParseFieldValue interprets raw text as a value for the given field
// declaration. Empty input yields a blank value, which clears the field.
func ParseFieldValue(field CustomField, raw string) (FieldValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FieldValue{}, nil
	}
	switch field.Type {
	case FieldLink, FieldText, FieldDropdown:
		value := TextValue(field.Type, raw)
		if err := value.ConformsTo(field); err != nil {
			return FieldValue{}, err
		}
		return value, nil
	case FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FieldValue{}, fmt.Errorf("field %q expects a number: %w", field.Name, err)
		}
		return NumberValue(n), nil
	case FieldDate:
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, raw); err == nil {
				return DateValue(t.UTC()), nil
			}
		}
		return FieldValue{}, fmt.Errorf("field %q expects a date (YYYY-MM-DD)", field.Name)
	case FieldCheckbox:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return FieldValue{}, fmt.Errorf("field %q expects true or false: %w", field.Name, err)
		}
		return CheckboxValue(b), nil
	default:
		return FieldValue{}, fmt.Errorf("field %q has unknown type %q", field.Name, field.Type)
	}
}
