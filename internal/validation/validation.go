// Package validation collects form field violations into a map keyed by
// field name, so a handler can run every check and report once.
package validation

import "strings"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field was flagged.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Email is the same lightweight shape check used across the portal; real
// deliverability is proven by the confirmation mail, not here.
func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" || !strings.Contains(value, "@") {
		v[field] = "invalid_email"
	}
}

// Choice flags values outside the allowed stored-value set.
func Choice(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v[field] = "invalid_choice"
}

func MaxLen(field, value string, max int, v Violations) {
	if len(value) > max {
		v[field] = "too_long"
	}
}
