package users

import (
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Fields is the caller-defined attribute bag on a user record. Values are
// restricted to a closed set of scalars and keys to the [a-z_]+ class.
// The bag is persisted as JSON, so numeric values come back as float64
// regardless of the Go type they were written with.
type Fields map[string]any

var fieldKeyPattern = regexp.MustCompile(`^[a-z_]+$`)

// reservedFieldKeys collide with fixed user columns and are always dropped.
var reservedFieldKeys = map[string]struct{}{
	"id":         {},
	"email":      {},
	"password":   {},
	"confirmed":  {},
	"created_at": {},
	"updated_at": {},
}

// Validate enforces the key pattern and the scalar value set. Used on the
// create path, where a malformed key is an error.
func (f Fields) Validate() error {
	for _, key := range f.SortedKeys() {
		if err := validation.Validate(key, validation.Required, validation.Match(fieldKeyPattern)); err != nil {
			return ErrInvalidFieldKey
		}
		if _, ok := reservedFieldKeys[key]; ok {
			continue
		}
		if !validFieldValue(f[key]) {
			return ErrInvalidFieldValue
		}
	}
	return nil
}

// Filtered returns a copy with invalid keys, reserved keys, and unsupported
// values silently dropped. Used on the update path.
func (f Fields) Filtered() Fields {
	if f == nil {
		return nil
	}

	out := make(Fields, len(f))
	for key, value := range f {
		if !fieldKeyPattern.MatchString(key) {
			continue
		}
		if _, ok := reservedFieldKeys[key]; ok {
			continue
		}
		if !validFieldValue(value) {
			continue
		}
		out[key] = value
	}
	return out
}

// SortedKeys returns the field keys in deterministic order.
func (f Fields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func validFieldValue(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
