package metadata

// AllowedFields reports whether key is present in the schema's allowed set,
// the predicate Sanitize uses to drop keys the schema no longer defines.
type AllowedFields interface {
	Allows(fieldKey string) bool
}

type allowedSet map[string]bool

func (a allowedSet) Allows(fieldKey string) bool { return a[fieldKey] }

// NewAllowedFields builds an AllowedFields from a schema's field keys.
func NewAllowedFields(fieldKeys []string) AllowedFields {
	set := make(allowedSet, len(fieldKeys))
	for _, k := range fieldKeys {
		set[k] = true
	}
	return set
}

// Sanitize drops any key not in allowed, and for every retained entity or
// user reference recomputes Val as the first non-empty of display_name,
// name, code, email, id (spec.md §4.6.2 step 5). Primitive and Null values
// pass through unchanged.
func Sanitize(raw Map, allowed AllowedFields) Map {
	out := make(Map, len(raw))
	for key, value := range raw {
		if !allowed.Allows(key) {
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value Value) Value {
	switch v := value.(type) {
	case EntityRef:
		v.Val = firstNonEmpty(v.Name, v.Code, v.ID)
		return v
	case UserRef:
		v.Val = firstNonEmpty(v.DisplayName, v.Email, v.ID)
		return v
	default:
		return value
	}
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
