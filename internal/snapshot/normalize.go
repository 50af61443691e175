package snapshot

import "strings"

// Normalize folds a snapshot name to the form used for uniqueness and
// lookups: trimmed, lowercased, inner whitespace runs collapsed to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeOptional normalizes an optional name. Nil and blank names yield
// nil so the snapshot stays unnamed.
func NormalizeOptional(name *string) (raw, norm *string) {
	if name == nil {
		return nil, nil
	}
	n := Normalize(*name)
	if n == "" {
		return nil, nil
	}
	r := *name
	return &r, &n
}
