package util

import "strconv"

// ParseInt parses s, falling back to defaultValue on bad input
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses s, falling back to defaultValue on bad input
func ParseBool(s string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(s); err == nil {
		return val
	}
	return defaultValue
}

// ClampLimit bounds a user-supplied page size to [1, max]
func ClampLimit(limit, max int) int {
	if limit < 1 {
		return 20
	}
	if limit > max {
		return max
	}
	return limit
}
