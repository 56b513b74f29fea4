package models

// StringPtr returns a pointer to the given string.
// Useful for optional fields in update calls.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to the given float64.
func Float64Ptr(f float64) *float64 {
	return &f
}
