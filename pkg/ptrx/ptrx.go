// Package ptrx provides pointer helpers for optional values, most commonly
// the pointer-typed fields of partial-update requests.
package ptrx

// Ptr returns a pointer to the value passed in.
func Ptr[T any](v T) *T {
	return &v
}

// Value returns the value of the pointer passed in or the zero value if the
// pointer is nil.
func Value[T any](v *T) T {
	if v != nil {
		return *v
	}
	var zero T
	return zero
}

// ValueOr returns the value of the pointer passed in or the default value if
// the pointer is nil.
func ValueOr[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}

// IsNil checks if a pointer is nil.
func IsNil[T any](v *T) bool {
	return v == nil
}

// IsNotNil checks if a pointer is not nil.
func IsNotNil[T any](v *T) bool {
	return v != nil
}
