package types

import "time"

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// PtrString returns the value of s, or an empty string
func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PtrUint64 returns the value of v, or zero
func PtrUint64(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// PtrDuration returns the value of d, or zero
func PtrDuration(d *time.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return *d
}

// StringPtr returns nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
