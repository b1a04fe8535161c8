package core

// Presence records whether a field was supplied by the caller and, if so,
// whether it carried a usable value.
type Presence uint8

const (
	// Absent means the field was not supplied. Updates leave the stored
	// value untouched; creates fall back to the schema default.
	Absent Presence = iota
	// Empty means the field was supplied blank. Interactive updates clear
	// the stored value; sparse merges ignore it.
	Empty
	// Present means the field carries a value.
	Present
)

func (p Presence) String() string {
	switch p {
	case Empty:
		return "empty"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Field is a tri-state wrapper around a normalized value.
// The zero value is Absent.
type Field[T any] struct {
	presence Presence
	value    T
}

// Set returns a Present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{presence: Present, value: v}
}

// Cleared returns an Empty field.
func Cleared[T any]() Field[T] {
	return Field[T]{presence: Empty}
}

// Presence reports the field's state.
func (f Field[T]) Presence() Presence { return f.presence }

// IsSet reports whether the field carries a value.
func (f Field[T]) IsSet() bool { return f.presence == Present }

// IsAbsent reports whether the field was not supplied at all.
func (f Field[T]) IsAbsent() bool { return f.presence == Absent }

// IsEmpty reports whether the field was supplied blank.
func (f Field[T]) IsEmpty() bool { return f.presence == Empty }

// Get returns the value and true when the field is Present.
func (f Field[T]) Get() (T, bool) {
	if f.presence != Present {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Value returns the held value, or the zero value when not Present.
func (f Field[T]) Value() T {
	v, _ := f.Get()
	return v
}
