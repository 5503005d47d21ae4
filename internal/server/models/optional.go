package models

import "encoding/json"

// Optional records whether a field was present in the input at all, so a
// partial update can tell "absent" from "set to the zero value".
type Optional[T any] struct {
	Value T
	Set   bool
	// Null is true when the input carried an explicit JSON null.
	Null bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Null = string(b) == "null"
	if o.Null {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
