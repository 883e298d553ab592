package library

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Optional is a JSON field that remembers whether its key was sent, so an
// explicit null can be told apart from an omitted key.
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// IsNull reports whether the key was sent with a null value.
func (o Optional[T]) IsNull() bool {
	return o.Present && o.Value == nil
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil
	if string(data) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
