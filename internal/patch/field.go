// Package patch models partial-update payloads: every field records whether
// the client sent it, so absent keys leave columns untouched while explicit
// nulls clear nullable columns.
package patch

import (
	"encoding/json"
	"reflect"
)

// Field is one optionally-present member of an update payload.
type Field[T any] struct {
	// Set reports that the key was present in the payload.
	Set bool
	// Null reports that the key was present with a JSON null.
	Null  bool
	Value T
}

// Some returns a field that is present with value v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a field that is present and explicitly null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON marks the field as present. encoding/json only calls it for
// keys that appear in the document, including ones set to null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON writes the value, or null when absent or null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value and whether it was provided with a non-null value.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set && !f.Null
}

// ValidationValue is the value validator tags are evaluated against: nil
// when absent or null, the pointee for pointer types, the value otherwise.
func (f Field[T]) ValidationValue() any {
	if !f.Set || f.Null {
		return nil
	}
	rv := reflect.ValueOf(f.Value)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return f.Value
}

// Validatable is implemented by every Field instantiation.
type Validatable interface {
	ValidationValue() any
}

// ValidationValueOf adapts a reflected Field for validator.RegisterCustomTypeFunc.
func ValidationValueOf(v reflect.Value) any {
	if f, ok := v.Interface().(Validatable); ok {
		return f.ValidationValue()
	}
	return nil
}
