// Package value implements the dynamically typed payload used for event
// payloads and runtime parameter access. A Value owns its storage; a View
// aliases storage owned elsewhere (a Value or a stream buffer).
//
// The kind set is deliberately small: scalars of float32/float64/int32/
// int64/bool plus fixed-size arrays of those. Arrays do not nest.
package value

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrTypeMismatch is returned when a Value or View is read or written
	// as a kind other than the one it stores.
	ErrTypeMismatch = errors.New("value: type mismatch")
	// ErrNullView is returned when reading through a View with no storage.
	ErrNullView = errors.New("value: null view")
)

// Kind is the element kind of a Value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindF32
	KindF64
	KindI32
	KindI64
	KindBool
)

// ElemSize returns the storage size of one element in bytes.
func (k Kind) ElemSize() int {
	switch k {
	case KindF32, KindI32:
		return 4
	case KindF64, KindI64:
		return 8
	case KindBool:
		return 1
	default:
		return 0
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Type is a tagged payload type: an element kind and a fixed element count.
// Count == 1 denotes a scalar; Count > 1 a fixed-size array.
type Type struct {
	Kind  Kind
	Count int
}

// Void is the empty type.
var Void = Type{}

// ScalarType returns the scalar type of a kind.
func ScalarType(k Kind) Type {
	if k == KindVoid {
		return Void
	}

	return Type{Kind: k, Count: 1}
}

// ArrayType returns a fixed-size array type. count must be >= 1.
func ArrayType(k Kind, count int) Type {
	if k == KindVoid || count < 1 {
		return Void
	}

	return Type{Kind: k, Count: count}
}

// SizeInBytes returns the total storage size of the type.
func (t Type) SizeInBytes() int {
	return t.Kind.ElemSize() * t.Count
}

// IsVoid reports whether the type holds no data.
func (t Type) IsVoid() bool { return t.Kind == KindVoid || t.Count == 0 }

// IsArray reports whether the type is a fixed-size array.
func (t Type) IsArray() bool { return t.Count > 1 }

// Value is an owned, dynamically typed payload. The zero Value is Void.
// Values are passed by value; Clone performs a deep copy when the caller
// needs an independent buffer.
type Value struct {
	typ  Type
	data []byte
}

// ---- constructors ----

// F32 wraps a float32 scalar.
func F32(v float32) Value { return scalar(KindF32, func(b []byte) { putF32(b, v) }) }

// F64 wraps a float64 scalar.
func F64(v float64) Value { return scalar(KindF64, func(b []byte) { putF64(b, v) }) }

// I32 wraps an int32 scalar.
func I32(v int32) Value { return scalar(KindI32, func(b []byte) { putI32(b, v) }) }

// I64 wraps an int64 scalar.
func I64(v int64) Value { return scalar(KindI64, func(b []byte) { putI64(b, v) }) }

// Bool wraps a bool scalar.
func Bool(v bool) Value { return scalar(KindBool, func(b []byte) { putBool(b, v) }) }

// F32Array copies vs into a new array value.
func F32Array(vs []float32) Value {
	v := Value{typ: ArrayType(KindF32, len(vs))}
	v.data = make([]byte, v.typ.SizeInBytes())

	for i, x := range vs {
		putF32(v.data[i*4:], x)
	}

	return v
}

// F64Array copies vs into a new array value.
func F64Array(vs []float64) Value {
	v := Value{typ: ArrayType(KindF64, len(vs))}
	v.data = make([]byte, v.typ.SizeInBytes())

	for i, x := range vs {
		putF64(v.data[i*8:], x)
	}

	return v
}

func scalar(k Kind, put func([]byte)) Value {
	v := Value{typ: ScalarType(k), data: make([]byte, k.ElemSize())}
	put(v.data)

	return v
}

// ---- accessors ----

// Type returns the stored type tag.
func (v Value) Type() Type { return v.typ }

// IsVoid reports whether the value holds no data.
func (v Value) IsVoid() bool { return v.typ.IsVoid() || len(v.data) == 0 }

// AsF32 reads a float32 scalar.
func (v Value) AsF32() (float32, error) {
	if err := v.check(KindF32); err != nil {
		return 0, err
	}

	return getF32(v.data), nil
}

// AsF64 reads a float64 scalar.
func (v Value) AsF64() (float64, error) {
	if err := v.check(KindF64); err != nil {
		return 0, err
	}

	return getF64(v.data), nil
}

// AsI32 reads an int32 scalar.
func (v Value) AsI32() (int32, error) {
	if err := v.check(KindI32); err != nil {
		return 0, err
	}

	return getI32(v.data), nil
}

// AsI64 reads an int64 scalar.
func (v Value) AsI64() (int64, error) {
	if err := v.check(KindI64); err != nil {
		return 0, err
	}

	return getI64(v.data), nil
}

// AsBool reads a bool scalar.
func (v Value) AsBool() (bool, error) {
	if err := v.check(KindBool); err != nil {
		return false, err
	}

	return v.data[0] != 0, nil
}

// Numeric coerces any scalar numeric or bool value to float64.
// The second return is false for Void and array values.
func (v Value) Numeric() (float64, bool) {
	if v.IsVoid() || v.typ.IsArray() {
		return 0, false
	}

	switch v.typ.Kind {
	case KindF32:
		return float64(getF32(v.data)), true
	case KindF64:
		return getF64(v.data), true
	case KindI32:
		return float64(getI32(v.data)), true
	case KindI64:
		return float64(getI64(v.data)), true
	case KindBool:
		if v.data[0] != 0 {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

// F32Slice copies an f32 array value into a new slice.
func (v Value) F32Slice() ([]float32, error) {
	if v.typ.Kind != KindF32 || !v.typ.IsArray() {
		return nil, ErrTypeMismatch
	}

	out := make([]float32, v.typ.Count)
	for i := range out {
		out[i] = getF32(v.data[i*4:])
	}

	return out, nil
}

// F64Slice copies an f64 array value into a new slice.
func (v Value) F64Slice() ([]float64, error) {
	if v.typ.Kind != KindF64 || !v.typ.IsArray() {
		return nil, ErrTypeMismatch
	}

	out := make([]float64, v.typ.Count)
	for i := range out {
		out[i] = getF64(v.data[i*8:])
	}

	return out, nil
}

// ---- mutation ----

// SetF32 writes a float32 scalar. A Void value adopts the kind; any other
// mismatched kind fails with ErrTypeMismatch.
func (v *Value) SetF32(x float32) error { return v.set(KindF32, func(b []byte) { putF32(b, x) }) }

// SetF64 writes a float64 scalar, adopting the kind when Void.
func (v *Value) SetF64(x float64) error { return v.set(KindF64, func(b []byte) { putF64(b, x) }) }

// SetI32 writes an int32 scalar, adopting the kind when Void.
func (v *Value) SetI32(x int32) error { return v.set(KindI32, func(b []byte) { putI32(b, x) }) }

// SetI64 writes an int64 scalar, adopting the kind when Void.
func (v *Value) SetI64(x int64) error { return v.set(KindI64, func(b []byte) { putI64(b, x) }) }

// SetBool writes a bool scalar, adopting the kind when Void.
func (v *Value) SetBool(x bool) error { return v.set(KindBool, func(b []byte) { putBool(b, x) }) }

func (v *Value) set(k Kind, put func([]byte)) error {
	if v.typ.IsVoid() {
		v.typ = ScalarType(k)
		v.data = make([]byte, k.ElemSize())
	} else if v.typ.Kind != k || v.typ.IsArray() {
		return ErrTypeMismatch
	}

	put(v.data)

	return nil
}

// Clear releases storage and resets the value to Void.
func (v *Value) Clear() {
	v.typ = Void
	v.data = nil
}

// Clone returns a deep copy with independent storage.
func (v Value) Clone() Value {
	if len(v.data) == 0 {
		return Value{typ: v.typ}
	}

	out := Value{typ: v.typ, data: make([]byte, len(v.data))}
	copy(out.data, v.data)

	return out
}

// View returns a non-owning view aliasing this value's storage.
func (v *Value) View() View {
	return View{typ: v.typ, data: v.data}
}

func (v Value) check(k Kind) error {
	if len(v.data) == 0 {
		return ErrNullView
	}

	if v.typ.Kind != k || v.typ.IsArray() {
		return ErrTypeMismatch
	}

	return nil
}

// ---- raw little-endian codecs ----

func putF32(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) }
func putF64(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) }
func putI32(b []byte, v int32)   { binary.LittleEndian.PutUint32(b, uint32(v)) }
func putI64(b []byte, v int64)   { binary.LittleEndian.PutUint64(b, uint64(v)) }

func putBool(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func getF32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
func getF64(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
func getI32(b []byte) int32   { return int32(binary.LittleEndian.Uint32(b)) }
func getI64(b []byte) int64   { return int64(binary.LittleEndian.Uint64(b)) }
