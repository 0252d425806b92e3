package value

// View is a non-owning reference to typed storage. Writing through a view
// overwrites the pointed storage; it never reallocates. A zero View is null.
type View struct {
	typ  Type
	data []byte
}

// NewView wraps raw storage with a type tag. The byte slice must be at
// least t.SizeInBytes() long; a shorter slice yields a null view.
func NewView(t Type, data []byte) View {
	if len(data) < t.SizeInBytes() {
		return View{}
	}

	return View{typ: t, data: data[:t.SizeInBytes()]}
}

// Type returns the viewed type.
func (w View) Type() Type { return w.typ }

// IsNull reports whether the view has no storage.
func (w View) IsNull() bool { return len(w.data) == 0 }

// CopyFrom overwrites the viewed storage with the contents of v when the
// types agree in kind and byte size. Mismatched sizes are a no-op; the
// return reports whether the copy happened.
func (w View) CopyFrom(v Value) bool {
	if w.IsNull() || v.IsVoid() {
		return false
	}

	if w.typ.Kind != v.typ.Kind || len(w.data) != len(v.data) {
		return false
	}

	copy(w.data, v.data)

	return true
}

// Index returns a scalar sub-view into element i of an array view.
// Out-of-range indices and scalar receivers yield a null view.
func (w View) Index(i int) View {
	if !w.typ.IsArray() || i < 0 || i >= w.typ.Count {
		return View{}
	}

	sz := w.typ.Kind.ElemSize()

	return View{typ: ScalarType(w.typ.Kind), data: w.data[i*sz : (i+1)*sz]}
}

// AsF32 reads a float32 scalar through the view.
func (w View) AsF32() (float32, error) {
	if err := w.check(KindF32); err != nil {
		return 0, err
	}

	return getF32(w.data), nil
}

// AsF64 reads a float64 scalar through the view.
func (w View) AsF64() (float64, error) {
	if err := w.check(KindF64); err != nil {
		return 0, err
	}

	return getF64(w.data), nil
}

// AsI32 reads an int32 scalar through the view.
func (w View) AsI32() (int32, error) {
	if err := w.check(KindI32); err != nil {
		return 0, err
	}

	return getI32(w.data), nil
}

// AsI64 reads an int64 scalar through the view.
func (w View) AsI64() (int64, error) {
	if err := w.check(KindI64); err != nil {
		return 0, err
	}

	return getI64(w.data), nil
}

// AsBool reads a bool scalar through the view.
func (w View) AsBool() (bool, error) {
	if err := w.check(KindBool); err != nil {
		return false, err
	}

	return w.data[0] != 0, nil
}

// SetF32 writes a float32 scalar through the view.
func (w View) SetF32(v float32) error {
	if err := w.check(KindF32); err != nil {
		return err
	}

	putF32(w.data, v)

	return nil
}

// SetF64 writes a float64 scalar through the view.
func (w View) SetF64(v float64) error {
	if err := w.check(KindF64); err != nil {
		return err
	}

	putF64(w.data, v)

	return nil
}

func (w View) check(k Kind) error {
	if w.IsNull() {
		return ErrNullView
	}

	if w.typ.Kind != k || w.typ.IsArray() {
		return ErrTypeMismatch
	}

	return nil
}
