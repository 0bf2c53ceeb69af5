// Package rt is the runtime value universe shared by the interpreter and
// the heap: arbitrary-precision integers, booleans, and pointer keys.
// It is a separate leaf package so internal/heap and internal/interp can
// both depend on it without an import cycle.
package rt

import (
	"fmt"
	"math/big"
)

// Value is any interpreter/heap-resident runtime value.
type Value interface {
	fmt.Stringer
	isValue()
}

// Int is an arbitrary-precision integer value.
type Int struct {
	N *big.Int
}

// Bool is a boolean value.
type Bool struct {
	B bool
}

// Key identifies a heap allocation (Base) and a displacement within it
// (Offset). Comparisons are only meaningful between keys sharing a Base.
type Key struct {
	Base   int
	Offset int
}

// Pointer is a pointer value: a heap key only. The pointee type is not
// recorded (the heap itself is untyped storage).
type Pointer struct {
	Key Key
}

func (Int) isValue()     {}
func (Bool) isValue()    {}
func (Pointer) isValue() {}

func NewInt(n int64) Int { return Int{N: big.NewInt(n)} }

func (v Int) String() string     { return v.N.String() }
func (v Bool) String() string    { return fmt.Sprintf("%t", v.B) }
func (v Pointer) String() string { return fmt.Sprintf("(%d,%d)", v.Key.Base, v.Key.Offset) }

// Add returns a pointer shifted by delta (no bounds checking; validated
// only on dereference, per spec §4.10).
func (k Key) Add(delta int64) Key {
	return Key{Base: k.Base, Offset: k.Offset + int(delta)}
}
