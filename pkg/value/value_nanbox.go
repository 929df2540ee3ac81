//go:build nanbox

// Package value (this file): the NaN-boxing Value encoding, selected with
// `-tags nanbox`. Every double that is not a quiet NaN represents a number
// as-is; nil/true/false occupy three reserved QNaN payloads; object
// references set the sign bit alongside the QNaN mask and carry the
// pointer in the low bits. This is the alternate encoding spec.md §3
// requires sit behind the same accessor contract as value_tagged.go — swap
// the build tag and every other package keeps compiling unchanged.
package value

import (
	"math"
	"unsafe"
)

type Value uint64

const (
	signBit uint64 = 0x8000000000000000
	qnan    uint64 = 0x7ffc000000000000

	tagNil   uint64 = qnan | 1
	tagFalse uint64 = qnan | 2
	tagTrue  uint64 = qnan | 3
)

// Nil is the singular nil value.
var Nil = Value(tagNil)

// Bool wraps a boolean as a Value.
func Bool(b bool) Value {
	if b {
		return Value(tagTrue)
	}
	return Value(tagFalse)
}

// Number wraps a float64 as a Value.
func Number(n float64) Value { return Value(math.Float64bits(n)) }

// FromObj wraps a heap Object reference as a Value. The object's own
// Header carries its Kind, which is how AsObj later knows which concrete
// pointer type to reconstruct from the boxed address.
func FromObj(o Object) Value {
	ptr := objToPointer(o)
	return Value(signBit | qnan | uint64(uintptr(ptr)))
}

func (v Value) IsNil() bool  { return uint64(v) == tagNil }
func (v Value) IsBool() bool { return uint64(v) == tagTrue || uint64(v) == tagFalse }
func (v Value) IsObj() bool  { return uint64(v)&(qnan|signBit) == (qnan | signBit) }
func (v Value) IsNumber() bool {
	return uint64(v)&qnan != qnan
}

func (v Value) AsBool() bool      { return uint64(v) == tagTrue }
func (v Value) AsNumber() float64 { return math.Float64frombits(uint64(v)) }

func (v Value) AsObj() Object {
	ptr := unsafe.Pointer(uintptr(uint64(v) &^ (signBit | qnan)))
	return pointerToObj(ptr)
}

// Truthy implements loxvm's truthiness rule: nil and false are falsey,
// everything else (including 0 and the empty string) is truthy.
func Truthy(v Value) bool {
	if v.IsNil() {
		return false
	}
	if v.IsBool() {
		return v.AsBool()
	}
	return true
}

// Equal implements value-of-same-kind equality. When both sides are
// numbers they compare by IEEE-754 equality (so NaN != NaN); everything
// else compares by identity, which for strings means pointer equality
// thanks to interning.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.AsNumber() == b.AsNumber()
	}
	if a.IsObj() && b.IsObj() {
		return a.AsObj() == b.AsObj()
	}
	return uint64(a) == uint64(b)
}

// objToPointer and pointerToObj reconstruct an Object's concrete pointer
// type from the bare address boxed in a Value. Every Object implementation
// embeds Header as its first field, so the address of the struct and the
// address of its Header coincide; reading the Kind byte at that address is
// enough to know which pointer type to cast back to.
func objToPointer(o Object) unsafe.Pointer {
	switch p := o.(type) {
	case *ObjString:
		return unsafe.Pointer(p)
	case *ObjFunction:
		return unsafe.Pointer(p)
	case *ObjNative:
		return unsafe.Pointer(p)
	case *ObjClosure:
		return unsafe.Pointer(p)
	case *ObjUpvalue:
		return unsafe.Pointer(p)
	case *ObjClass:
		return unsafe.Pointer(p)
	case *ObjInstance:
		return unsafe.Pointer(p)
	case *ObjBoundMethod:
		return unsafe.Pointer(p)
	default:
		panic("value: unknown object type in nan-boxed Value")
	}
}

func pointerToObj(ptr unsafe.Pointer) Object {
	h := (*Header)(ptr)
	switch h.kind {
	case KindString:
		return (*ObjString)(ptr)
	case KindFunction:
		return (*ObjFunction)(ptr)
	case KindNative:
		return (*ObjNative)(ptr)
	case KindClosure:
		return (*ObjClosure)(ptr)
	case KindUpvalue:
		return (*ObjUpvalue)(ptr)
	case KindClass:
		return (*ObjClass)(ptr)
	case KindInstance:
		return (*ObjInstance)(ptr)
	case KindBoundMethod:
		return (*ObjBoundMethod)(ptr)
	default:
		panic("value: corrupt object kind in nan-boxed Value")
	}
}
