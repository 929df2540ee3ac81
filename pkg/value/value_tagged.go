//go:build !nanbox

// Package value (this file): the default Value encoding, a small tagged
// union. Every exported accessor below has a byte-identical NaN-boxing
// counterpart in value_nanbox.go (build tag "nanbox") — callers never
// branch on which representation is active, matching spec.md §9's
// requirement that the two encodings sit behind one accessor contract.
package value

type valueKind byte

const (
	valNil valueKind = iota
	valBool
	valNumber
	valObj
)

// Value is loxvm's uniformly-sized runtime value: nil, a boolean, a
// double-precision number, or a reference to a heap Object.
type Value struct {
	kind valueKind
	num  float64
	obj  Object
}

// Nil is the singular nil value.
var Nil = Value{kind: valNil}

// Bool wraps a boolean as a Value.
func Bool(b bool) Value {
	v := Value{kind: valBool}
	if b {
		v.num = 1
	}
	return v
}

// Number wraps a float64 as a Value.
func Number(n float64) Value { return Value{kind: valNumber, num: n} }

// FromObj wraps a heap Object reference as a Value.
func FromObj(o Object) Value { return Value{kind: valObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == valNil }
func (v Value) IsBool() bool   { return v.kind == valBool }
func (v Value) IsNumber() bool { return v.kind == valNumber }
func (v Value) IsObj() bool    { return v.kind == valObj }

func (v Value) AsBool() bool     { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Object     { return v.obj }

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

// Equal implements value-of-same-kind equality: numbers by IEEE-754
// equality (so NaN != NaN), strings and other objects by reference
// (interning makes equal-content strings identical references).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case valNil:
		return true
	case valBool:
		return a.AsBool() == b.AsBool()
	case valNumber:
		return a.num == b.num
	case valObj:
		return a.obj == b.obj
	default:
		return false
	}
}
