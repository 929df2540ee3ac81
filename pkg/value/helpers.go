package value

import (
	"fmt"
	"strconv"
)

// HashString computes clox's FNV-1a 32-bit hash, used both to intern
// strings and to probe pkg/table.
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (v Value) objKind() (Kind, bool) {
	if !v.IsObj() {
		return 0, false
	}
	return v.AsObj().Kind(), true
}

func (v Value) IsString() bool      { k, ok := v.objKind(); return ok && k == KindString }
func (v Value) IsFunction() bool    { k, ok := v.objKind(); return ok && k == KindFunction }
func (v Value) IsNative() bool      { k, ok := v.objKind(); return ok && k == KindNative }
func (v Value) IsClosure() bool     { k, ok := v.objKind(); return ok && k == KindClosure }
func (v Value) IsClass() bool       { k, ok := v.objKind(); return ok && k == KindClass }
func (v Value) IsInstance() bool    { k, ok := v.objKind(); return ok && k == KindInstance }
func (v Value) IsBoundMethod() bool { return IsBoundMethod(v) }

// IsBoundMethod reports whether v holds a bound method. Unlike the source
// this is ported from, it checks KindBoundMethod rather than mistakenly
// comparing against KindClass (see DESIGN.md's Open Question resolutions).
func IsBoundMethod(v Value) bool { k, ok := v.objKind(); return ok && k == KindBoundMethod }

func (v Value) AsString() *ObjString           { return v.AsObj().(*ObjString) }
func (v Value) AsFunction() *ObjFunction       { return v.AsObj().(*ObjFunction) }
func (v Value) AsNative() *ObjNative           { return v.AsObj().(*ObjNative) }
func (v Value) AsClosure() *ObjClosure         { return v.AsObj().(*ObjClosure) }
func (v Value) AsClass() *ObjClass             { return v.AsObj().(*ObjClass) }
func (v Value) AsInstance() *ObjInstance       { return v.AsObj().(*ObjInstance) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.AsObj().(*ObjBoundMethod) }

// String formats v exactly as the `print` statement does (spec.md §6):
// nil, true/false, %g-style numbers, raw string bytes, <fn NAME> for
// functions, <native fn> for natives, the bare class name for classes,
// "NAME instance" for instances, and "upvalue" for a stray upvalue value.
func (v Value) String() string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObj():
		return formatObject(v.AsObj())
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func formatObject(o Object) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		if obj.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", obj.Name.Chars)
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return formatObject(obj.Function)
	case *ObjUpvalue:
		return "upvalue"
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return fmt.Sprintf("%s instance", obj.Class.Name.Chars)
	case *ObjBoundMethod:
		return formatObject(obj.Method)
	default:
		return "<object>"
	}
}
