// Package value defines the runtime value representation and the heap
// object model shared by the compiler, the virtual machine, and the
// garbage collector.
//
// Every value a loxvm program can hold is either an immediate (nil, a
// boolean, or a double-precision number) or a reference to a heap Object.
// Two interchangeable encodings for Value live in this package behind the
// same accessor surface — value_tagged.go (the default) and
// value_nanbox.go (build tag "nanbox") — so every other package compiles
// unchanged against either one; see the package doc for value_tagged.go.
package value

// Kind identifies the concrete type of a heap Object.
type Kind byte

const (
	KindString Kind = iota
	KindFunction
	KindNative
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindNative:
		return "native"
	case KindClosure:
		return "closure"
	case KindUpvalue:
		return "upvalue"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Object is implemented by every heap-allocated value kind. The GC walks
// the intrusive list threaded through Next() and flips Marked() during
// mark-sweep; it never needs to know the concrete payload type to do so.
//
// Objects are never constructed directly by callers outside pkg/gc — the
// collector is the allocator of record, since every allocation must be
// accounted against bytes_allocated and linked into the sweep list before
// it can safely be handed back.
type Object interface {
	Kind() Kind
	Marked() bool
	SetMarked(bool)
	Next() Object
	SetNext(Object)
	header() *Header
}

// Header is the common GC bookkeeping embedded in every Object
// implementation: a kind tag, the tri-color mark bit, and the intrusive
// "next object" pointer that makes up the collector's sweep list.
type Header struct {
	kind   Kind
	marked bool
	next   Object
}

func (h *Header) Kind() Kind       { return h.kind }
func (h *Header) header() *Header  { return h }
func (h *Header) Marked() bool     { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Object     { return h.next }
func (h *Header) SetNext(o Object) { h.next = o }

// ObjHeader exposes the embedded Header of any Object; the collector uses
// it to walk and mutate the sweep list without a type switch.
func ObjHeader(o Object) *Header { return o.header() }

// ObjString is an immutable, interned byte string. Equal bytes are always
// the same *ObjString reference once interned (see pkg/table's
// FindString), which is what makes string equality a pointer compare.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func newHeader(k Kind) Header { return Header{kind: k} }

// NewStringHeader is used only by pkg/gc, which is the sole allocator of
// ObjString values (it must intern and link them atomically).
func NewStringHeader() Header { return newHeader(KindString) }

// ObjFunction is a compile-time artifact: a name, its arity, the number of
// upvalues its closures must capture, and the chunk of bytecode compiled
// for its body. It has no upvalues of its own — those belong to the
// runtime ObjClosure that wraps it.
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the implicit top-level script function
}

func NewFunctionHeader() Header { return newHeader(KindFunction) }

// Chunk is declared here, not in pkg/chunk, to break the import cycle that
// would otherwise result from ObjFunction embedding a bytecode chunk of
// Values while pkg/chunk also wants to format those same Values for
// disassembly. pkg/chunk re-exports this type as chunk.Chunk so call sites
// read naturally; see pkg/chunk/chunk.go.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// NativeFn is the signature every built-in native function implements:
// given the arguments (argv[0] is the first argument, not the receiver),
// it returns a Value or an error describing why it could not complete.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host-provided Go function (e.g. clock) so it can be
// called with loxvm's ordinary calling convention. Natives never capture
// upvalues and never appear as a compile-time constant.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

func NewNativeHeader() Header { return newHeader(KindNative) }

// ObjUpvalue is an indirection onto a captured variable. While Location
// points at a live stack slot the upvalue is "open"; Close copies that
// slot's value into Closed and retargets Location at it, making the
// upvalue self-referential ("closed") so it survives the enclosing frame.
type ObjUpvalue struct {
	Header
	Location *Value // points into the operand stack while open, &Closed once closed
	Closed   Value
	NextOpen *ObjUpvalue // next entry in the VM's open-upvalue list (by descending stack address)
}

func NewUpvalueHeader() Header { return newHeader(KindUpvalue) }

func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a compiled function with the upvalues captured at the
// point its OP_CLOSURE instruction ran. Upvalues has exactly
// Function.UpvalueCount entries once construction completes.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewClosureHeader() Header { return newHeader(KindClosure) }

// ObjClass is a named bundle of methods. Inherit (OP_INHERIT) copies a
// superclass's method table into the subclass at class-creation time;
// later OP_METHOD writes simply overwrite entries, which is how overriding
// works with no extra bookkeeping.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods map[*ObjString]*ObjClosure
}

func NewClassHeader() Header { return newHeader(KindClass) }

// ObjInstance is a live object of some class: an open field table plus a
// reference to the class that defines its behavior.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields map[*ObjString]Value
}

func NewInstanceHeader() Header { return newHeader(KindInstance) }

// ObjBoundMethod packages a receiver together with the closure looked up
// on it, so that `instance.method` can be passed around and later called
// with `this` already bound.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func NewBoundMethodHeader() Header { return newHeader(KindBoundMethod) }
