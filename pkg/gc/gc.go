// Package gc implements loxvm's tri-color mark-sweep collector. It is the
// sole allocator of heap Objects: every allocation is accounted against
// bytes_allocated and linked into the sweep list before it is handed back,
// which is what lets Collect reclaim anything unreachable.
//
// The teacher (kristofer/smog) never needed this package — it leans
// entirely on Go's own garbage collector for its `interface{}` values.
// spec.md §4.5 asks for a from-scratch collector cooperating with both
// compiler and VM, so this is ported from original_source/memory.c's
// algorithm shape (mark roots, trace references via an explicit gray
// worklist, sweep, grow the threshold) and expressed as an idiomatic Go
// callback-driven collector rather than a transliteration.
package gc

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/kristofer/loxvm/pkg/table"
	"github.com/kristofer/loxvm/pkg/value"
)

// HeapGrowFactor is the multiplier applied to bytes_allocated to compute
// the next collection threshold. spec.md §9 standardizes every growable
// structure in this codebase on doubling; the collector's own threshold
// is no exception (original_source/memory.c's GC_HEAP_GROW_FACTOR).
const HeapGrowFactor = 2

const initialNextGC = 1024 * 1024

// RootMarker is implemented by anything the collector must trace roots
// from — the VM (operand stack, frames, globals, open upvalues) and,
// while a compile is in progress, the active compiler (its chain of
// in-progress ObjFunctions, per spec.md §4.5's root list).
type RootMarker interface {
	MarkRoots(mark func(value.Value))
}

// Collector owns every heap Object loxvm allocates, the global string
// intern table, and the gray worklist used to trace reachability.
type Collector struct {
	objects value.Object // head of the intrusive all-objects sweep list
	gray    []value.Object

	Strings *table.Table // weak-keyed: see pruneStrings

	BytesAllocated int
	NextGC         int

	StressGC bool // force a collection on every allocation (debug mode)
	Log      *logrus.Logger

	initString *value.ObjString
}

// New constructs a collector with an empty heap. log may be nil, in which
// case GC trace output is suppressed.
func New(log *logrus.Logger) *Collector {
	c := &Collector{
		Strings: table.New(),
		NextGC:  initialNextGC,
		Log:     log,
	}
	c.initString = c.InternString("init")
	return c
}

// InitString returns the interned "init" string cached at construction
// time, used by the VM to look up initializers without re-interning on
// every instance creation.
func (c *Collector) InitString() *value.ObjString { return c.initString }

func (c *Collector) link(o value.Object) {
	o.SetNext(c.objects)
	c.objects = o
}

func (c *Collector) account(n int) {
	c.BytesAllocated += n
}

// sizeOf is a rough per-kind byte estimate used only to drive the
// collection threshold; loxvm does not need byte-exact accounting, only a
// monotonic signal for when to collect.
func sizeOf(o value.Object) int {
	switch o.(type) {
	case *value.ObjString:
		return 48
	case *value.ObjFunction:
		return 96
	case *value.ObjNative:
		return 32
	case *value.ObjClosure:
		return 64
	case *value.ObjUpvalue:
		return 40
	case *value.ObjClass:
		return 56
	case *value.ObjInstance:
		return 56
	case *value.ObjBoundMethod:
		return 32
	default:
		return 16
	}
}

// MaybeCollect runs a collection if bytes_allocated has crossed next_gc
// (or StressGC is set), as every allocation path must check before
// growing the heap further (spec.md §4.5 "Triggering").
func (c *Collector) MaybeCollect(roots RootMarker) {
	if c.StressGC || c.BytesAllocated > c.NextGC {
		c.Collect(roots)
	}
}

// InternString returns the canonical *ObjString for chars, allocating and
// linking a new one only if an equal string isn't already interned. This
// is the sole path by which ObjString values come into existence, which
// is what makes the interning invariant (spec.md §3) hold.
func (c *Collector) InternString(chars string) *value.ObjString {
	hash := value.HashString(chars)
	if existing := c.Strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &value.ObjString{Header: value.NewStringHeader(), Chars: chars, Hash: hash}
	c.link(s)
	c.account(sizeOf(s))
	// The string is the key in the intern table; the value slot is unused
	// and simply holds true.
	c.Strings.Set(s, value.Bool(true))
	return s
}

// NewFunction allocates an empty function; the compiler fills in its
// Arity, UpvalueCount, Name, and Chunk as it compiles the body.
func (c *Collector) NewFunction() *value.ObjFunction {
	fn := &value.ObjFunction{Header: value.NewFunctionHeader()}
	c.link(fn)
	c.account(sizeOf(fn))
	return fn
}

// NewNative wraps a host Go function as a callable native.
func (c *Collector) NewNative(name string, fn value.NativeFn) *value.ObjNative {
	n := &value.ObjNative{Header: value.NewNativeHeader(), Name: name, Fn: fn}
	c.link(n)
	c.account(sizeOf(n))
	return n
}

// NewClosure wraps fn with upvalCount empty upvalue slots, to be filled in
// by OP_CLOSURE's capture loop.
func (c *Collector) NewClosure(fn *value.ObjFunction) *value.ObjClosure {
	cl := &value.ObjClosure{
		Header:   value.NewClosureHeader(),
		Function: fn,
		Upvalues: make([]*value.ObjUpvalue, fn.UpvalueCount),
	}
	c.link(cl)
	c.account(sizeOf(cl))
	return cl
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (c *Collector) NewUpvalue(slot *value.Value) *value.ObjUpvalue {
	u := &value.ObjUpvalue{Header: value.NewUpvalueHeader(), Location: slot}
	c.link(u)
	c.account(sizeOf(u))
	return u
}

// NewClass allocates an empty class named name.
func (c *Collector) NewClass(name *value.ObjString) *value.ObjClass {
	cls := &value.ObjClass{Header: value.NewClassHeader(), Name: name, Methods: make(map[*value.ObjString]*value.ObjClosure)}
	c.link(cls)
	c.account(sizeOf(cls))
	return cls
}

// NewInstance allocates a fresh instance of klass with an empty field set.
func (c *Collector) NewInstance(klass *value.ObjClass) *value.ObjInstance {
	inst := &value.ObjInstance{Header: value.NewInstanceHeader(), Class: klass, Fields: make(map[*value.ObjString]value.Value)}
	c.link(inst)
	c.account(sizeOf(inst))
	return inst
}

// NewBoundMethod packages receiver with method for a property access that
// turned out to name a method rather than a field.
func (c *Collector) NewBoundMethod(receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	bm := &value.ObjBoundMethod{Header: value.NewBoundMethodHeader(), Receiver: receiver, Method: method}
	c.link(bm)
	c.account(sizeOf(bm))
	return bm
}

// Collect runs one full mark-sweep cycle: mark every root reachable
// object gray, trace until the gray worklist is empty (turning objects
// black), prune the weak string-intern table of anything left white, then
// sweep the all-objects list freeing what's still white.
func (c *Collector) Collect(roots RootMarker) {
	before := c.BytesAllocated
	if c.Log != nil {
		c.Log.WithField("bytes_allocated", humanize.Bytes(uint64(before))).Debug("gc: begin")
	}

	c.markObject(c.initString)
	roots.MarkRoots(c.markValue)
	c.traceReferences()
	c.Strings.RemoveWhite()
	c.sweep()

	c.NextGC = c.BytesAllocated * HeapGrowFactor
	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"collected": humanize.Bytes(uint64(before - c.BytesAllocated)),
			"remaining": humanize.Bytes(uint64(c.BytesAllocated)),
			"next_gc":   humanize.Bytes(uint64(c.NextGC)),
		}).Debug("gc: end")
	}
}

func (c *Collector) markValue(v value.Value) {
	if v.IsObj() {
		c.markObject(v.AsObj())
	}
}

func (c *Collector) markObject(o value.Object) {
	if o == nil || o.Marked() {
		return
	}
	o.SetMarked(true)
	c.gray = append(c.gray, o)
}

// traceReferences drains the gray worklist, blackening each object by
// visiting (and graying) whatever it references. The worklist is grown
// with Go's ordinary append, not the GC-aware allocators above — growing
// it must never itself trigger a collection (spec.md §5), and since it
// holds no Lox-level allocation it can't.
func (c *Collector) traceReferences() {
	for len(c.gray) > 0 {
		o := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		c.blacken(o)
	}
}

func (c *Collector) blacken(o value.Object) {
	switch obj := o.(type) {
	case *value.ObjString, *value.ObjNative:
		// no outgoing references
	case *value.ObjUpvalue:
		c.markValue(obj.Closed)
	case *value.ObjFunction:
		if obj.Name != nil {
			c.markObject(obj.Name)
		}
		for _, k := range obj.Chunk.Constants {
			c.markValue(k)
		}
	case *value.ObjClosure:
		c.markObject(obj.Function)
		for _, uv := range obj.Upvalues {
			if uv != nil {
				c.markObject(uv)
			}
		}
	case *value.ObjClass:
		c.markObject(obj.Name)
		for name, method := range obj.Methods {
			c.markObject(name)
			c.markObject(method)
		}
	case *value.ObjInstance:
		c.markObject(obj.Class)
		for name, v := range obj.Fields {
			c.markObject(name)
			c.markValue(v)
		}
	case *value.ObjBoundMethod:
		c.markValue(obj.Receiver)
		c.markObject(obj.Method)
	}
}

// sweep walks the all-objects list, re-whitening every object the mark
// phase reached and unlinking (freeing, from Go's perspective — dropping
// the last reference) every object still white.
func (c *Collector) sweep() {
	var prev value.Object
	cur := c.objects
	for cur != nil {
		if cur.Marked() {
			cur.SetMarked(false)
			prev = cur
			cur = cur.Next()
			continue
		}
		unreached := cur
		cur = cur.Next()
		if prev != nil {
			prev.SetNext(cur)
		} else {
			c.objects = cur
		}
		c.account(-sizeOf(unreached))
	}
}
