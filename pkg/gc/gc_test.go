package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/gc"
	"github.com/kristofer/loxvm/pkg/value"
)

// fakeRoots implements gc.RootMarker over a fixed slice of values, letting
// a test control exactly what's reachable without a real VM.
type fakeRoots []value.Value

func (r fakeRoots) MarkRoots(mark func(value.Value)) {
	for _, v := range r {
		mark(v)
	}
}

func TestCollectFreesUnreachableString(t *testing.T) {
	c := gc.New(nil)
	kept := c.InternString("kept")
	c.InternString("garbage")

	roots := fakeRoots{value.FromObj(kept)}
	c.Collect(roots)

	require.Same(t, kept, c.Strings.FindString("kept", kept.Hash))
	require.Nil(t, c.Strings.FindString("garbage", value.HashString("garbage")))
}

func TestCollectKeepsClosureOverUpvalue(t *testing.T) {
	c := gc.New(nil)
	fn := c.NewFunction()
	fn.UpvalueCount = 1
	closure := c.NewClosure(fn)
	var slot value.Value = value.Number(42)
	uv := c.NewUpvalue(&slot)
	closure.Upvalues[0] = uv
	uv.Close()

	roots := fakeRoots{value.FromObj(closure)}
	c.Collect(roots)

	require.Equal(t, value.Number(42), closure.Upvalues[0].Closed)
}

// TestCollectTracesFunctionWithNilName exercises the top-level script
// function shape: its Name is left nil (only named functions get one),
// and a collection reachable through it must not panic on that nil
// *ObjString being boxed into the Object interface.
func TestCollectTracesFunctionWithNilName(t *testing.T) {
	c := gc.New(nil)
	fn := c.NewFunction()
	require.Nil(t, fn.Name)

	roots := fakeRoots{value.FromObj(fn)}
	require.NotPanics(t, func() { c.Collect(roots) })
}

// TestCollectTracesClosureWithPartiallyFilledUpvalues covers a closure
// rooted (pushed on the VM stack) before OP_CLOSURE's capture loop has
// filled every Upvalues slot — a collection triggered mid-loop must not
// panic on the still-nil trailing entries.
func TestCollectTracesClosureWithPartiallyFilledUpvalues(t *testing.T) {
	c := gc.New(nil)
	fn := c.NewFunction()
	fn.UpvalueCount = 2
	closure := c.NewClosure(fn)
	// closure.Upvalues[1] is left nil, as if the capture loop hasn't
	// reached it yet.
	var slot value.Value = value.Number(1)
	closure.Upvalues[0] = c.NewUpvalue(&slot)

	roots := fakeRoots{value.FromObj(closure)}
	require.NotPanics(t, func() { c.Collect(roots) })
}

func TestMaybeCollectRespectsThreshold(t *testing.T) {
	c := gc.New(nil)
	c.NextGC = 1 << 30
	before := c.BytesAllocated
	c.InternString("small")
	c.MaybeCollect(fakeRoots{})
	require.Greater(t, c.BytesAllocated, before, "allocation below threshold should not be collected away")
}

func TestMaybeCollectWithStressGCCollectsEveryAllocation(t *testing.T) {
	c := gc.New(nil)
	c.StressGC = true
	c.InternString("rooted")
	// Nothing is rooted here, so a stress collection should reclaim it.
	c.MaybeCollect(fakeRoots{})
	require.Nil(t, c.Strings.FindString("rooted", value.HashString("rooted")))
}
