package table_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/gc"
	"github.com/kristofer/loxvm/pkg/table"
	"github.com/kristofer/loxvm/pkg/value"
)

func TestSetGetDelete(t *testing.T) {
	c := gc.New(nil)
	tbl := table.New()

	k1 := c.InternString("alpha")
	k2 := c.InternString("beta")

	require.True(t, tbl.Set(k1, value.Number(1)))
	require.True(t, tbl.Set(k2, value.Number(2)))
	require.False(t, tbl.Set(k1, value.Number(3)), "overwriting an existing key is not a new insert")

	v, ok := tbl.Get(k1)
	require.True(t, ok)
	require.Equal(t, value.Number(3), v)

	require.True(t, tbl.Delete(k1))
	_, ok = tbl.Get(k1)
	require.False(t, ok)

	v, ok = tbl.Get(k2)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)
	require.Equal(t, 1, tbl.Count())
}

func TestDeleteLeavesTombstoneThatDoesNotBreakProbing(t *testing.T) {
	c := gc.New(nil)
	tbl := table.New()

	keys := make([]*value.ObjString, 0, 20)
	for i := 0; i < 20; i++ {
		k := c.InternString(string(rune('a' + i)))
		keys = append(keys, k)
		tbl.Set(k, value.Number(float64(i)))
	}

	for i := 0; i < 20; i += 2 {
		require.True(t, tbl.Delete(keys[i]))
	}
	for i := 1; i < 20; i += 2 {
		v, ok := tbl.Get(keys[i])
		require.True(t, ok, "key %d should survive interleaved deletes", i)
		require.Equal(t, value.Number(float64(i)), v)
	}
}

func TestGrowthRehashesAllLiveEntries(t *testing.T) {
	c := gc.New(nil)
	tbl := table.New()

	const n = 200
	keys := make([]*value.ObjString, n)
	for i := 0; i < n; i++ {
		keys[i] = c.InternString(string(rune('A')) + string(rune(i)))
		tbl.Set(keys[i], value.Number(float64(i)))
	}
	require.Equal(t, n, tbl.Count())
	for i := 0; i < n; i++ {
		v, ok := tbl.Get(keys[i])
		require.True(t, ok)
		require.Equal(t, value.Number(float64(i)), v)
	}
}

func TestFindStringComparesBytesNotIdentity(t *testing.T) {
	c := gc.New(nil)
	tbl := table.New()
	k := c.InternString("shared")
	tbl.Set(k, value.Bool(true))

	found := tbl.FindString("shared", k.Hash)
	require.Same(t, k, found)

	require.Nil(t, tbl.FindString("unshared", k.Hash+1))
}

func TestAddAllCopiesLiveEntriesOnly(t *testing.T) {
	c := gc.New(nil)
	src := table.New()
	dst := table.New()

	k1 := c.InternString("one")
	k2 := c.InternString("two")
	src.Set(k1, value.Number(1))
	src.Set(k2, value.Number(2))
	src.Delete(k1)

	table.AddAll(src, dst)
	require.Equal(t, 1, dst.Count())
	v, ok := dst.Get(k2)
	require.True(t, ok)
	require.Equal(t, value.Number(2), v)
	_, ok = dst.Get(k1)
	require.False(t, ok)
}
