// Package table implements the open-addressed hash table that backs
// loxvm's globals and the global string-intern table (instance fields and
// class method tables are plain Go maps in pkg/value). Keys are interned string references; lookups probe
// by reference identity, except FindString, which is the one place that
// compares raw bytes (it's the only way to discover whether a string is
// already interned before allocating one).
package table

import "github.com/kristofer/loxvm/pkg/value"

const (
	maxLoad     = 0.75
	minCapacity = 8
)

type entry struct {
	key   *value.ObjString
	value value.Value
	// present distinguishes a truly empty slot from a tombstone: an entry
	// with key == nil and present == true is a tombstone that keeps probe
	// chains intact after Delete.
	present bool
}

// Table is an open-addressed, linear-probe hash map from interned string
// to Value. Capacity is always a power of two (or zero before first
// growth) and it grows by doubling, minimum 8, once the load factor would
// exceed 0.75.
type Table struct {
	count   int // occupied slots, tombstones included; drives the load factor
	entries []entry
}

// New returns an empty table. The zero value of Table is also usable.
func New() *Table { return &Table{} }

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// Get looks up key, returning its value and whether it was found.
func (t *Table) Get(key *value.ObjString) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return value.Nil, false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if needed. It
// returns true if key was not already present (whether it lands in an
// empty slot or reuses a tombstone), false if it overwrote an existing
// entry.
func (t *Table) Set(key *value.ObjString, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow()
	}
	e := t.find(key)
	isNewKey := e.key == nil
	if isNewKey && !e.present {
		t.count++
	}
	e.key = key
	e.value = val
	e.present = true
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes for other keys
// that hashed into the same chain still find them.
func (t *Table) Delete(key *value.ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = value.Bool(true) // tombstone marker: key=nil, value=true
	return true
}

// AddAll copies every live entry of src into dst, overwriting any entry
// dst already holds under the same key.
func AddAll(src, dst *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString is the only probe that compares raw bytes instead of
// reference identity; it is how the allocator discovers whether a literal
// being compiled or concatenated already has an interned ObjString.
func (t *Table) FindString(chars string, hash uint32) *value.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.present {
				return nil // truly empty: not interned
			}
			// tombstone: keep probing
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) find(key *value.ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if !e.present {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := len(t.entries) * 2
	if newCap < minCapacity {
		newCap = minCapacity
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.find(e.key)
		dst.key = e.key
		dst.value = e.value
		dst.present = true
		t.count++
	}
}

// Mark marks every live key and value in t for the garbage collector.
func (t *Table) Mark(markObj func(value.Object), markValue func(value.Value)) {
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		markObj(e.key)
		markValue(e.value)
	}
}

// RemoveWhite deletes every entry whose key is unmarked. Called only on
// the global string-intern table right before sweeping, giving it weak-key
// semantics: a string that nothing else references is allowed to die even
// though the intern table held a reference to it.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.Marked() {
			e.key = nil
			e.value = value.Bool(true)
		}
	}
}
