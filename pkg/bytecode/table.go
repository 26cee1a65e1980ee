package bytecode

// tableMaxLoad is the load factor past which Table grows. Matches the
// 0.75 factor clox's table.c uses before it starts paying for too many
// probe collisions.
const tableMaxLoad = 0.75

// entry is one slot in a Table's backing array. The used flag
// distinguishes "never used" (nil Key, used false) from "tombstone"
// (nil Key, used true): Delete leaves a tombstone, with its Value set
// to true, so findEntry's probe sequence doesn't break.
type entry struct {
	Key   *ObjString
	Value Value
	used  bool // true once this slot has ever held a live entry (tombstone marker)
}

func (e *entry) isTombstone() bool {
	return e.Key == nil && e.used
}

// Table is an open-addressed hash table with linear probing, keyed by
// interned *ObjString pointers (so key comparison is pointer equality,
// never string comparison). It backs globals, instance fields, class
// method tables, and the VM's string-interning set.
type Table struct {
	count   int // live entries + tombstones
	entries []entry
}

// Count reports the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	return t.count - t.tombstoneCount()
}

func (t *Table) tombstoneCount() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].isTombstone() {
			n++
		}
	}
	return n
}

// Get looks up key, returning its value and whether it was found.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return Nil, false
	}
	return e.Value, true
}

// Set inserts or overwrites key's value, growing the backing array
// first if the load factor would exceed tableMaxLoad. Returns true if
// this created a brand new key.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && !e.used {
		t.count++
	}
	e.Key = key
	e.Value = value
	e.used = true
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes for
// other keys that collided with this slot still find them.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = Bool(true)
	return true
}

// AddAll copies every live entry of src into t, used by OP_INHERIT to
// seed a subclass's method table with its superclass's methods.
func (t *Table) AddAll(src *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// FindString looks up a string by its raw content and precomputed hash
// without allocating an ObjString, so the VM can check "is this
// already interned" before allocating a new one.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.Key == nil {
			if !e.used {
				return nil
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[idx]
		if e.Key == nil {
			if !e.used {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		idx = (idx + 1) & mask
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

func (t *Table) grow(newCap int) {
	newEntries := make([]entry, newCap)
	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		dst.used = true
		t.count++
	}
	t.entries = newEntries
}

// Walk visits every live entry, used by the collector to mark every
// key and value a table holds without exposing its internal layout.
func (t *Table) Walk(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

// RemoveWhiteStrings deletes every key not marked live, called during
// GC after marking roots but before sweeping so unreferenced interned
// strings don't keep themselves alive through the intern table (the
// intern table holds weak references to its keys).
func (t *Table) RemoveWhiteStrings() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.marked() {
			t.Delete(e.Key)
		}
	}
}

// marked reports whether the Obj wrapping this ObjString is currently
// GC-marked. ObjString itself carries no mark bit; the bit lives on
// the Obj header that wraps it, looked up via the owning VM's
// string-to-obj association recorded at intern time.
func (s *ObjString) marked() bool {
	return s.owner != nil && s.owner.Marked
}
