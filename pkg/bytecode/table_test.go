package bytecode

import (
	"strconv"
	"testing"
)

func newStr(s string) *ObjString {
	return &ObjString{Chars: s, Hash: HashString(s)}
}

func TestTableSetGet(t *testing.T) {
	var tbl Table
	key := newStr("x")
	if !tbl.Set(key, Number(1)) {
		t.Error("first Set of a new key should report isNew = true")
	}
	if tbl.Set(key, Number(2)) {
		t.Error("overwriting an existing key should report isNew = false")
	}
	v, ok := tbl.Get(key)
	if !ok || v.Number != 2 {
		t.Errorf("Get = %v, %v; want 2, true", v, ok)
	}
}

func TestTableGetMissing(t *testing.T) {
	var tbl Table
	if _, ok := tbl.Get(newStr("missing")); ok {
		t.Error("Get on an empty table should report not found")
	}
}

func TestTableDeleteLeavesTombstoneThatDoesNotBreakProbing(t *testing.T) {
	var tbl Table
	// Use enough keys to force collisions within a small backing array
	// and confirm deleting one doesn't hide another behind it.
	keys := make([]*ObjString, 0, 20)
	for i := 0; i < 20; i++ {
		k := newStr(string(rune('a' + i)))
		keys = append(keys, k)
		tbl.Set(k, Number(float64(i)))
	}
	if !tbl.Delete(keys[5]) {
		t.Fatal("Delete of a present key should succeed")
	}
	if _, ok := tbl.Get(keys[5]); ok {
		t.Error("deleted key should no longer be found")
	}
	for i, k := range keys {
		if i == 5 {
			continue
		}
		v, ok := tbl.Get(k)
		if !ok || v.Number != float64(i) {
			t.Errorf("key %d lost after unrelated delete: got %v, %v", i, v, ok)
		}
	}
}

func TestTableDeleteMissing(t *testing.T) {
	var tbl Table
	if tbl.Delete(newStr("nope")) {
		t.Error("Delete of an absent key should report false")
	}
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	var tbl Table
	for i := 0; i < 100; i++ {
		tbl.Set(newStr("k"+strconv.Itoa(i)), Number(float64(i)))
	}
	if tbl.Count() != 100 {
		t.Errorf("Count() = %d, want 100", tbl.Count())
	}
}

func TestTableAddAll(t *testing.T) {
	var src, dst Table
	greet := newStr("greet")
	other := newStr("other")
	src.Set(greet, Number(1))
	dst.Set(other, Number(2))
	dst.AddAll(&src)
	if v, ok := dst.Get(greet); !ok || v.Number != 1 {
		t.Errorf("AddAll did not copy src's entry: %v, %v", v, ok)
	}
	if v, ok := dst.Get(other); !ok || v.Number != 2 {
		t.Errorf("AddAll clobbered dst's own entry: %v, %v", v, ok)
	}
}

func TestTableFindString(t *testing.T) {
	var tbl Table
	key := newStr("needle")
	tbl.Set(key, Nil)
	found := tbl.FindString("needle", HashString("needle"))
	if found != key {
		t.Error("FindString should return the exact interned key pointer")
	}
	if tbl.FindString("haystack", HashString("haystack")) != nil {
		t.Error("FindString should return nil for content never interned")
	}
}

func TestTableWalkVisitsEveryLiveEntry(t *testing.T) {
	var tbl Table
	want := map[string]float64{"a": 1, "b": 2, "c": 3}
	keys := map[string]*ObjString{}
	for k, v := range want {
		keys[k] = newStr(k)
		tbl.Set(keys[k], Number(v))
	}
	tbl.Delete(keys["b"])
	delete(want, "b")
	got := map[string]float64{}
	tbl.Walk(func(key *ObjString, value Value) {
		got[key.Chars] = value.Number
	})
	if len(got) != len(want) {
		t.Fatalf("Walk visited %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Walk: key %q = %v, want %v", k, got[k], v)
		}
	}
}

func TestTableRemoveWhiteStringsDeletesUnmarkedKeys(t *testing.T) {
	var tbl Table
	live := newStr("live")
	dead := newStr("dead")
	liveOwner := &Obj{Type: ObjTypeString, Data: live, Marked: true}
	deadOwner := &Obj{Type: ObjTypeString, Data: dead, Marked: false}
	live.SetOwner(liveOwner)
	dead.SetOwner(deadOwner)
	tbl.Set(live, Nil)
	tbl.Set(dead, Nil)

	tbl.RemoveWhiteStrings()

	if _, ok := tbl.Get(live); !ok {
		t.Error("marked (live) string should survive RemoveWhiteStrings")
	}
	if _, ok := tbl.Get(dead); ok {
		t.Error("unmarked (white) string should be removed by RemoveWhiteStrings")
	}
}
