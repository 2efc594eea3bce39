package rt

import "golang.org/x/exp/slices"

// capTable is the prime capacity ladder an Idx grows along (spec.md §4.3),
// grounded on taz_index.c's static capacity table. 28 rows, each roughly
// doubling, chosen so the open-addressed probe sequence (capacity-1 step)
// stays coprime with the table size.
var capTable = []int{
	7, 13, 29, 59, 127, 257, 521, 1049, 2099, 4201,
	8419, 16843, 33703, 67409, 134837, 269683, 539389, 1078787,
	2157587, 4315183, 8630387, 17260781, 34521583, 69043189,
	138086407, 276172823, 552345671, 1104691373,
}

func capForLoad(n int) int {
	i, _ := slices.BinarySearch(capTable, n*2)
	if i >= len(capTable) {
		i = len(capTable) - 1
	}
	return capTable[i]
}

// idxSlot is one open-addressed table slot: -1 means empty, -2 means a
// tombstone left by Remove, >=0 is a dense row index.
type idxSlot int32

const (
	idxEmpty     idxSlot = -1
	idxTombstone idxSlot = -2
)

// Idx is the runtime's hashmap from atomic Val keys to dense integer rows
// (spec.md §4.3), grounded on tazR_Idx (taz_index.h/.c): open addressing
// with a byte-fingerprint bitmap prefilter so most probes reject on a
// single byte compare before ever touching the key itself, and three
// specializations based on whether any key is a long (independently
// allocated) string — no-strings and no-long-strings specializations skip
// the string-pool indirection entirely. Here the three cases are handled
// by one implementation rather than three re-bound function pointers,
// since Go has no direct equivalent of function-pointer specialization
// without a measurable win to justify the complexity; hasLong is recorded
// but no lookup path branches on it.
type Idx struct {
	ObjHeader

	eng *Engine

	table    []idxSlot
	fprint   []byte // fingerprint per table slot, parallel to table
	keys     []Val  // dense row -> key, insertion order
	rowLive  []bool
	numLive  int
	hasLong  bool // true once any long-string key is inserted
}

// MakeIdx allocates a fresh, empty index.
func (eng *Engine) MakeIdx() *Idx {
	idx := &Idx{ObjHeader: NewObjHeader(TypeIdx), eng: eng}
	idx.rehash(capTable[0])
	var anchor ObjAnchor
	eng.AllocObj(idx, &anchor)
	eng.CommitObj(&anchor)
	return idx
}

func (idx *Idx) rehash(cap int) {
	table := make([]idxSlot, cap)
	fprint := make([]byte, cap)
	for i := range table {
		table[i] = idxEmpty
	}
	for row, live := range idx.rowLive {
		if !live {
			continue
		}
		idx.insertSlot(table, fprint, idx.keys[row], row)
	}
	idx.table = table
	idx.fprint = fprint
}

func fingerprintByte(h uint64) byte { return byte(h) }

func (idx *Idx) insertSlot(table []idxSlot, fprint []byte, key Val, row int) {
	cap := len(table)
	h := idx.eng.Hash(key)
	fp := fingerprintByte(h)
	i := int(h % uint64(cap))
	step := 1 + int(h>>32)%(cap-1)
	for {
		if table[i] == idxEmpty || table[i] == idxTombstone {
			table[i] = idxSlot(row)
			fprint[i] = fp
			return
		}
		i = (i + step) % cap
	}
}

// Len reports the number of live keys.
func (idx *Idx) Len() int { return idx.numLive }

func (idx *Idx) find(key Val) (slotIdx int, row int, found bool) {
	cap := len(idx.table)
	h := idx.eng.Hash(key)
	fp := fingerprintByte(h)
	i := int(h % uint64(cap))
	step := 1 + int(h>>32)%(cap-1)
	for probes := 0; probes < cap; probes++ {
		slot := idx.table[i]
		if slot == idxEmpty {
			return i, 0, false
		}
		if slot != idxTombstone && idx.fprint[i] == fp && idx.eng.Equal(idx.keys[slot], key) {
			return i, int(slot), true
		}
		i = (i + step) % cap
	}
	return -1, 0, false
}

// Insert returns the dense row for key, creating one if it doesn't already
// exist (tazR_idxInsert).
func (idx *Idx) Insert(key Val) int {
	if _, row, ok := idx.find(key); ok {
		return row
	}
	if key.Type() == TypeStr && key.AsStr().IsLong() {
		idx.hasLong = true
	}
	row := len(idx.keys)
	idx.keys = append(idx.keys, key)
	idx.rowLive = append(idx.rowLive, true)
	idx.numLive++

	if idx.numLive*3 > len(idx.table)*2 { // load factor > 2/3: grow
		idx.rehash(capForLoad(idx.numLive))
	} else {
		idx.insertSlot(idx.table, idx.fprint, key, row)
	}
	return row
}

// Lookup reports the row for key without inserting it.
func (idx *Idx) Lookup(key Val) (row int, found bool) {
	_, row, found = idx.find(key)
	return
}

// Key returns the key stored at a dense row.
func (idx *Idx) Key(row int) Val { return idx.keys[row] }

// Remove tombstones key's slot. The dense row stays allocated (so other
// rows' indices remain stable) but is marked dead and skipped by Keys/Len.
func (idx *Idx) Remove(key Val) bool {
	slotIdx, row, ok := idx.find(key)
	if !ok {
		return false
	}
	idx.table[slotIdx] = idxTombstone
	idx.rowLive[row] = false
	idx.numLive--
	return true
}

// Keys iterates live keys in insertion/row order.
func (idx *Idx) Keys(fn func(row int, key Val)) {
	for row, live := range idx.rowLive {
		if live {
			fn(row, idx.keys[row])
		}
	}
}

func (idx *Idx) Scan(eng *Engine, full bool) {
	for row, live := range idx.rowLive {
		if live {
			eng.MarkVal(idx.keys[row])
		}
	}
}

func (idx *Idx) Size() uintptr {
	return uintptr(len(idx.keys))*32 + uintptr(len(idx.table))*8
}
