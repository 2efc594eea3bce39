package rt

import (
	"github.com/dchest/siphash"
)

// Str is a string handle — the Go analogue of tazR_Str (a bare uint64 in
// the C original). Bits 46-47 carry a size class, the low 46 bits carry
// either an inline short string or a pool slot index, per
// taz_engine.h's "Note: Strings":
//
//	short  (0-5 bytes):  encoded entirely inside the handle, no allocation
//	medium (6-16 bytes): interned in strPool.medium, deduplicated by content
//	long   (>16 bytes):  independently allocated in strPool.long
//
// strIsLong/strIsGCed below mirror tazE_strIsLong/tazE_strIsGCed
// (taz_engine.h), which test a handle's class via a bit shift. Like the
// original, the class is a 2-bit field at bit 46, so every handle fits in
// the 48-bit payload of the nanbox Val (val_nanbox.go).
type Str uint64

const (
	strClassShort  = 0
	strClassMedium = 1
	strClassLong   = 2

	strClassShift   = 46
	strPayloadMask  = (uint64(1) << strClassShift) - 1
	shortLenShift   = 40
	shortLenMask    = 0x7
	maxShortLen     = 5
	minMediumLen    = maxShortLen + 1
	maxMediumLen    = 16
)

func (s Str) class() uint64 { return uint64(s) >> strClassShift }

// IsLong reports whether s is a long (independently allocated) string,
// mirroring tazE_strIsLong.
func (s Str) IsLong() bool { return s.class() == strClassLong }

// IsGCed reports whether s's storage is owned by the string pool rather
// than inlined in the handle, mirroring tazE_strIsGCed.
func (s Str) IsGCed() bool { return s.class() != strClassShort }

func (s Str) payload() uint64 { return uint64(s) & strPayloadMask }

func makeShortStr(b []byte) Str {
	if len(b) > maxShortLen {
		panic("rt: makeShortStr: too long")
	}
	var payload uint64
	for i, c := range b {
		payload |= uint64(c) << (8 * i)
	}
	payload |= uint64(len(b)) << shortLenShift
	return Str(strClassShort<<strClassShift | payload)
}

func (s Str) shortBytes() []byte {
	p := s.payload()
	n := (p >> shortLenShift) & shortLenMask
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(p >> (8 * uint(i)))
	}
	return b
}

// strEntry is one pool slot for a medium or long string.
type strEntry struct {
	data    string
	hash    uint64
	refs    int  // loan/steal pin count — never collected while > 0
	marked  bool // GC mark bit, cleared by the full-cycle sweep that finds it set
	long    bool
}

// StrPool owns all medium/long string storage and the process-wide SipHash
// key used both for string hashing and (per SPEC_FULL.md §3) for Val
// hashing of atomic keys, grounded on SnellerInc/sneller's
// vm/siphash_generic.go use of github.com/dchest/siphash for its own
// hash-join tables.
type StrPool struct {
	k0, k1 uint64

	medium      []strEntry
	mediumByKey map[string]uint32
	freeMedium  []uint32

	long     []strEntry
	freeLong []uint32

	cycles     int
	sweepEvery int // full-cycle cadence it was built with; sweep itself only consults its full argument
}

// NewStrPool creates a pool keyed with a fixed SipHash key. Using a fixed
// key (rather than a random one) keeps hashes reproducible across runs for
// testing and disassembly, at the cost of the DoS-resistance a random key
// would add in an untrusted-input setting.
func NewStrPool(sweepEvery int) *StrPool {
	if sweepEvery <= 0 {
		sweepEvery = 16
	}
	return &StrPool{
		k0:          0x5bd1e995,
		k1:          0xc2b2ae35,
		mediumByKey: make(map[string]uint32),
		sweepEvery:  sweepEvery,
	}
}

func (p *StrPool) hashBytes(b []byte) uint64 {
	return siphash.Hash(p.k0, p.k1, b)
}

// Make interns or inlines b according to its size class.
func (p *StrPool) Make(b []byte) Str {
	switch {
	case len(b) <= maxShortLen:
		return makeShortStr(b)
	case len(b) <= maxMediumLen:
		return p.makeMedium(b)
	default:
		return p.makeLong(b)
	}
}

func (p *StrPool) makeMedium(b []byte) Str {
	key := string(b)
	if idx, ok := p.mediumByKey[key]; ok {
		return Str(strClassMedium<<strClassShift | uint64(idx))
	}
	h := p.hashBytes(b)
	entry := strEntry{data: key, hash: h}
	var idx uint32
	if n := len(p.freeMedium); n > 0 {
		idx = p.freeMedium[n-1]
		p.freeMedium = p.freeMedium[:n-1]
		p.medium[idx] = entry
	} else {
		idx = uint32(len(p.medium))
		p.medium = append(p.medium, entry)
	}
	p.mediumByKey[key] = idx
	return Str(strClassMedium<<strClassShift | uint64(idx))
}

func (p *StrPool) makeLong(b []byte) Str {
	h := p.hashBytes(b)
	entry := strEntry{data: string(b), hash: h, long: true}
	var idx uint32
	if n := len(p.freeLong); n > 0 {
		idx = p.freeLong[n-1]
		p.freeLong = p.freeLong[:n-1]
		p.long[idx] = entry
	} else {
		idx = uint32(len(p.long))
		p.long = append(p.long, entry)
	}
	return Str(strClassLong<<strClassShift | uint64(idx))
}

// Bytes returns the decoded content of s.
func (p *StrPool) Bytes(s Str) []byte {
	switch s.class() {
	case strClassShort:
		return s.shortBytes()
	case strClassMedium:
		return []byte(p.medium[s.payload()].data)
	default:
		return []byte(p.long[s.payload()].data)
	}
}

// Hash returns the SipHash-2-4 digest of s's content (§3's "Val.hash()" for
// atomic keys routes strings through here).
func (p *StrPool) Hash(s Str) uint64 {
	if s.class() == strClassShort {
		return p.hashBytes(s.shortBytes())
	}
	if s.class() == strClassMedium {
		return p.medium[s.payload()].hash
	}
	return p.long[s.payload()].hash
}

// Equal reports byte-for-byte equality, short-circuiting on interned
// medium handles being numerically identical.
func (p *StrPool) Equal(a, b Str) bool {
	if a == b {
		return true
	}
	if a.class() != b.class() && a.class() != strClassMedium && b.class() != strClassMedium {
		// different classes can still hold equal content (e.g. a 5-byte
		// short string vs how it would look interned); fall through to
		// byte comparison rather than assuming inequality.
	}
	return string(p.Bytes(a)) == string(p.Bytes(b))
}

// Less orders strings lexicographically by content.
func (p *StrPool) Less(a, b Str) bool {
	return string(p.Bytes(a)) < string(p.Bytes(b))
}

// StrLoan is a temporary pin on a medium/long string's pool slot, the Go
// analogue of taz_StrLoan (borrowStr/returnStr/stealStr in taz_engine.h):
// while outstanding it guarantees the sweep phase won't reclaim the slot
// even if nothing else references it.
type StrLoan struct {
	s     Str
	class uint64
	idx   uint64
}

// Borrow pins s's pool slot for the duration of the loan. Short strings
// need no pinning since they carry their own bytes inline.
func (p *StrPool) Borrow(s Str) StrLoan {
	loan := StrLoan{s: s, class: s.class(), idx: s.payload()}
	if loan.class == strClassMedium {
		p.medium[loan.idx].refs++
	} else if loan.class == strClassLong {
		p.long[loan.idx].refs++
	}
	return loan
}

// Return releases a loan obtained from Borrow.
func (p *StrPool) Return(loan StrLoan) {
	if loan.class == strClassMedium {
		p.medium[loan.idx].refs--
	} else if loan.class == strClassLong {
		p.long[loan.idx].refs--
	}
}

// Steal converts an outstanding loan into a permanent reference: the pin
// stays in place (refs is not decremented) so the caller may keep using
// the Str after the loan's nominal scope ends, e.g. when a host callback
// stashes a borrowed key into a longer-lived structure mid-barrier.
func (p *StrPool) Steal(loan StrLoan) Str {
	return loan.s
}

// mark sets the GC mark bit for s's pool slot, called from the engine's
// mark phase (tazE_markStr).
func (p *StrPool) mark(s Str) {
	switch s.class() {
	case strClassMedium:
		p.medium[s.payload()].marked = true
	case strClassLong:
		p.long[s.payload()].marked = true
	}
}

// sweep reclaims unmarked, unpinned medium and long slots. It only does so
// on full cycles (§4.2); a non-full cycle leaves the pool untouched, which
// is why Scan implementations may skip hybrid fields such as a Code's name
// outside full cycles.
func (p *StrPool) sweep(full bool) {
	p.cycles++
	if !full {
		return
	}
	for i := range p.long {
		e := &p.long[i]
		if e.data == "" {
			continue
		}
		if e.refs == 0 && !e.marked {
			delete(p.mediumByKey, e.data) // no-op for long slots, kept for symmetry
			*e = strEntry{}
			p.freeLong = append(p.freeLong, uint32(i))
		} else {
			e.marked = false
		}
	}
	for i := range p.medium {
		e := &p.medium[i]
		if e.data == "" {
			continue
		}
		if e.refs == 0 && !e.marked {
			delete(p.mediumByKey, e.data)
			*e = strEntry{}
			p.freeMedium = append(p.freeMedium, uint32(i))
		} else {
			e.marked = false
		}
	}
}
