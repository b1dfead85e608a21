package recompiler

// pageShift splits a guest address into a page index and an in-page
// byte slot: pageSize is 8 bytes of guest code per page (512 pages over
// the 4KiB address space), addressed as `page[pc >> pageShift][pc & 7]`.
// Only even slots are ever populated, since every opcode starts on an
// even address, but the slot dimension still runs the full 0-7 to match
// that addressing literally instead of compacting to one slot/opcode.
const (
	pageShift = 3
	pageSize  = 1 << pageShift // bytes of guest code per page
	numPages  = 0x1000 / pageSize
)

// Block is one compiled translation: the native code's entry point inside
// a CodeCache arena, and the number of guest cycles it always accounts
// for. Cycles is static rather than returned by the native code itself --
// a translated block's instruction count is fixed once recompilation
// terminates it (at a jump, a skip, a page boundary, or a fallback
// opcode), so nothing about running it changes how many guest cycles it
// represents.
type Block struct {
	Entry  uintptr
	Cycles uint32
}

// BlockTable maps a guest PC to its cached translation, if one exists.
// Pages are allocated lazily so a ROM that only ever touches a handful of
// pages doesn't pay for the other ~500. Invalidation zeroes whole pages
// rather than tracking individual bytes written, since self-modifying
// CHIP-8 code (Fx33, Fx55) nearly always overwrites more than one opcode
// slot's worth of memory at a time.
type BlockTable struct {
	pages [numPages]*[pageSize]*Block
}

func pageAndSlot(pc uint16) (page, slot int) {
	return int(pc) >> pageShift, int(pc) & (pageSize - 1)
}

// Get returns the cached block for pc, or nil if none is resident.
func (t *BlockTable) Get(pc uint16) *Block {
	page, slot := pageAndSlot(pc)
	p := t.pages[page]
	if p == nil {
		return nil
	}
	return p[slot]
}

// Set installs a compiled block for pc, allocating its page on first use.
func (t *BlockTable) Set(pc uint16, b *Block) {
	page, slot := pageAndSlot(pc)
	if t.pages[page] == nil {
		t.pages[page] = &[pageSize]*Block{}
	}
	t.pages[page][slot] = b
}

// InvalidateRange zeroes every page touched by [start, start+length), so
// any block whose translation depended on the old bytes there is no
// longer reachable from Get. The block currently executing (if any) is
// left to finish; its table slot is simply gone by the time it would be
// looked up again.
func (t *BlockTable) InvalidateRange(start uint16, length int) {
	if length <= 0 {
		return
	}
	end := int(start) + length - 1
	firstPage, _ := pageAndSlot(start)
	lastPage, _ := pageAndSlot(uint16(end))
	for p := firstPage; p <= lastPage && p < numPages; p++ {
		t.pages[p] = nil
	}
}

// Reset drops every cached block, used when the CodeCache arena they
// point into has been rewound.
func (t *BlockTable) Reset() {
	for i := range t.pages {
		t.pages[i] = nil
	}
}
