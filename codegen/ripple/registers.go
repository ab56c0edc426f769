package ripple

import (
	"sort"

	"github.com/c0depwn/ripplec/pkg/ext"
	"github.com/c0depwn/ripplec/pkg/slices"
)

// framePrefixWords is the fixed part of every frame below FP: saved RA,
// RAB, old FP, and the four reserved callee-saved slots.
const framePrefixWords = 7

// allocator binds value keys to physical registers for one function. It is
// a context object: every function gets a fresh instance and nothing is
// shared between functions.
//
// Spill slots are assigned monotonically and reused per value; a slot is
// never handed to a different value within the same function. Slot storage
// sits above the locals, at FP+localWords+slot.
type allocator struct {
	fn   string
	prog *Program

	pool []Register       // preference order, fixed
	rank map[Register]int // register -> position in pool
	free []Register       // current free list, kept in preference order

	bound  map[Register]string
	regOf  map[string]Register
	lru    ext.Queue[Register] // bound registers, least recently used first
	pinned map[string]bool

	spillSlots map[string]int
	nextSlot   int

	localWords int
	bankSize   int
	stackBank  int
	sbReady    bool

	banks   map[string]BankTag
	allocas map[string]int // value -> FP offset, recomputed instead of spilled

	usedSaved map[Register]bool
}

func newAllocator(fn string, prog *Program, pool []Register, bankSize, stackBank int) *allocator {
	if len(pool) == 0 {
		pool = allocatableRegisters
	}
	rank := make(map[Register]int, len(pool))
	for i, r := range pool {
		rank[r] = i
	}
	free := make([]Register, len(pool))
	copy(free, pool)
	return &allocator{
		fn:         fn,
		prog:       prog,
		pool:       pool,
		rank:       rank,
		free:       free,
		bound:      make(map[Register]string),
		regOf:      make(map[string]Register),
		pinned:     make(map[string]bool),
		spillSlots: make(map[string]int),
		bankSize:   bankSize,
		stackBank:  stackBank,
		banks:      make(map[string]BankTag),
		allocas:    make(map[string]int),
		usedSaved:  make(map[Register]bool),
	}
}

func (a *allocator) emit(insts ...Inst) {
	*a.prog = append(*a.prog, insts...)
}

func (a *allocator) setLocalWords(n int) { a.localWords = n }

// ensureStackBank emits the one-time SB initialization. It runs lazily so
// a standalone allocator that never touches the stack pays nothing.
func (a *allocator) ensureStackBank() {
	if a.sbReady {
		return
	}
	a.emit(InstLi(SB, a.stackBank))
	a.sbReady = true
}

// markStackBankReady records that SB was already set, e.g. by a function
// prologue, so no lazy initialization is emitted mid-body.
func (a *allocator) markStackBankReady() { a.sbReady = true }

func (a *allocator) touch(reg Register) {
	a.lru.Push(reg)
}

func (a *allocator) bind(reg Register, value string) {
	a.bound[reg] = value
	a.regOf[value] = reg
	a.lru.Push(reg)
	if reg.CalleeSaved() {
		a.usedSaved[reg] = true
	}
}

func (a *allocator) unbind(reg Register) {
	value, ok := a.bound[reg]
	if !ok {
		return
	}
	delete(a.bound, reg)
	delete(a.regOf, value)
	a.lru.Remove(reg)
}

// RegisterOf reports the register currently holding value, if any.
func (a *allocator) RegisterOf(value string) (Register, bool) {
	r, ok := a.regOf[value]
	return r, ok
}

// Acquire returns a register holding value. A bound value keeps its
// register; otherwise a free register is handed out; otherwise the least
// recently used unpinned binding is spilled and its register reused.
func (a *allocator) Acquire(value string) (Register, error) {
	return a.AcquireWithVictim(value, a.lruVictim)
}

// AcquireWithVictim is Acquire with an explicit eviction policy. pick
// receives candidate values (unpinned, LRU order) and names the victim.
func (a *allocator) AcquireWithVictim(value string, pick func(candidates []string) string) (Register, error) {
	if reg, ok := a.regOf[value]; ok {
		a.touch(reg)
		return reg, nil
	}
	if len(a.free) > 0 {
		reg := a.free[0]
		a.free = a.free[1:]
		a.bind(reg, value)
		return reg, nil
	}

	candidates := a.evictable()
	if len(candidates) == 0 {
		return R0, &RegisterExhaustedError{Function: a.fn, Value: value, Pinned: len(a.bound)}
	}
	victim := pick(candidates)
	reg := a.regOf[victim]
	if err := a.spillValue(victim); err != nil {
		return R0, err
	}
	a.bind(reg, value)
	return reg, nil
}

// evictable lists bound, unpinned values in LRU order.
func (a *allocator) evictable() []string {
	unpinned := slices.Filter(a.lru.Snapshot(), func(r Register) bool {
		return !a.pinned[a.bound[r]]
	})
	return slices.Map(unpinned, func(r Register) string { return a.bound[r] })
}

func (a *allocator) lruVictim(candidates []string) string { return candidates[0] }

// spillValue stores a bound value to its spill slot and releases the
// register. Alloca-backed values are simply dropped: their address is
// recomputed from FP on the next request.
func (a *allocator) spillValue(value string) error {
	reg, ok := a.regOf[value]
	if !ok {
		return nil
	}
	if _, isAlloca := a.allocas[value]; isAlloca {
		a.unbind(reg)
		return nil
	}

	slot, ok := a.spillSlots[value]
	if !ok {
		slot = a.nextSlot
		a.nextSlot++
		a.spillSlots[value] = slot
		if frame := framePrefixWords + a.localWords + a.nextSlot; frame > a.bankSize {
			return &FrameOverflowError{Function: a.fn, Words: frame, Limit: a.bankSize}
		}
	}
	a.ensureStackBank()
	a.emit(
		InstComment("spill "+value),
		InstAddI(SC, FP, a.localWords+slot),
		InstStore(reg, SB, SC),
	)
	a.unbind(reg)
	return nil
}

// Reload returns a register holding value, loading it back from its spill
// slot if it was evicted. Values never spilled are acquired fresh.
func (a *allocator) Reload(value string) (Register, error) {
	return a.ReloadWithVictim(value, a.lruVictim)
}

func (a *allocator) ReloadWithVictim(value string, pick func([]string) string) (Register, error) {
	if reg, ok := a.regOf[value]; ok {
		a.touch(reg)
		return reg, nil
	}
	if offset, ok := a.allocas[value]; ok {
		reg, err := a.AcquireWithVictim(value, pick)
		if err != nil {
			return R0, err
		}
		a.emit(InstAddI(reg, FP, offset))
		return reg, nil
	}
	slot, spilled := a.spillSlots[value]
	reg, err := a.AcquireWithVictim(value, pick)
	if err != nil {
		return R0, err
	}
	if spilled {
		a.ensureStackBank()
		a.emit(
			InstComment("reload "+value),
			InstAddI(SC, FP, a.localWords+slot),
			InstLoad(reg, SB, SC),
		)
	}
	return reg, nil
}

// Release returns a register to the free pool, reinserted at its
// preference position so identical request sequences hand out identical
// registers.
func (a *allocator) Release(reg Register) {
	if !reg.Allocatable() {
		return
	}
	a.unbind(reg)
	for _, r := range a.free {
		if r == reg {
			return
		}
	}
	pos := len(a.free)
	for i, r := range a.free {
		if a.rank[reg] < a.rank[r] {
			pos = i
			break
		}
	}
	a.free = append(a.free, R0)
	copy(a.free[pos+1:], a.free[pos:])
	a.free[pos] = reg
}

// SpillAll evicts every binding, oldest first. Used before calls: every
// general register is caller-saved.
func (a *allocator) SpillAll() error {
	for _, reg := range a.lru.Snapshot() {
		value, ok := a.bound[reg]
		if !ok {
			continue
		}
		if err := a.spillValue(value); err != nil {
			return err
		}
		a.Release(reg)
	}
	return nil
}

// clearBindings forgets every binding without emitting stores. Used after
// a block terminator: the values are already in memory (or dead) and the
// next block must not trust registers left over from lowering order.
func (a *allocator) clearBindings() {
	for reg := range a.bound {
		value := a.bound[reg]
		delete(a.regOf, value)
	}
	a.bound = make(map[Register]string)
	a.lru.Clear()
	a.free = make([]Register, len(a.pool))
	copy(a.free, a.pool)
}

func (a *allocator) Pin(value string) { a.pinned[value] = true }
func (a *allocator) Unpin(value string) { delete(a.pinned, value) }

// SetBank records the bank tag for a pointer value. Called together with
// every address rebinding so the pair can never desynchronize.
func (a *allocator) SetBank(value string, tag BankTag) {
	a.banks[value] = tag
}

func (a *allocator) BankOf(value string) (BankTag, bool) {
	tag, ok := a.banks[value]
	return tag, ok
}

// registerAlloca marks a value as stack storage at a fixed FP offset. Such
// values are never spilled; their address is one ADDI away.
func (a *allocator) registerAlloca(value string, offset int) {
	a.allocas[value] = offset
	a.banks[value] = StackBank()
}

func (a *allocator) isAlloca(value string) bool {
	_, ok := a.allocas[value]
	return ok
}

// SpillWords reports how many frame words spill slots occupy so far.
func (a *allocator) SpillWords() int { return a.nextSlot }

// UsedSaved lists the callee-saved registers handed out so far, in
// register order. The prologue saves exactly these.
func (a *allocator) UsedSaved() []Register {
	out := make([]Register, 0, len(a.usedSaved))
	for r := range a.usedSaved {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
