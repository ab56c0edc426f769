package ripple

import "github.com/c0depwn/ripplec/ir"

// lifetime is one value's liveness inside a single basic block, produced
// by the pre-pass and discarded once the block is lowered.
type lifetime struct {
	def         int
	defined     bool // definition sits in this block
	uses        []int
	lastUse     int
	crossesCall bool
}

// pressureManager wraps the allocator with block-level knowledge: it knows
// every value's next use, so it can pick better spill victims than raw
// LRU, and it spills everything before calls since all general registers
// are caller-saved.
type pressureManager struct {
	alloc     *allocator
	lifetimes map[string]*lifetime
	pos       int
}

func newPressureManager(alloc *allocator) *pressureManager {
	return &pressureManager{
		alloc:     alloc,
		lifetimes: make(map[string]*lifetime),
	}
}

// AnalyzeBlock runs the lifetime pre-pass: definition point, use points,
// last use and whether the live range crosses a call site.
func (pm *pressureManager) AnalyzeBlock(b *ir.Block) {
	pm.lifetimes = make(map[string]*lifetime)
	pm.pos = 0

	record := func(key string, idx int, isDef bool) {
		lt, ok := pm.lifetimes[key]
		if !ok {
			lt = &lifetime{def: idx, lastUse: idx}
			pm.lifetimes[key] = lt
		}
		if isDef {
			lt.def = idx
			lt.defined = true
			return
		}
		lt.uses = append(lt.uses, idx)
		if idx > lt.lastUse {
			lt.lastUse = idx
		}
	}

	var calls []int
	for i, in := range b.Instrs {
		for _, v := range instrUses(&in) {
			if key, ok := valueKey(v); ok {
				record(key, i, false)
			}
		}
		if defines(&in) {
			record(tempKey(in.Result), i, true)
		}
		if in.Op == ir.OpCall {
			calls = append(calls, i)
		}
	}

	for _, lt := range pm.lifetimes {
		for _, c := range calls {
			if lt.def < c && c < lt.lastUse {
				lt.crossesCall = true
				break
			}
		}
	}
}

// SetPos advances the manager to the instruction being lowered.
func (pm *pressureManager) SetPos(i int) { pm.pos = i }

// nextUse returns the distance to the value's next use after the current
// position; dead values report a negative distance.
func (pm *pressureManager) nextUse(key string) int {
	lt, ok := pm.lifetimes[key]
	if !ok {
		return -1
	}
	for _, u := range lt.uses {
		if u > pm.pos {
			return u - pm.pos
		}
	}
	return -1
}

// pickVictim prefers dead values, then the live value with the furthest
// next use; among equals, values that cross a call go first (they will be
// spilled at the call anyway). Candidates arrive in LRU order, so ties
// resolve to least recently used.
func (pm *pressureManager) pickVictim(candidates []string) string {
	best := candidates[0]
	bestDist := pm.nextUse(best)
	if bestDist < 0 {
		return best
	}
	for _, c := range candidates[1:] {
		d := pm.nextUse(c)
		if d < 0 {
			return c
		}
		if d > bestDist {
			best, bestDist = c, d
			continue
		}
		if d == bestDist && pm.crossesCall(c) && !pm.crossesCall(best) {
			best = c
		}
	}
	return best
}

func (pm *pressureManager) crossesCall(key string) bool {
	lt, ok := pm.lifetimes[key]
	return ok && lt.crossesCall
}

// ValueRegister is the accessor lowering routines use: bound values keep
// their register, spilled values are reloaded, new values get a fresh
// register. Eviction, if needed, uses the lifetime-informed victim choice.
func (pm *pressureManager) ValueRegister(key string) (Register, error) {
	return pm.alloc.ReloadWithVictim(key, pm.pickVictim)
}

// Acquire hands out a register for a value being defined (no reload).
func (pm *pressureManager) Acquire(key string) (Register, error) {
	return pm.alloc.AcquireWithVictim(key, pm.pickVictim)
}

// BeforeCall evicts every live value. Conservative and mandatory: no
// general register survives a call.
func (pm *pressureManager) BeforeCall() error {
	pm.ReleaseDead()
	return pm.alloc.SpillAll()
}

// BlockEnd runs before a block's terminator: dead values are dropped and
// everything still live is spilled, so any successor block finds its
// inputs in memory regardless of which runtime path reaches it. Bindings
// are then cleared without further stores.
func (pm *pressureManager) BlockEnd() error {
	pm.ReleaseDead()
	if err := pm.alloc.SpillAll(); err != nil {
		return err
	}
	pm.alloc.clearBindings()
	return nil
}

// ReleaseDead frees registers of values whose last use is behind us. Only
// values defined in the current block (or recomputable allocas) are
// dropped: a parameter bound at entry has no definition to recover from.
func (pm *pressureManager) ReleaseDead() {
	for _, reg := range pm.alloc.lru.Snapshot() {
		key, ok := pm.alloc.bound[reg]
		if !ok || pm.alloc.pinned[key] {
			continue
		}
		lt, ok := pm.lifetimes[key]
		if !ok {
			continue
		}
		if !lt.defined && !pm.alloc.isAlloca(key) {
			continue
		}
		if lt.lastUse <= pm.pos {
			pm.alloc.Release(reg)
		}
	}
}

// InvalidateBlockLocal drops bindings that are only valid within one
// block: alloca addresses (recomputed from FP) and pointers whose bank is
// a dynamically computed value, since different predecessors may have
// produced different bank registers.
func (pm *pressureManager) InvalidateBlockLocal() {
	for _, reg := range pm.alloc.lru.Snapshot() {
		key, ok := pm.alloc.bound[reg]
		if !ok {
			continue
		}
		if pm.alloc.isAlloca(key) {
			pm.alloc.Release(reg)
			continue
		}
		if tag, ok := pm.alloc.BankOf(key); ok && tag.Kind == BankDynamic {
			pm.alloc.Release(reg)
		}
	}
}

// need estimates how many registers evaluating a value requires: nothing
// if it already sits in a register, one for a leaf, two for a fat pointer
// whose bank must be materialized alongside the address.
func (pm *pressureManager) need(v ir.Value) int {
	key, ok := valueKey(v)
	if !ok {
		return 1
	}
	if _, bound := pm.alloc.RegisterOf(key); bound {
		return 0
	}
	if tag, ok := pm.alloc.BankOf(key); ok && !tag.Static() {
		return 2
	}
	return 1
}

// evalLeftFirst orders binary operands Sethi-Ullman style: the operand
// with the higher register need is evaluated first; ties go left first.
func (pm *pressureManager) evalLeftFirst(lhs, rhs ir.Value) bool {
	return pm.need(rhs) <= pm.need(lhs)
}
