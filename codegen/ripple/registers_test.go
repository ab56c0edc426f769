package ripple

import (
	"errors"
	"fmt"
	"testing"
)

func TestAllocator_PreferenceOrder(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, nil, DefaultBankSize, 1)

	for i, want := range allocatableRegisters {
		got, err := a.Acquire(fmt.Sprintf("v%d", i))
		if err != nil {
			t.Fatalf("acquire v%d: %v", i, err)
		}
		if got != want {
			t.Fatalf("acquire #%d: expected %s, got %s", i, want, got)
		}
	}
}

func TestAllocator_ReleaseRestoresOrder(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, nil, DefaultBankSize, 1)

	r0, _ := a.Acquire("a")
	r1, _ := a.Acquire("b")
	r2, _ := a.Acquire("c")

	// Releasing out of order must not change which registers the next
	// requests receive: the free list keeps preference order.
	a.Release(r2)
	a.Release(r0)
	a.Release(r1)

	got, _ := a.Acquire("d")
	if got != r0 {
		t.Fatalf("expected %s after releasing all, got %s", r0, got)
	}
}

func TestAllocator_SameValueSameRegister(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, nil, DefaultBankSize, 1)

	first, _ := a.Acquire("x")
	second, _ := a.Acquire("x")
	if first != second {
		t.Fatalf("expected %s on repeat acquire, got %s", first, second)
	}
}

func TestAllocator_Exhausted(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3, S2}, DefaultBankSize, 1)

	a.Acquire("a")
	a.Acquire("b")
	a.Pin("a")
	a.Pin("b")

	_, err := a.Acquire("c")
	var exhausted *RegisterExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RegisterExhaustedError, got %v", err)
	}
	if exhausted.Value != "c" {
		t.Fatalf("expected failing value 'c', got %q", exhausted.Value)
	}

	// Unpinning makes eviction possible again.
	a.Unpin("a")
	if _, err := a.Acquire("c"); err != nil {
		t.Fatalf("acquire after unpin: %v", err)
	}
}

func TestAllocator_NoSpillWithinCapacity(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, nil, DefaultBankSize, 1)

	for i := range allocatableRegisters {
		if _, err := a.Acquire(fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("acquire v%d: %v", i, err)
		}
	}
	if len(prog) != 0 {
		t.Fatalf("filling the pool must not emit code, got %v", prog)
	}
	if got := a.SpillWords(); got != 0 {
		t.Fatalf("expected no spill slots, got %d", got)
	}
}

// Ten values on a seven register pool: the three least recently used
// values get spilled, each exactly once, and come back from their own
// slots in the order they are requested.
func TestAllocator_SpillReload(t *testing.T) {
	var prog Program
	pool := []Register{S3, S2, S1, S0, T7, T6, T5}
	a := newAllocator("f", &prog, pool, DefaultBankSize, 1)

	for i := 0; i < 10; i++ {
		if _, err := a.Acquire(fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("acquire v%d: %v", i, err)
		}
	}

	if got := a.SpillWords(); got != 3 {
		t.Fatalf("expected 3 spill slots, got %d", got)
	}
	for _, v := range []string{"v0", "v1", "v2"} {
		if _, bound := a.RegisterOf(v); bound {
			t.Fatalf("%s should have been evicted", v)
		}
	}
	if got := countOp(prog, opStore); got != 3 {
		t.Fatalf("expected 3 spill stores, got %d", got)
	}

	// Free the registers of values we no longer need, then reload the
	// spilled ones in next-use order.
	for _, v := range []string{"v7", "v8", "v9"} {
		reg, _ := a.RegisterOf(v)
		a.Release(reg)
	}
	mark := len(prog)
	for _, v := range []string{"v0", "v1", "v2"} {
		if _, err := a.Reload(v); err != nil {
			t.Fatalf("reload %s: %v", v, err)
		}
	}

	tail := prog[mark:]
	if got := countOp(tail, opStore); got != 0 {
		t.Fatalf("reloads must not spill, got %d stores", got)
	}
	if got := countOp(tail, opLoad); got != 3 {
		t.Fatalf("expected 3 reload loads, got %d", got)
	}

	// Each reload addresses its value's own slot: offsets 0, 1, 2.
	var offsets []int
	for _, in := range tail {
		if in.Op == opAddI && in.Rd == SC && in.Rs1 == FP {
			offsets = append(offsets, in.Imm)
		}
	}
	want := []int{0, 1, 2}
	if len(offsets) != len(want) {
		t.Fatalf("expected %d slot addresses, got %d", len(want), len(offsets))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("reload #%d: expected slot offset %d, got %d", i, want[i], offsets[i])
		}
	}
}

func TestAllocator_SlotReusedPerValue(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3, S2}, DefaultBankSize, 1)

	a.Acquire("a")
	if err := a.spillValue("a"); err != nil {
		t.Fatalf("first spill: %v", err)
	}
	a.Reload("a")
	if err := a.spillValue("a"); err != nil {
		t.Fatalf("second spill: %v", err)
	}

	if got := a.SpillWords(); got != 1 {
		t.Fatalf("expected a single slot for a single value, got %d", got)
	}
}

func TestAllocator_StackBankInitOnce(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3, S2}, DefaultBankSize, 7)

	a.Acquire("a")
	a.spillValue("a")
	a.Reload("a")
	a.spillValue("a")

	inits := 0
	for _, in := range prog {
		if in.Op == opLi && in.Rd == SB {
			if in.Imm != 7 {
				t.Fatalf("expected stack bank 7, got %d", in.Imm)
			}
			inits++
		}
	}
	if inits != 1 {
		t.Fatalf("expected exactly one SB initialization, got %d", inits)
	}
}

func TestAllocator_AllocaNeverStored(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3}, DefaultBankSize, 1)
	a.setLocalWords(8)
	a.registerAlloca("arr", 4)

	reg, err := a.Reload("arr")
	if err != nil {
		t.Fatalf("reload alloca: %v", err)
	}
	// The address is recomputed from FP, not loaded.
	last := prog[len(prog)-1]
	if last.Op != opAddI || last.Rd != reg || last.Rs1 != FP || last.Imm != 4 {
		t.Fatalf("expected ADDI %s, FP, 4, got %s", reg, last)
	}

	mark := len(prog)
	if err := a.spillValue("arr"); err != nil {
		t.Fatalf("spill alloca: %v", err)
	}
	if len(prog) != mark {
		t.Fatalf("evicting an alloca must not emit code")
	}
	if got := a.SpillWords(); got != 0 {
		t.Fatalf("alloca must not consume a spill slot, got %d", got)
	}
}

func TestAllocator_UsedSaved(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3, T7, S0}, DefaultBankSize, 1)

	a.Acquire("a") // S3
	a.Acquire("b") // T7
	a.Acquire("c") // S0

	got := a.UsedSaved()
	want := []Register{S0, S3}
	if len(got) != len(want) {
		t.Fatalf("expected %d saved registers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("saved #%d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestAllocator_FrameOverflow(t *testing.T) {
	var prog Program
	a := newAllocator("f", &prog, []Register{S3, S2}, 16, 1)
	a.setLocalWords(8)

	// 7 prefix + 8 locals + 2 slots > 16.
	a.Acquire("a")
	a.Acquire("b")
	if err := a.spillValue("a"); err != nil {
		t.Fatalf("first slot still fits: %v", err)
	}
	err := a.spillValue("b")
	var overflow *FrameOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("expected FrameOverflowError, got %v", err)
	}
	if overflow.Limit != 16 {
		t.Fatalf("expected limit 16, got %d", overflow.Limit)
	}
}

func countOp(p Program, op AsmOp) int {
	n := 0
	for _, in := range p {
		if in.Op == op {
			n++
		}
	}
	return n
}
