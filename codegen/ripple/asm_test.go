package ripple

import (
	"bytes"
	"testing"
)

func TestInst_String(t *testing.T) {
	tests := []struct {
		in   Inst
		want string
	}{
		{InstAdd(T0, T1, T2), "ADD T0, T1, T2"},
		{InstAddI(SP, SP, -3), "ADDI SP, SP, -3"},
		{InstLoad(T0, SB, SC), "LOAD T0, SB, SC"},
		{InstStore(S1, GP, T3), "STORE S1, GP, T3"},
		{InstLi(A0, 42), "LI A0, 42"},
		{InstJal("main"), "JAL RA, main"},
		{InstJalr(R0, R0, RA), "JALR R0, R0, RA"},
		{InstBlt(T0, T1, "L1"), "BLT T0, T1, L1"},
		{InstJump("L2"), "BEQ R0, R0, L2"},
		{InstMove(RV0, S3), "MOVE RV0, S3"},
		{InstLabel("f"), "f:"},
		{InstComment("spill t1"), "; spill t1"},
	}
	for i, test := range tests {
		if got := test.in.String(); got != test.want {
			t.Fatalf("#%d: expected %q, got %q", i, test.want, got)
		}
	}
}

func TestProgram_Format(t *testing.T) {
	p := Program{
		InstLabel("f"),
		InstComment("prologue f"),
		InstLi(SB, 1),
		InstLabel("L_f_entry"),
		InstAdd(T0, T1, T2),
	}

	var buf bytes.Buffer
	if err := p.Format(&buf); err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := "f:\n    ; prologue f\n    LI SB, 1\nL_f_entry:\n    ADD T0, T1, T2\n"
	if got := buf.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRegister_Roles(t *testing.T) {
	if !S0.CalleeSaved() || T0.CalleeSaved() {
		t.Fatalf("saved registers are S0-S3, nothing else")
	}
	for _, r := range []Register{R0, PC, PCB, RA, RAB, RV0, RV1, A0, A3, X0, X3, SP, FP, GP, SB, SC} {
		if r.Allocatable() {
			t.Fatalf("%s must not be allocatable", r)
		}
	}
	for _, r := range allocatableRegisters {
		if !r.Allocatable() {
			t.Fatalf("%s in the pool but not allocatable", r)
		}
	}
}
