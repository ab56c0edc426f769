package ripple

import (
	"testing"

	"github.com/c0depwn/ripplec/ir"
)

func cmpFn(op ir.BinaryOp) *ir.Module {
	return &ir.Module{Functions: []ir.Function{
		wordFn("f", wordParams("a", "b"), ir.Word(),
			ir.Instruction{Op: ir.OpBinary, Result: 1, BinOp: op, LHS: vp(ir.ParamRef("a")), RHS: vp(ir.ParamRef("b"))},
			ir.Instruction{Op: ir.OpRet, Val: vp(ir.Temp(1))},
		),
	}}
}

func TestCompare_Equal(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.Eq)), "L_f_entry")

	// xor collapses equality to zero, then "unsigned less than 1" turns
	// zero into one and anything else into zero.
	want := Program{
		InstXor(S3, S3, S2),
		InstLi(S1, 1),
		InstSltu(S3, S3, S1),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func TestCompare_NotEqual(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.Ne)), "L_f_entry")

	want := Program{
		InstXor(S3, S3, S2),
		InstSltu(S3, R0, S3),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func TestCompare_LessThan(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.Lt)), "L_f_entry")

	want := Program{
		InstSlt(S3, S3, S2),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func TestCompare_GreaterThan(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.Gt)), "L_f_entry")

	// a > b is b < a.
	want := Program{
		InstSlt(S3, S2, S3),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func TestCompare_LessEqual(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.Le)), "L_f_entry")

	// a <= b is 1 - (b < a).
	want := Program{
		InstSlt(S3, S2, S3),
		InstLi(S1, 1),
		InstSub(S3, S1, S3),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func TestCompare_UnsignedLessThan(t *testing.T) {
	body := blockBody(t, mustGenerate(t, cmpFn(ir.ULt)), "L_f_entry")

	want := Program{
		InstSltu(S3, S3, S2),
		InstMove(RV0, S3),
		InstJump("L_f_epilogue"),
	}
	assertProgram(t, body, want)
}

func branchFn(op ir.BinaryOp) *ir.Module {
	return &ir.Module{Functions: []ir.Function{
		{
			Name:   "f",
			Params: wordParams("a", "b"),
			Result: ir.Word(),
			Blocks: []ir.Block{
				{Name: "entry", Instrs: []ir.Instruction{
					{Op: ir.OpBinary, Result: 1, BinOp: op, LHS: vp(ir.ParamRef("a")), RHS: vp(ir.ParamRef("b"))},
					{Op: ir.OpBrCond, Cond: vp(ir.Temp(1)), Target: "then", Else: "other"},
				}},
				{Name: "then", Instrs: []ir.Instruction{
					{Op: ir.OpRet, Val: vp(ir.Int(1))},
				}},
				{Name: "other", Instrs: []ir.Instruction{
					{Op: ir.OpRet, Val: vp(ir.Int(2))},
				}},
			},
		},
	}}
}

func TestBranch_FusedSigned(t *testing.T) {
	prog := mustGenerate(t, branchFn(ir.Lt))

	// The comparison feeds the branch and nothing else: no materialized
	// 0/1 value, one native conditional branch.
	if got := countOp(prog, opSlt); got != 0 {
		t.Fatalf("fused branch must not materialize the comparison, found %d SLT", got)
	}

	sawCond := false
	for i, in := range prog {
		if in.Op == opBlt && in.Label == "L_f_then" {
			sawCond = true
			next := prog[i+1]
			if next.Op != opBeq || next.Rs1 != R0 || next.Rs2 != R0 || next.Label != "L_f_other" {
				t.Fatalf("fused branch must fall to the else target, got %s", next)
			}
		}
	}
	if !sawCond {
		t.Fatalf("expected BLT to L_f_then")
	}
}

func TestBranch_SwappedForms(t *testing.T) {
	// > and <= have no native branch; the operands swap instead.
	if got := countOp(mustGenerate(t, branchFn(ir.Gt)), opBlt); got != 1 {
		t.Fatalf("a > b should branch with BLT b, a; found %d BLT", got)
	}
	if got := countOp(mustGenerate(t, branchFn(ir.Le)), opBge); got != 1 {
		t.Fatalf("a <= b should branch with BGE b, a; found %d BGE", got)
	}
}

func TestBranch_UnsignedNotFused(t *testing.T) {
	prog := mustGenerate(t, branchFn(ir.ULt))

	// No unsigned branch form exists: the comparison materializes and a
	// nonzero test does the branching.
	if got := countOp(prog, opSltu); got != 1 {
		t.Fatalf("expected the comparison materialized once, got %d SLTU", got)
	}
	sawTest := false
	for _, in := range prog {
		if in.Op == opBne && in.Rs2 == R0 && in.Label == "L_f_then" {
			sawTest = true
		}
	}
	if !sawTest {
		t.Fatalf("expected BNE cond, R0 to the then target")
	}
}

func TestBranch_ReusedConditionNotFused(t *testing.T) {
	// The comparison result is also returned later, so it must exist as
	// a value and cannot collapse into the branch.
	m := &ir.Module{Functions: []ir.Function{
		{
			Name:   "f",
			Params: wordParams("a", "b"),
			Result: ir.Word(),
			Blocks: []ir.Block{
				{Name: "entry", Instrs: []ir.Instruction{
					{Op: ir.OpBinary, Result: 1, BinOp: ir.Lt, LHS: vp(ir.ParamRef("a")), RHS: vp(ir.ParamRef("b"))},
					{Op: ir.OpBrCond, Cond: vp(ir.Temp(1)), Target: "then", Else: "other"},
				}},
				{Name: "then", Instrs: []ir.Instruction{
					{Op: ir.OpRet, Val: vp(ir.Temp(1))},
				}},
				{Name: "other", Instrs: []ir.Instruction{
					{Op: ir.OpRet, Val: vp(ir.Int(0))},
				}},
			},
		},
	}}

	prog := mustGenerate(t, m)
	if got := countOp(prog, opSlt); got != 1 {
		t.Fatalf("reused condition must be materialized, got %d SLT", got)
	}
}
