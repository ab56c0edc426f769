package ripple

import "github.com/c0depwn/ripplec/ir"

// lowerBranchCond tests an already-computed 0/1 condition. The native
// branches compare registers, so a nonzero check against R0 does it.
func (fl *funcLowering) lowerBranchCond(in *ir.Instruction) error {
	creg, ckey, err := fl.valueReg(*in.Cond)
	if err != nil {
		return err
	}
	fl.emit(
		InstBne(creg, R0, blockLabel(fl.fn.Name, in.Target)),
		InstJump(blockLabel(fl.fn.Name, in.Else)),
	)
	fl.releaseIfScratch(ckey)
	return nil
}

// canFuse reports whether a comparison feeding the immediately following
// conditional branch can collapse into one native branch. Unsigned
// comparisons stay materialized: there are no unsigned branch forms.
func (fl *funcLowering) canFuse(cmp, br *ir.Instruction) bool {
	if cmp.Op != ir.OpBinary || br.Op != ir.OpBrCond {
		return false
	}
	switch cmp.BinOp {
	case ir.Eq, ir.Ne, ir.Lt, ir.Le, ir.Gt, ir.Ge:
	default:
		return false
	}
	if br.Cond == nil || br.Cond.Kind != ir.ValueTemp || br.Cond.Temp != cmp.Result {
		return false
	}
	return fl.useCount(cmp.Result) == 1
}

// useCount counts reads of a temp across the whole function. A block-local
// count would miss uses in later blocks and fuse away a value that is
// still needed.
func (fl *funcLowering) useCount(id ir.TempID) int {
	n := 0
	for bi := range fl.fn.Blocks {
		for ii := range fl.fn.Blocks[bi].Instrs {
			for _, v := range instrUses(&fl.fn.Blocks[bi].Instrs[ii]) {
				if v.Kind == ir.ValueTemp && v.Temp == id {
					n++
				}
			}
		}
	}
	return n
}

// lowerCompareBranch emits the fused form: the comparison's operands feed
// a native BEQ/BNE/BLT/BGE directly, with swapped operands standing in
// for the missing > and <= forms.
func (fl *funcLowering) lowerCompareBranch(cmp, br *ir.Instruction) error {
	lreg, rreg, lkey, rkey, err := fl.binaryOperands(*cmp.LHS, *cmp.RHS)
	if err != nil {
		return err
	}
	fl.unpin(lkey)
	fl.unpin(rkey)

	target := blockLabel(fl.fn.Name, br.Target)
	switch cmp.BinOp {
	case ir.Eq:
		fl.emit(InstBeq(lreg, rreg, target))
	case ir.Ne:
		fl.emit(InstBne(lreg, rreg, target))
	case ir.Lt:
		fl.emit(InstBlt(lreg, rreg, target))
	case ir.Ge:
		fl.emit(InstBge(lreg, rreg, target))
	case ir.Gt:
		fl.emit(InstBlt(rreg, lreg, target))
	case ir.Le:
		fl.emit(InstBge(rreg, lreg, target))
	}
	fl.emit(InstJump(blockLabel(fl.fn.Name, br.Else)))

	fl.releaseIfScratch(lkey)
	fl.releaseIfScratch(rkey)
	return nil
}
