package ripple

import "github.com/c0depwn/ripplec/ir"

// lowerCompare produces a 0/1 result. Only SLT and SLTU exist natively;
// everything else is built from them:
//
//	a == b   xor then "unsigned less than 1"
//	a != b   xor then "zero unsigned-less-than it"
//	a <= b   1 - (b < a), and mirrored for >=
//	a > b    b < a with operands swapped
func (fl *funcLowering) lowerCompare(in *ir.Instruction) error {
	lreg, rreg, lkey, rkey, err := fl.binaryOperands(*in.LHS, *in.RHS)
	if err != nil {
		return err
	}
	defer fl.unpin(lkey)
	defer fl.unpin(rkey)

	rd, err := fl.resultReg(in.Result, lreg, lkey)
	if err != nil {
		return err
	}
	resKey := tempKey(in.Result)
	fl.pin(resKey)
	defer fl.unpin(resKey)

	// 1 - x flips an SLT result; the constant lives in a scratch register
	// for the two instructions that need it.
	flipped := func(cmp Inst) error {
		key := fl.names.temp("const")
		one, err := fl.pm.Acquire(key)
		if err != nil {
			return err
		}
		fl.emit(
			cmp,
			InstLi(one, 1),
			InstSub(rd, one, rd),
		)
		fl.release(key)
		return nil
	}

	switch in.BinOp {
	case ir.Eq:
		key := fl.names.temp("const")
		one, aerr := fl.pm.Acquire(key)
		if aerr != nil {
			return aerr
		}
		fl.emit(
			InstXor(rd, lreg, rreg),
			InstLi(one, 1),
			InstSltu(rd, rd, one),
		)
		fl.release(key)
	case ir.Ne:
		fl.emit(
			InstXor(rd, lreg, rreg),
			InstSltu(rd, R0, rd),
		)
	case ir.Lt:
		fl.emit(InstSlt(rd, lreg, rreg))
	case ir.ULt:
		fl.emit(InstSltu(rd, lreg, rreg))
	case ir.Gt:
		fl.emit(InstSlt(rd, rreg, lreg))
	case ir.UGt:
		fl.emit(InstSltu(rd, rreg, lreg))
	case ir.Le:
		err = flipped(InstSlt(rd, rreg, lreg))
	case ir.ULe:
		err = flipped(InstSltu(rd, rreg, lreg))
	case ir.Ge:
		err = flipped(InstSlt(rd, lreg, rreg))
	case ir.UGe:
		err = flipped(InstSltu(rd, lreg, rreg))
	}
	if err != nil {
		return err
	}

	fl.releaseIfScratch(lkey)
	fl.releaseIfScratch(rkey)
	return nil
}
