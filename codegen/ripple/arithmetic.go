package ripple

import "github.com/c0depwn/ripplec/ir"

var regOps = map[ir.BinaryOp]func(rd, rs1, rs2 Register) Inst{
	ir.Add: InstAdd,
	ir.Sub: InstSub,
	ir.Mul: InstMul,
	ir.Div: InstDiv,
	ir.Mod: InstMod,
	ir.And: InstAnd,
	ir.Or:  InstOr,
	ir.Xor: InstXor,
	ir.Shl: InstSll,
	ir.Shr: InstSrl,
}

var immOps = map[ir.BinaryOp]func(rd, rs Register, imm int) Inst{
	ir.Add: InstAddI,
	ir.Sub: InstSubI,
	ir.Mul: InstMulI,
	ir.Div: InstDivI,
	ir.Mod: InstModI,
}

func fitsImm(v int64) bool { return v >= -32768 && v <= 32767 }

func (fl *funcLowering) lowerBinary(in *ir.Instruction) error {
	if in.BinOp.IsComparison() {
		return fl.lowerCompare(in)
	}

	lhs, rhs := *in.LHS, *in.RHS

	// Constants on the left of a commutative op move right so the
	// immediate form applies.
	if _, hasImm := immOps[in.BinOp]; hasImm && in.BinOp.IsCommutative() &&
		lhs.IsConst() && !rhs.IsConst() && fitsImm(lhs.Int) {
		lhs, rhs = rhs, lhs
	}

	if mk, ok := immOps[in.BinOp]; ok && rhs.IsConst() && fitsImm(rhs.Int) && !lhs.IsConst() {
		lreg, lkey, err := fl.valueReg(lhs)
		if err != nil {
			return err
		}
		fl.pin(lkey)
		rd, err := fl.resultReg(in.Result, lreg, lkey)
		fl.unpin(lkey)
		if err != nil {
			return err
		}
		fl.emit(mk(rd, lreg, int(rhs.Int)))
		fl.releaseIfScratch(lkey)
		return nil
	}

	lreg, rreg, lkey, rkey, err := fl.binaryOperands(lhs, rhs)
	if err != nil {
		return err
	}
	rd, err := fl.resultReg(in.Result, lreg, lkey)
	fl.unpin(lkey)
	fl.unpin(rkey)
	if err != nil {
		return err
	}
	fl.emit(regOps[in.BinOp](rd, lreg, rreg))
	fl.releaseIfScratch(lkey)
	fl.releaseIfScratch(rkey)
	return nil
}

// binaryOperands brings both operands into pinned registers, evaluating
// the operand with the higher register need first so fewer temporaries
// are live at the peak.
func (fl *funcLowering) binaryOperands(lhs, rhs ir.Value) (lreg, rreg Register, lkey, rkey string, err error) {
	if fl.pm.evalLeftFirst(lhs, rhs) {
		lreg, lkey, err = fl.valueReg(lhs)
		if err != nil {
			return
		}
		fl.pin(lkey)
		rreg, rkey, err = fl.valueReg(rhs)
		if err != nil {
			fl.unpin(lkey)
			return
		}
		fl.pin(rkey)
		return
	}
	rreg, rkey, err = fl.valueReg(rhs)
	if err != nil {
		return
	}
	fl.pin(rkey)
	lreg, lkey, err = fl.valueReg(lhs)
	if err != nil {
		fl.unpin(rkey)
		return
	}
	fl.pin(lkey)
	return
}

// lowerUnary expresses unary ops through the binary instruction set:
// negation subtracts from the zero register, complement xors with -1.
func (fl *funcLowering) lowerUnary(in *ir.Instruction) error {
	oreg, okey, err := fl.valueReg(*in.LHS)
	if err != nil {
		return err
	}
	fl.pin(okey)
	defer fl.unpin(okey)
	rd, err := fl.resultReg(in.Result, oreg, okey)
	if err != nil {
		return err
	}
	resKey := tempKey(in.Result)
	fl.pin(resKey)
	defer fl.unpin(resKey)

	switch in.UnOp {
	case ir.Neg:
		fl.emit(InstSub(rd, R0, oreg))
	case ir.Not:
		mkey := fl.names.temp("const")
		mreg, err := fl.pm.Acquire(mkey)
		if err != nil {
			return err
		}
		fl.emit(
			InstLi(mreg, -1),
			InstXor(rd, oreg, mreg),
		)
		fl.release(mkey)
	default:
		return &UnlowerableInstructionError{
			Function: fl.fn.Name,
			Op:       string(in.UnOp),
			Reason:   "unknown unary operation",
		}
	}
	fl.releaseIfScratch(okey)
	return nil
}
