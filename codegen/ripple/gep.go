package ripple

import "github.com/c0depwn/ripplec/ir"

// lowerGep computes element addresses. Offsets known at compile time are
// folded into a bank delta and a residual; only the residual costs an
// instruction. Runtime indices pay for the full split: scale, add, then
// divide and take the remainder by the bank size, because the sum may
// have crossed one or more bank boundaries.
//
// The output is a legal input pointer to the next GEP, so chained
// indexing composes.
func (fl *funcLowering) lowerGep(in *ir.Instruction) error {
	stride := in.Type.ElemWords()

	preg, pkey, err := fl.valueReg(*in.Ptr)
	if err != nil {
		return err
	}
	fl.pin(pkey)
	defer fl.unpin(pkey)

	baseTag, ok := fl.alloc.BankOf(pkey)
	if !ok {
		return &MissingBankProvenanceError{Function: fl.fn.Name, Value: pkey}
	}

	if in.Index.IsConst() {
		return fl.lowerGepStatic(in, preg, pkey, baseTag, stride)
	}
	return fl.lowerGepDynamic(in, preg, baseTag, stride)
}

func (fl *funcLowering) lowerGepStatic(in *ir.Instruction, preg Register, pkey string, baseTag BankTag, stride int) error {
	total := int(in.Index.Int) * stride
	delta := total / fl.cfg.bankSize
	residual := total % fl.cfg.bankSize

	resKey := tempKey(in.Result)
	rd, err := fl.resultReg(in.Result, preg, pkey)
	if err != nil {
		return err
	}
	fl.emit(InstAddI(rd, preg, residual))

	if delta == 0 {
		// Same bank as the base; the tag is copied, never recomputed.
		fl.alloc.SetBank(resKey, baseTag)
		return nil
	}

	bnum, scratch, err := fl.bankNumberReg(baseTag)
	if err != nil {
		return err
	}
	bk := bankKey(resKey)
	nb, err := fl.pm.Acquire(bk)
	if err != nil {
		return err
	}
	fl.emit(InstAddI(nb, bnum, delta))
	fl.alloc.SetBank(resKey, DynamicBank(bk))
	fl.releaseIfScratch(scratch)
	return nil
}

func (fl *funcLowering) lowerGepDynamic(in *ir.Instruction, preg Register, baseTag BankTag, stride int) error {
	ireg, ikey, err := fl.valueReg(*in.Index)
	if err != nil {
		return err
	}
	fl.pin(ikey)
	defer fl.unpin(ikey)

	// Scale the index by the element stride.
	scaled := ireg
	scaledKey := ""
	switch {
	case stride == 1:
	case stride&(stride-1) == 0:
		shiftKey := fl.names.temp("gep_shift")
		sh, err := fl.pm.Acquire(shiftKey)
		if err != nil {
			return err
		}
		fl.emit(InstLi(sh, log2(stride)))
		scaledKey = fl.names.temp("gep_scaled")
		sreg, err := fl.pm.Acquire(scaledKey)
		if err != nil {
			return err
		}
		fl.emit(InstSll(sreg, ireg, sh))
		fl.release(shiftKey)
		scaled = sreg
	default:
		scaledKey = fl.names.temp("gep_scaled")
		sreg, err := fl.pm.Acquire(scaledKey)
		if err != nil {
			return err
		}
		fl.emit(InstMulI(sreg, ireg, stride))
		scaled = sreg
	}
	if scaledKey != "" {
		fl.pin(scaledKey)
	}

	// total = base address + scaled index, then split by the bank size.
	totalKey := fl.names.temp("gep_total")
	treg, err := fl.pm.Acquire(totalKey)
	if err != nil {
		return err
	}
	fl.emit(InstAdd(treg, preg, scaled))
	if scaledKey != "" {
		fl.unpin(scaledKey)
		fl.release(scaledKey)
	}
	fl.pin(totalKey)

	deltaKey := fl.names.temp("gep_delta")
	dreg, err := fl.pm.Acquire(deltaKey)
	if err != nil {
		return err
	}
	fl.emit(InstDivI(dreg, treg, fl.cfg.bankSize))
	fl.pin(deltaKey)

	resKey := tempKey(in.Result)
	rd, err := fl.pm.Acquire(resKey)
	if err != nil {
		return err
	}
	fl.emit(InstModI(rd, treg, fl.cfg.bankSize))
	fl.unpin(totalKey)
	fl.release(totalKey)

	// New bank = base bank + delta; bank deltas are relative.
	bnum, scratch, err := fl.bankNumberReg(baseTag)
	if err != nil {
		return err
	}
	bk := bankKey(resKey)
	nb, err := fl.pm.Acquire(bk)
	if err != nil {
		return err
	}
	fl.emit(InstAdd(nb, bnum, dreg))
	fl.alloc.SetBank(resKey, DynamicBank(bk))

	fl.unpin(deltaKey)
	fl.release(deltaKey)
	fl.releaseIfScratch(scratch)
	fl.releaseIfScratch(ikey)
	return nil
}

func log2(n int) int {
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}
