package ripple

import "github.com/c0depwn/ripplec/ir"

// bankReg resolves the bank operand for a memory access through a pointer
// value. Dynamic banks come pinned; the returned key, if non-empty, must
// be unpinned by the caller.
func (fl *funcLowering) bankReg(ptrKey string) (Register, string, error) {
	tag, ok := fl.alloc.BankOf(ptrKey)
	if !ok {
		return R0, "", &MissingBankProvenanceError{Function: fl.fn.Name, Value: ptrKey}
	}
	switch tag.Kind {
	case BankGlobal:
		return GP, "", nil
	case BankStack:
		fl.alloc.ensureStackBank()
		return SB, "", nil
	case BankRegister:
		return tag.Reg, "", nil
	case BankDynamic:
		reg, err := fl.pm.ValueRegister(tag.Value)
		if err != nil {
			return R0, "", err
		}
		fl.pin(tag.Value)
		return reg, tag.Value, nil
	}
	return R0, "", &MissingBankProvenanceError{Function: fl.fn.Name, Value: ptrKey}
}

// bankNumberReg materializes a bank tag as a bank *number* in a register,
// for storing fat pointers and for GEP bank arithmetic. The returned key,
// if scratch, should be released by the caller.
func (fl *funcLowering) bankNumberReg(tag BankTag) (Register, string, error) {
	switch tag.Kind {
	case BankGlobal:
		key := fl.names.temp("bank")
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return R0, "", err
		}
		fl.emit(InstLi(reg, fl.cfg.globalBank))
		return reg, key, nil
	case BankStack:
		key := fl.names.temp("bank")
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return R0, "", err
		}
		fl.emit(InstLi(reg, fl.cfg.stackBank))
		return reg, key, nil
	case BankRegister:
		return tag.Reg, "", nil
	case BankDynamic:
		reg, err := fl.pm.ValueRegister(tag.Value)
		return reg, "", err
	}
	return R0, "", &MissingBankProvenanceError{Function: fl.fn.Name, Value: tag.String()}
}

// lowerLoad reads through a fat pointer. Loading a pointer-typed value
// reads two words: the address at addr and the bank at addr+1; the bank
// is tracked in the side-table so the pair stays glued together.
func (fl *funcLowering) lowerLoad(in *ir.Instruction) error {
	preg, pkey, err := fl.valueReg(*in.Ptr)
	if err != nil {
		return err
	}
	fl.pin(pkey)
	defer fl.unpin(pkey)

	bank, pinned, err := fl.bankReg(pkey)
	if err != nil {
		return err
	}
	if pinned != "" {
		defer fl.unpin(pinned)
	}

	resKey := tempKey(in.Result)
	rd, err := fl.pm.Acquire(resKey)
	if err != nil {
		return err
	}
	fl.emit(InstLoad(rd, bank, preg))

	if in.Type.IsPtr() {
		bk := bankKey(resKey)
		rb, err := fl.pm.Acquire(bk)
		if err != nil {
			return err
		}
		fl.emit(
			InstAddI(SC, preg, 1),
			InstLoad(rb, bank, SC),
		)
		fl.alloc.SetBank(resKey, DynamicBank(bk))
	}

	fl.releaseIfScratch(pkey)
	return nil
}

// lowerStore writes through a fat pointer. The ISA has no immediate store,
// so constants are materialized first. Storing a pointer-typed value
// writes both components, at addr and addr+1.
func (fl *funcLowering) lowerStore(in *ir.Instruction) error {
	vreg, vkey, err := fl.valueReg(*in.Val)
	if err != nil {
		return err
	}
	fl.pin(vkey)
	defer fl.unpin(vkey)

	preg, pkey, err := fl.valueReg(*in.Ptr)
	if err != nil {
		return err
	}
	fl.pin(pkey)
	defer fl.unpin(pkey)

	bank, pinned, err := fl.bankReg(pkey)
	if err != nil {
		return err
	}
	if pinned != "" {
		defer fl.unpin(pinned)
	}

	fl.emit(InstStore(vreg, bank, preg))

	// A value carrying a bank tag is a fat pointer: its bank number goes
	// to addr+1.
	if tag, fat := fl.alloc.BankOf(vkey); fat {
		bnum, scratch, err := fl.bankNumberReg(tag)
		if err != nil {
			return err
		}
		fl.emit(
			InstAddI(SC, preg, 1),
			InstStore(bnum, bank, SC),
		)
		fl.releaseIfScratch(scratch)
	}

	fl.releaseIfScratch(vkey)
	fl.releaseIfScratch(pkey)
	return nil
}

// releaseIfScratch frees registers of compiler-generated scratch values
// (materialized constants, bank numbers). Keys tracked by the lifetime
// pre-pass are left for ReleaseDead.
func (fl *funcLowering) releaseIfScratch(key string) {
	if key == "" {
		return
	}
	if _, tracked := fl.pm.lifetimes[key]; tracked {
		return
	}
	fl.release(key)
}
