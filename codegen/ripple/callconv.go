package ripple

import "github.com/c0depwn/ripplec/ir"

// argPlacement records where one argument travels: a register slot or the
// stack. A fat pointer occupies two consecutive register slots or two
// stack words; it is never split between the two.
type argPlacement struct {
	val  ir.Value
	fat  bool
	slot int // first A-register slot, -1 for stack
}

// placeArgs assigns argument positions left to right. Once an argument
// overflows to the stack, everything after it goes to the stack too, so
// stack words stay in parameter order.
func (fl *funcLowering) placeArgs(args []ir.Value) []argPlacement {
	out := make([]argPlacement, 0, len(args))
	slot := 0
	overflowed := false
	for _, a := range args {
		fat := fl.isFatValue(a)
		words := 1
		if fat {
			words = 2
		}
		if !overflowed && slot+words <= len(argumentRegisters) {
			out = append(out, argPlacement{val: a, fat: fat, slot: slot})
			slot += words
			continue
		}
		overflowed = true
		out = append(out, argPlacement{val: a, fat: fat, slot: -1})
	}
	return out
}

func (fl *funcLowering) isFatValue(v ir.Value) bool {
	key, ok := valueKey(v)
	if !ok {
		return false
	}
	_, fat := fl.alloc.BankOf(key)
	return fat
}

// lowerCall: every live value is spilled first (all general registers are
// caller-saved), stack arguments go up in reverse so the first overflow
// argument ends nearest the callee's frame, register arguments fill
// A0-A3, and a callee in another code bank gets PCB set right before the
// JAL. The caller pops its own overflow words afterwards.
func (fl *funcLowering) lowerCall(in *ir.Instruction) error {
	if in.Callee == nil || in.Callee.Kind != ir.ValueFunction {
		return &UnlowerableInstructionError{
			Function: fl.fn.Name,
			Op:       string(ir.OpCall),
			Reason:   "only direct calls to named functions are supported",
		}
	}
	callee := in.Callee.Sym

	placed := fl.placeArgs(in.Args)

	if err := fl.pm.BeforeCall(); err != nil {
		return err
	}

	// Push overflow words, last argument first. Within a fat pointer the
	// bank goes first so the address ends on top, right below the frame.
	pushed := 0
	for i := len(placed) - 1; i >= 0; i-- {
		p := placed[i]
		if p.slot >= 0 {
			continue
		}
		if p.fat {
			key, _ := valueKey(p.val)
			tag, _ := fl.alloc.BankOf(key)
			bnum, scratch, err := fl.bankNumberReg(tag)
			if err != nil {
				return err
			}
			fl.emit(
				InstStore(bnum, SB, SP),
				InstAddI(SP, SP, 1),
			)
			fl.releaseIfScratch(scratch)
			pushed++
		}
		vreg, vkey, err := fl.valueReg(p.val)
		if err != nil {
			return err
		}
		fl.emit(
			InstStore(vreg, SB, SP),
			InstAddI(SP, SP, 1),
		)
		fl.release(vkey)
		pushed++
	}

	// Fill argument registers in order.
	for _, p := range placed {
		if p.slot < 0 {
			continue
		}
		vreg, vkey, err := fl.valueReg(p.val)
		if err != nil {
			return err
		}
		fl.emit(InstMove(argumentRegisters[p.slot], vreg))
		if p.fat {
			key, _ := valueKey(p.val)
			tag, _ := fl.alloc.BankOf(key)
			bnum, scratch, err := fl.bankNumberReg(tag)
			if err != nil {
				return err
			}
			fl.emit(InstMove(argumentRegisters[p.slot+1], bnum))
			fl.releaseIfScratch(scratch)
		}
		fl.release(vkey)
	}

	if bank, ok := fl.cfg.banks[callee]; ok && bank != fl.fn.Bank {
		fl.emit(InstLi(PCB, bank))
	}
	fl.emit(InstJal(callee))

	// Nothing survives the call: the callee may have used every general
	// register. Spill slots still hold the live values.
	fl.alloc.clearBindings()

	if pushed > 0 {
		fl.emit(InstAddI(SP, SP, -pushed))
	}

	if !in.Type.IsVoid() {
		resKey := tempKey(in.Result)
		rd, err := fl.pm.Acquire(resKey)
		if err != nil {
			return err
		}
		fl.emit(InstMove(rd, RV0))
		if in.Type.IsPtr() {
			bk := bankKey(resKey)
			rb, err := fl.pm.Acquire(bk)
			if err != nil {
				return err
			}
			fl.emit(InstMove(rb, RV1))
			fl.alloc.SetBank(resKey, DynamicBank(bk))
		}
	}
	return nil
}

// lowerReturn places the result: a scalar in RV0, a fat pointer across
// RV0 and RV1 as one unit. Control then joins the common epilogue.
func (fl *funcLowering) lowerReturn(in *ir.Instruction) error {
	if in.Val != nil {
		vreg, vkey, err := fl.valueReg(*in.Val)
		if err != nil {
			return err
		}
		fl.emit(InstMove(RV0, vreg))
		if tag, fat := fl.alloc.BankOf(vkey); fat {
			fl.pin(vkey)
			bnum, scratch, err := fl.bankNumberReg(tag)
			fl.unpin(vkey)
			if err != nil {
				return err
			}
			fl.emit(InstMove(RV1, bnum))
			fl.releaseIfScratch(scratch)
		}
		fl.releaseIfScratch(vkey)
	}
	fl.emit(InstJump(epilogueLabel(fl.fn.Name)))
	return nil
}
