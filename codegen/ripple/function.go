package ripple

import (
	"fmt"

	"github.com/c0depwn/ripplec/ir"
)

// funcLowering lowers one function. Allocator and pressure manager are
// fresh per instance; nothing is shared between functions.
//
// The body is lowered into a buffer first and the prologue is emitted
// afterwards: only then are the spill-slot count and the set of used
// callee-saved registers known.
type funcLowering struct {
	cfg   *Generator
	fn    *ir.Function
	body  Program
	alloc *allocator
	pm    *pressureManager
	names *nameGenerator

	localWords      int
	allocaOffsets   map[ir.TempID]int
	prologueEmitted bool
	epilogueEmitted bool
}

func newFuncLowering(cfg *Generator, fn *ir.Function) *funcLowering {
	fl := &funcLowering{
		cfg:           cfg,
		fn:            fn,
		names:         newNameGenerator(),
		allocaOffsets: make(map[ir.TempID]int),
	}
	fl.alloc = newAllocator(fn.Name, &fl.body, cfg.pool, cfg.bankSize, cfg.stackBank)
	fl.pm = newPressureManager(fl.alloc)
	return fl
}

func (fl *funcLowering) emit(insts ...Inst) {
	fl.body = append(fl.body, insts...)
}

// lower produces the function's complete instruction sequence. On error
// the partial output is discarded by the caller; nothing reaches the
// assembler.
func (fl *funcLowering) lower() (Program, error) {
	fl.computeAllocaOffsets()
	fl.alloc.setLocalWords(fl.localWords)
	// The prologue writes SB before the first stack access of the body.
	fl.alloc.markStackBankReady()

	if err := fl.bindParams(); err != nil {
		return nil, err
	}

	for bi := range fl.fn.Blocks {
		if err := fl.lowerBlock(&fl.fn.Blocks[bi]); err != nil {
			return nil, err
		}
	}

	if frame := framePrefixWords + fl.localWords + fl.alloc.SpillWords(); frame > fl.cfg.bankSize {
		return nil, &FrameOverflowError{Function: fl.fn.Name, Words: frame, Limit: fl.cfg.bankSize}
	}

	prologue := fl.emitPrologue()
	epilogue := fl.emitEpilogue()

	out := make(Program, 0, len(prologue)+len(fl.body)+len(epilogue)+1)
	out = append(out, InstLabel(fl.fn.Name))
	out = append(out, prologue...)
	out = append(out, fl.body...)
	out = append(out, epilogue...)
	return out, nil
}

func (fl *funcLowering) computeAllocaOffsets() {
	offset := 0
	for bi := range fl.fn.Blocks {
		for ii := range fl.fn.Blocks[bi].Instrs {
			in := &fl.fn.Blocks[bi].Instrs[ii]
			if in.Op != ir.OpAlloca {
				continue
			}
			words := in.Words
			if words == 0 {
				words = in.Type.ElemWords()
			}
			fl.allocaOffsets[in.Result] = offset
			offset += words
		}
	}
	fl.localWords = offset
}

// bindParams places the incoming parameters into allocated registers at
// the top of the body. Register parameters arrive in A0-A3 (a fat pointer
// takes two consecutive slots and never splits between registers and
// stack); the rest sit below the frame prefix at fixed FP offsets.
func (fl *funcLowering) bindParams() error {
	slot := 0
	stackWord := 0
	for _, p := range fl.fn.Params {
		key := paramKey(p.Name)
		words := 1
		if p.Type.IsPtr() {
			words = 2
		}
		if slot+words <= len(argumentRegisters) {
			reg, err := fl.pm.Acquire(key)
			if err != nil {
				return err
			}
			fl.emit(InstMove(reg, argumentRegisters[slot]))
			if p.Type.IsPtr() {
				bk := bankKey(key)
				breg, err := fl.pm.Acquire(bk)
				if err != nil {
					return err
				}
				fl.emit(InstMove(breg, argumentRegisters[slot+1]))
				fl.alloc.SetBank(key, DynamicBank(bk))
			}
			slot += words
			continue
		}
		// Stack parameter: first overflow word right below the prefix.
		offset := -(framePrefixWords + 1 + stackWord)
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return err
		}
		fl.emit(
			InstAddI(SC, FP, offset),
			InstLoad(reg, SB, SC),
		)
		if p.Type.IsPtr() {
			bk := bankKey(key)
			breg, err := fl.pm.Acquire(bk)
			if err != nil {
				return err
			}
			fl.emit(
				InstAddI(SC, FP, offset-1),
				InstLoad(breg, SB, SC),
			)
			fl.alloc.SetBank(key, DynamicBank(bk))
		}
		stackWord += words
	}
	return nil
}

func (fl *funcLowering) lowerBlock(b *ir.Block) error {
	fl.emit(InstLabel(blockLabel(fl.fn.Name, b.Name)))
	fl.pm.InvalidateBlockLocal()
	fl.pm.AnalyzeBlock(b)

	sawTerminator := false
	i := 0
	for i < len(b.Instrs) {
		in := &b.Instrs[i]
		fl.pm.SetPos(i)

		// A comparison consumed only by the branch right after it fuses
		// into a native conditional branch. The spill point sits before
		// the comparison so its operands are still live: they reach
		// memory and come back for the branch.
		if i+1 < len(b.Instrs) && fl.canFuse(in, &b.Instrs[i+1]) {
			fl.pm.SetPos(i - 1)
			if err := fl.pm.BlockEnd(); err != nil {
				return err
			}
			if err := fl.lowerCompareBranch(in, &b.Instrs[i+1]); err != nil {
				return err
			}
			fl.alloc.clearBindings()
			sawTerminator = true
			i += 2
			continue
		}

		switch in.Op {
		case ir.OpBr, ir.OpBrCond:
			// Live values must reach memory before control leaves the
			// block; the successor reloads them. The branch condition
			// counts as live here, so it is spilled rather than dropped
			// and the branch lowering reloads it.
			fl.pm.SetPos(i - 1)
			if err := fl.pm.BlockEnd(); err != nil {
				return err
			}
			if err := fl.lowerInstr(in); err != nil {
				return err
			}
			fl.alloc.clearBindings()
			sawTerminator = true
		case ir.OpRet:
			if err := fl.lowerInstr(in); err != nil {
				return err
			}
			fl.alloc.clearBindings()
			sawTerminator = true
		default:
			if err := fl.lowerInstr(in); err != nil {
				return err
			}
			fl.pm.ReleaseDead()
		}
		i++
	}
	if !sawTerminator {
		return fl.pm.BlockEnd()
	}
	return nil
}

func (fl *funcLowering) lowerInstr(in *ir.Instruction) error {
	switch in.Op {
	case ir.OpBinary:
		return fl.lowerBinary(in)
	case ir.OpUnary:
		return fl.lowerUnary(in)
	case ir.OpLoad:
		return fl.lowerLoad(in)
	case ir.OpStore:
		return fl.lowerStore(in)
	case ir.OpGep:
		return fl.lowerGep(in)
	case ir.OpAlloca:
		fl.alloc.registerAlloca(tempKey(in.Result), fl.allocaOffsets[in.Result])
		return nil
	case ir.OpCall:
		return fl.lowerCall(in)
	case ir.OpRet:
		return fl.lowerReturn(in)
	case ir.OpBr:
		fl.emit(InstJump(blockLabel(fl.fn.Name, in.Target)))
		return nil
	case ir.OpBrCond:
		return fl.lowerBranchCond(in)
	case ir.OpComment:
		fl.emit(InstComment(in.Text))
		return nil
	}
	return &UnlowerableInstructionError{
		Function: fl.fn.Name,
		Op:       string(in.Op),
		Reason:   "no lowering for this operation",
	}
}

// emitPrologue builds the frame on the upward-growing stack. The prefix
// layout below FP is fixed so parameter offsets stay constants: RA at
// FP-7, RAB at FP-6, old FP at FP-5, then the four callee-saved slots up
// to S3 at FP-1. Unused callee-saved slots are reserved but not stored.
func (fl *funcLowering) emitPrologue() Program {
	if fl.prologueEmitted {
		panic(fmt.Errorf("%s: prologue emitted twice", fl.fn.Name))
	}
	fl.prologueEmitted = true

	used := make(map[Register]bool)
	for _, r := range fl.alloc.UsedSaved() {
		used[r] = true
	}

	p := Program{
		InstComment("prologue " + fl.fn.Name),
		InstLi(SB, fl.cfg.stackBank),
		InstStore(RA, SB, SP),
		InstAddI(SP, SP, 1),
		InstStore(RAB, SB, SP),
		InstAddI(SP, SP, 1),
		InstStore(FP, SB, SP),
		InstAddI(SP, SP, 1),
	}
	for _, r := range []Register{S0, S1, S2, S3} {
		if used[r] {
			p = append(p, InstStore(r, SB, SP))
		}
		p = append(p, InstAddI(SP, SP, 1))
	}
	p = append(p, InstAdd(FP, SP, R0))
	if frame := fl.localWords + fl.alloc.SpillWords(); frame > 0 {
		p = append(p, InstAddI(SP, SP, frame))
	}
	return p
}

// emitEpilogue tears the frame down and returns. The caller's control
// bank comes back from RAB before the indirect jump; assuming PCB is
// unchanged would break after any bank-crossing call.
func (fl *funcLowering) emitEpilogue() Program {
	if fl.epilogueEmitted {
		panic(fmt.Errorf("%s: epilogue emitted twice", fl.fn.Name))
	}
	if !fl.prologueEmitted {
		panic(fmt.Errorf("%s: epilogue before prologue", fl.fn.Name))
	}
	fl.epilogueEmitted = true

	used := make(map[Register]bool)
	for _, r := range fl.alloc.UsedSaved() {
		used[r] = true
	}

	p := Program{
		InstLabel(epilogueLabel(fl.fn.Name)),
		InstComment("epilogue " + fl.fn.Name),
		InstAdd(SP, FP, R0),
	}
	saved := []Register{S3, S2, S1, S0}
	for i, r := range saved {
		if !used[r] {
			continue
		}
		p = append(p,
			InstAddI(SC, FP, -(i+1)),
			InstLoad(r, SB, SC),
		)
	}
	p = append(p,
		InstAddI(SP, SP, -5),
		InstLoad(FP, SB, SP),
		InstAddI(SP, SP, -1),
		InstLoad(RAB, SB, SP),
		InstAddI(SP, SP, -1),
		InstLoad(RA, SB, SP),
		InstAdd(PCB, RAB, R0),
		InstJalr(R0, R0, RA),
	)
	return p
}

// valueReg ensures an operand sits in a register and returns it with its
// allocator key. Constants are materialized into uniquely named scratch
// values the caller releases when done.
func (fl *funcLowering) valueReg(v ir.Value) (Register, string, error) {
	switch v.Kind {
	case ir.ValueTemp, ir.ValueParam:
		key, _ := valueKey(v)
		reg, err := fl.pm.ValueRegister(key)
		return reg, key, err
	case ir.ValueConst:
		key := fl.names.temp("const")
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return R0, "", err
		}
		fl.emit(InstLi(reg, int(v.Int)))
		return reg, key, nil
	case ir.ValueGlobal:
		key := globalKey(v.Sym)
		if reg, ok := fl.alloc.RegisterOf(key); ok {
			return reg, key, nil
		}
		offset, ok := fl.cfg.symbols[v.Sym]
		if !ok {
			return R0, "", &UnlowerableInstructionError{
				Function: fl.fn.Name,
				Op:       "global",
				Reason:   fmt.Sprintf("unknown symbol %q", v.Sym),
			}
		}
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return R0, "", err
		}
		fl.emit(InstLi(reg, fl.cfg.dataOffset+offset))
		fl.alloc.SetBank(key, GlobalBank())
		return reg, key, nil
	case ir.ValueUndef:
		key := fl.names.temp("undef")
		reg, err := fl.pm.Acquire(key)
		if err != nil {
			return R0, "", err
		}
		fl.emit(InstLi(reg, 0))
		return reg, key, nil
	}
	return R0, "", &UnlowerableInstructionError{
		Function: fl.fn.Name,
		Op:       "operand",
		Reason:   fmt.Sprintf("value kind %q has no register form", v.Kind),
	}
}

// release returns a value's register to the pool, if it still holds one.
func (fl *funcLowering) release(key string) {
	if reg, ok := fl.alloc.RegisterOf(key); ok {
		fl.alloc.Release(reg)
	}
}

func (fl *funcLowering) pin(key string) { fl.alloc.Pin(key) }
func (fl *funcLowering) unpin(key string) { fl.alloc.Unpin(key) }

// resultReg picks the destination for a binary result: the left operand's
// register is reused when the left value dies here, otherwise the result
// gets a fresh register.
func (fl *funcLowering) resultReg(result ir.TempID, lhsReg Register, lhsKey string) (Register, error) {
	key := tempKey(result)
	if lhsKey != "" {
		lt, ok := fl.pm.lifetimes[lhsKey]
		dead := !ok || lt.lastUse <= fl.pm.pos
		if dead {
			if reg, bound := fl.alloc.RegisterOf(lhsKey); bound && reg == lhsReg {
				fl.alloc.unbind(reg)
				fl.alloc.bind(reg, key)
				return reg, nil
			}
		}
	}
	return fl.pm.Acquire(key)
}
