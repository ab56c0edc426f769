package ripple

import (
	"fmt"
	"io"
)

// AsmOp enumerates the machine and pseudo operations the backend emits.
type AsmOp int

const (
	opAdd AsmOp = iota
	opSub
	opMul
	opDiv
	opMod
	opAddI
	opSubI
	opMulI
	opDivI
	opModI
	opAnd
	opOr
	opXor
	opSll
	opSrl
	opSlt
	opSltu
	opLoad
	opStore
	opLi
	opJal
	opJalr
	opBeq
	opBne
	opBlt
	opBge
	opMove
	opLabel
	opComment
)

var opNames = map[AsmOp]string{
	opAdd: "ADD", opSub: "SUB", opMul: "MUL", opDiv: "DIV", opMod: "MOD",
	opAddI: "ADDI", opSubI: "SUBI", opMulI: "MULI", opDivI: "DIVI", opModI: "MODI",
	opAnd: "AND", opOr: "OR", opXor: "XOR", opSll: "SLL", opSrl: "SRL",
	opSlt: "SLT", opSltu: "SLTU",
	opLoad: "LOAD", opStore: "STORE", opLi: "LI",
	opJal: "JAL", opJalr: "JALR",
	opBeq: "BEQ", opBne: "BNE", opBlt: "BLT", opBge: "BGE",
	opMove: "MOVE",
}

// Inst is one emitted instruction. Branch and call targets are symbolic;
// the assembler resolves them.
type Inst struct {
	Op    AsmOp
	Rd    Register
	Rs1   Register
	Rs2   Register
	Imm   int
	Label string
	Text  string
}

// Register-register arithmetic and logic, 3-operand.
func InstAdd(rd, rs1, rs2 Register) Inst { return Inst{Op: opAdd, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstSub(rd, rs1, rs2 Register) Inst { return Inst{Op: opSub, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstMul(rd, rs1, rs2 Register) Inst { return Inst{Op: opMul, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstDiv(rd, rs1, rs2 Register) Inst { return Inst{Op: opDiv, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstMod(rd, rs1, rs2 Register) Inst { return Inst{Op: opMod, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstAnd(rd, rs1, rs2 Register) Inst { return Inst{Op: opAnd, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstOr(rd, rs1, rs2 Register) Inst { return Inst{Op: opOr, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstXor(rd, rs1, rs2 Register) Inst { return Inst{Op: opXor, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstSll(rd, rs1, rs2 Register) Inst { return Inst{Op: opSll, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstSrl(rd, rs1, rs2 Register) Inst { return Inst{Op: opSrl, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstSlt(rd, rs1, rs2 Register) Inst { return Inst{Op: opSlt, Rd: rd, Rs1: rs1, Rs2: rs2} }
func InstSltu(rd, rs1, rs2 Register) Inst { return Inst{Op: opSltu, Rd: rd, Rs1: rs1, Rs2: rs2} }

// Immediate forms carry a 16-bit immediate.
func InstAddI(rd, rs Register, imm int) Inst { return Inst{Op: opAddI, Rd: rd, Rs1: rs, Imm: imm} }
func InstSubI(rd, rs Register, imm int) Inst { return Inst{Op: opSubI, Rd: rd, Rs1: rs, Imm: imm} }
func InstMulI(rd, rs Register, imm int) Inst { return Inst{Op: opMulI, Rd: rd, Rs1: rs, Imm: imm} }
func InstDivI(rd, rs Register, imm int) Inst { return Inst{Op: opDivI, Rd: rd, Rs1: rs, Imm: imm} }
func InstModI(rd, rs Register, imm int) Inst { return Inst{Op: opModI, Rd: rd, Rs1: rs, Imm: imm} }

// Memory operations name an explicit bank register plus an address
// register. There is no implicit bank.
func InstLoad(rd, bank, addr Register) Inst { return Inst{Op: opLoad, Rd: rd, Rs1: bank, Rs2: addr} }
func InstStore(rs, bank, addr Register) Inst { return Inst{Op: opStore, Rd: rs, Rs1: bank, Rs2: addr} }

func InstLi(rd Register, imm int) Inst { return Inst{Op: opLi, Rd: rd, Imm: imm} }

// Control flow. Jal links into RA; Jalr jumps through a register pair.
func InstJal(label string) Inst { return Inst{Op: opJal, Rd: RA, Label: label} }
func InstJalr(rd, bank, addr Register) Inst { return Inst{Op: opJalr, Rd: rd, Rs1: bank, Rs2: addr} }
func InstBeq(rs1, rs2 Register, label string) Inst {
	return Inst{Op: opBeq, Rs1: rs1, Rs2: rs2, Label: label}
}
func InstBne(rs1, rs2 Register, label string) Inst {
	return Inst{Op: opBne, Rs1: rs1, Rs2: rs2, Label: label}
}
func InstBlt(rs1, rs2 Register, label string) Inst {
	return Inst{Op: opBlt, Rs1: rs1, Rs2: rs2, Label: label}
}
func InstBge(rs1, rs2 Register, label string) Inst {
	return Inst{Op: opBge, Rs1: rs1, Rs2: rs2, Label: label}
}

// InstJump is the unconditional form: the ISA has no dedicated jump, so it
// compares the zero register against itself.
func InstJump(label string) Inst { return InstBeq(R0, R0, label) }

func InstMove(rd, rs Register) Inst { return Inst{Op: opMove, Rd: rd, Rs1: rs} }
func InstLabel(name string) Inst { return Inst{Op: opLabel, Label: name} }
func InstComment(text string) Inst { return Inst{Op: opComment, Text: text} }

func (in Inst) String() string {
	switch in.Op {
	case opAdd, opSub, opMul, opDiv, opMod,
		opAnd, opOr, opXor, opSll, opSrl, opSlt, opSltu:
		return fmt.Sprintf("%s %s, %s, %s", opNames[in.Op], in.Rd, in.Rs1, in.Rs2)
	case opAddI, opSubI, opMulI, opDivI, opModI:
		return fmt.Sprintf("%s %s, %s, %d", opNames[in.Op], in.Rd, in.Rs1, in.Imm)
	case opLoad:
		return fmt.Sprintf("LOAD %s, %s, %s", in.Rd, in.Rs1, in.Rs2)
	case opStore:
		return fmt.Sprintf("STORE %s, %s, %s", in.Rd, in.Rs1, in.Rs2)
	case opLi:
		return fmt.Sprintf("LI %s, %d", in.Rd, in.Imm)
	case opJal:
		return fmt.Sprintf("JAL %s, %s", in.Rd, in.Label)
	case opJalr:
		return fmt.Sprintf("JALR %s, %s, %s", in.Rd, in.Rs1, in.Rs2)
	case opBeq, opBne, opBlt, opBge:
		return fmt.Sprintf("%s %s, %s, %s", opNames[in.Op], in.Rs1, in.Rs2, in.Label)
	case opMove:
		return fmt.Sprintf("MOVE %s, %s", in.Rd, in.Rs1)
	case opLabel:
		return in.Label + ":"
	case opComment:
		return "; " + in.Text
	}
	return "<invalid>"
}

// Program is the flat instruction sequence handed to the assembler.
type Program []Inst

// Format writes textual assembly, one instruction per line. Labels stand
// in column zero, everything else is indented.
func (p Program) Format(w io.Writer) error {
	for _, in := range p {
		var err error
		switch in.Op {
		case opLabel:
			_, err = fmt.Fprintf(w, "%s\n", in)
		default:
			_, err = fmt.Fprintf(w, "    %s\n", in)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
