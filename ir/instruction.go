package ir

import (
	"fmt"
	"strings"
)

type Op string

const (
	OpBinary  Op = "binary"
	OpUnary   Op = "unary"
	OpLoad    Op = "load"
	OpStore   Op = "store"
	OpGep     Op = "gep"
	OpAlloca  Op = "alloca"
	OpCall    Op = "call"
	OpRet     Op = "ret"
	OpBr      Op = "br"
	OpBrCond  Op = "brcond"
	OpComment Op = "comment"
)

type BinaryOp string

const (
	Add BinaryOp = "add"
	Sub BinaryOp = "sub"
	Mul BinaryOp = "mul"
	Div BinaryOp = "div"
	Mod BinaryOp = "mod"
	And BinaryOp = "and"
	Or  BinaryOp = "or"
	Xor BinaryOp = "xor"
	Shl BinaryOp = "shl"
	Shr BinaryOp = "shr"
	Eq  BinaryOp = "eq"
	Ne  BinaryOp = "ne"
	Lt  BinaryOp = "lt"
	Le  BinaryOp = "le"
	Gt  BinaryOp = "gt"
	Ge  BinaryOp = "ge"
	ULt BinaryOp = "ult"
	ULe BinaryOp = "ule"
	UGt BinaryOp = "ugt"
	UGe BinaryOp = "uge"
)

// IsComparison reports whether the op produces a 0/1 boolean result.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge, ULt, ULe, UGt, UGe:
		return true
	}
	return false
}

// IsCommutative reports whether operands may be swapped freely.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case Add, Mul, And, Or, Xor, Eq, Ne:
		return true
	}
	return false
}

type UnaryOp string

const (
	Neg UnaryOp = "neg"
	Not UnaryOp = "not"
)

// Instruction is a single typed IR operation. The populated fields depend
// on Op; unused fields stay at their zero value and are omitted from the
// serialized form.
type Instruction struct {
	Op Op `json:"op"`

	Result TempID   `json:"result,omitempty"`
	BinOp  BinaryOp `json:"binop,omitempty"`
	UnOp   UnaryOp  `json:"unop,omitempty"`
	LHS    *Value   `json:"lhs,omitempty"`
	RHS    *Value   `json:"rhs,omitempty"`

	Ptr   *Value  `json:"ptr,omitempty"`
	Val   *Value  `json:"val,omitempty"`
	Index *Value  `json:"index,omitempty"`
	Type  Type    `json:"type,omitempty"`
	Words int     `json:"words,omitempty"`

	Callee *Value  `json:"callee,omitempty"`
	Args   []Value `json:"args,omitempty"`

	Target string `json:"target,omitempty"`
	Else   string `json:"else,omitempty"`
	Cond   *Value `json:"cond,omitempty"`

	Text string `json:"text,omitempty"`
}

func (in Instruction) String() string {
	switch in.Op {
	case OpBinary:
		return fmt.Sprintf("%%%d = %s %s, %s", in.Result, in.BinOp, in.LHS, in.RHS)
	case OpUnary:
		return fmt.Sprintf("%%%d = %s %s", in.Result, in.UnOp, in.LHS)
	case OpLoad:
		return fmt.Sprintf("%%%d = load %s", in.Result, in.Ptr)
	case OpStore:
		return fmt.Sprintf("store %s, %s", in.Val, in.Ptr)
	case OpGep:
		return fmt.Sprintf("%%%d = gep %s, %s", in.Result, in.Ptr, in.Index)
	case OpAlloca:
		return fmt.Sprintf("%%%d = alloca %d", in.Result, in.Words)
	case OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = a.String()
		}
		if in.Type.IsVoid() {
			return fmt.Sprintf("call %s(%s)", in.Callee, strings.Join(args, ", "))
		}
		return fmt.Sprintf("%%%d = call %s(%s)", in.Result, in.Callee, strings.Join(args, ", "))
	case OpRet:
		if in.Val == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", in.Val)
	case OpBr:
		return fmt.Sprintf("br %s", in.Target)
	case OpBrCond:
		return fmt.Sprintf("br %s, %s, %s", in.Cond, in.Target, in.Else)
	case OpComment:
		return "; " + in.Text
	}
	return "<invalid>"
}
