package ripple

import (
	"fmt"

	"github.com/c0depwn/ripplec/ir"
)

// Value keys name abstract values in the allocator's tables. Registers and
// slots are always looked up through these keys, never the other way
// around.

func tempKey(id ir.TempID) string { return fmt.Sprintf("t%d", id) }
func paramKey(name string) string { return "p_" + name }
func globalKey(name string) string { return "@" + name }

// bankKey names the bank half of a fat pointer value.
func bankKey(key string) string { return key + ".bank" }

// valueKey maps an IR operand to its allocator key. Constants, undef and
// function references are not keyed: they are materialized per use.
func valueKey(v ir.Value) (string, bool) {
	switch v.Kind {
	case ir.ValueTemp:
		return tempKey(v.Temp), true
	case ir.ValueParam:
		return paramKey(v.Sym), true
	case ir.ValueGlobal:
		return globalKey(v.Sym), true
	}
	return "", false
}

// defines reports whether the instruction produces a result temp.
func defines(in *ir.Instruction) bool {
	switch in.Op {
	case ir.OpBinary, ir.OpUnary, ir.OpLoad, ir.OpGep, ir.OpAlloca:
		return true
	case ir.OpCall:
		return !in.Type.IsVoid()
	}
	return false
}

// instrUses lists the operand values an instruction reads.
func instrUses(in *ir.Instruction) []ir.Value {
	var out []ir.Value
	add := func(v *ir.Value) {
		if v != nil {
			out = append(out, *v)
		}
	}
	switch in.Op {
	case ir.OpBinary:
		add(in.LHS)
		add(in.RHS)
	case ir.OpUnary:
		add(in.LHS)
	case ir.OpLoad:
		add(in.Ptr)
	case ir.OpStore:
		add(in.Val)
		add(in.Ptr)
	case ir.OpGep:
		add(in.Ptr)
		add(in.Index)
	case ir.OpCall:
		for i := range in.Args {
			out = append(out, in.Args[i])
		}
	case ir.OpRet:
		add(in.Val)
	case ir.OpBrCond:
		add(in.Cond)
	}
	return out
}
