package ripple

import "fmt"

// BankKind discriminates how a pointer value's bank number is known.
type BankKind int

const (
	// BankGlobal: the pointer targets global memory, bank held in GP.
	BankGlobal BankKind = iota
	// BankStack: the pointer targets the stack, bank held in SB.
	BankStack
	// BankRegister: the bank number sits in a specific general register.
	BankRegister
	// BankDynamic: the bank number is a named value tracked by the
	// allocator, materialized into a register on demand. Produced by
	// pointer arithmetic that may cross banks.
	BankDynamic
)

// BankTag is the bank half of a fat pointer. Every pointer-typed value
// carries one; a pointer with no tag is a lowering bug surfaced as
// MissingBankProvenanceError.
type BankTag struct {
	Kind  BankKind
	Reg   Register // BankRegister only
	Value string   // BankDynamic only
}

func GlobalBank() BankTag { return BankTag{Kind: BankGlobal} }
func StackBank() BankTag { return BankTag{Kind: BankStack} }
func RegisterBank(r Register) BankTag {
	return BankTag{Kind: BankRegister, Reg: r}
}
func DynamicBank(value string) BankTag {
	return BankTag{Kind: BankDynamic, Value: value}
}

// Static reports whether the bank is one of the fixed bank registers.
func (t BankTag) Static() bool {
	return t.Kind == BankGlobal || t.Kind == BankStack
}

func (t BankTag) String() string {
	switch t.Kind {
	case BankGlobal:
		return "global"
	case BankStack:
		return "stack"
	case BankRegister:
		return fmt.Sprintf("reg(%s)", t.Reg)
	case BankDynamic:
		return fmt.Sprintf("dyn(%s)", t.Value)
	}
	return "<invalid>"
}
