package ir

import "fmt"

// TempID identifies an SSA-style temporary within a function.
type TempID int

type ValueKind string

const (
	ValueTemp     ValueKind = "temp"
	ValueConst    ValueKind = "const"
	ValueParam    ValueKind = "param"
	ValueGlobal   ValueKind = "global"
	ValueFunction ValueKind = "func"
	ValueUndef    ValueKind = "undef"
)

// Value is an operand of an IR instruction. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind `json:"kind"`
	Temp TempID    `json:"temp,omitempty"`
	Int  int64     `json:"int,omitempty"`
	Sym  string    `json:"sym,omitempty"`
}

func Temp(id TempID) Value { return Value{Kind: ValueTemp, Temp: id} }
func Int(v int64) Value { return Value{Kind: ValueConst, Int: v} }
func ParamRef(name string) Value { return Value{Kind: ValueParam, Sym: name} }
func Global(name string) Value { return Value{Kind: ValueGlobal, Sym: name} }
func Func(name string) Value { return Value{Kind: ValueFunction, Sym: name} }
func Undef() Value { return Value{Kind: ValueUndef} }

func (v Value) IsConst() bool { return v.Kind == ValueConst }
func (v Value) IsTemp() bool { return v.Kind == ValueTemp }

func (v Value) String() string {
	switch v.Kind {
	case ValueTemp:
		return fmt.Sprintf("%%%d", v.Temp)
	case ValueConst:
		return fmt.Sprintf("%d", v.Int)
	case ValueParam:
		return "%" + v.Sym
	case ValueGlobal, ValueFunction:
		return "@" + v.Sym
	case ValueUndef:
		return "undef"
	}
	return "<invalid>"
}
