package ripple

// Register is one of the 32 physical registers of the Ripple VM.
type Register int

const (
	R0 Register = iota // hardware zero
	PC                 // program counter
	PCB                // program counter bank
	RA                 // return address
	RAB                // return address bank
	RV0                // return value (address half of a fat-pointer result)
	RV1                // return value bank half
	A0                 // argument registers
	A1
	A2
	A3
	X0 // reserved
	X1
	X2
	X3
	T0 // caller-saved temporaries
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	S0 // callee-saved
	S1
	S2
	S3
	SP // stack pointer
	FP // frame pointer
	GP // global bank
	SB // stack bank
	SC // scratch for spill/reload address arithmetic
)

const numRegisters = 32

var regToString = [numRegisters]string{
	"R0", "PC", "PCB", "RA", "RAB", "RV0", "RV1",
	"A0", "A1", "A2", "A3",
	"X0", "X1", "X2", "X3",
	"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7",
	"S0", "S1", "S2", "S3",
	"SP", "FP", "GP", "SB", "SC",
}

func (r Register) String() string {
	if r < 0 || r >= numRegisters {
		return "R?"
	}
	return regToString[r]
}

// Role classifies a register. Every register has exactly one role and the
// role decides allocability: only temporaries and saved registers are ever
// handed out for general values.
type Role int

const (
	RoleZero Role = iota
	RoleControl
	RoleReturn
	RoleArgument
	RoleReserved
	RoleTemp
	RoleSaved
	RoleSpecial
)

func (r Register) Role() Role {
	switch {
	case r == R0:
		return RoleZero
	case r >= PC && r <= RAB:
		return RoleControl
	case r == RV0 || r == RV1:
		return RoleReturn
	case r >= A0 && r <= A3:
		return RoleArgument
	case r >= X0 && r <= X3:
		return RoleReserved
	case r >= T0 && r <= T7:
		return RoleTemp
	case r >= S0 && r <= S3:
		return RoleSaved
	default:
		return RoleSpecial
	}
}

func (r Register) Allocatable() bool {
	role := r.Role()
	return role == RoleTemp || role == RoleSaved
}

func (r Register) CalleeSaved() bool { return r.Role() == RoleSaved }

// allocatableRegisters is the allocation preference order: saved registers
// first (they survive calls, so values in them spill less often), then
// temporaries from the top down.
var allocatableRegisters = []Register{
	S3, S2, S1, S0,
	T7, T6, T5, T4, T3, T2, T1, T0,
}

// argumentRegisters in parameter order. A fat pointer consumes two
// consecutive slots.
var argumentRegisters = []Register{A0, A1, A2, A3}
