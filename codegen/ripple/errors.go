package ripple

import "fmt"

// RegisterExhaustedError reports that a register was requested while every
// bound register was pinned. It aborts lowering of the current function;
// partial output must be discarded by the caller.
type RegisterExhaustedError struct {
	Function string
	Value    string
	Pinned   int
}

func (e *RegisterExhaustedError) Error() string {
	return fmt.Sprintf(
		"register allocation exhausted in %q while acquiring %q: all %d bound registers pinned",
		e.Function, e.Value, e.Pinned,
	)
}

// MissingBankProvenanceError reports a memory operation on a pointer value
// whose bank tag was never recorded. Lowering such an access would pick an
// arbitrary bank and corrupt memory silently.
type MissingBankProvenanceError struct {
	Function string
	Value    string
}

func (e *MissingBankProvenanceError) Error() string {
	return fmt.Sprintf("no bank tag recorded for pointer %q in %q", e.Value, e.Function)
}

// UnlowerableInstructionError reports an IR construct the backend does not
// translate (the front end is expected to have eliminated it).
type UnlowerableInstructionError struct {
	Function string
	Op       string
	Reason   string
}

func (e *UnlowerableInstructionError) Error() string {
	return fmt.Sprintf("cannot lower %s in %q: %s", e.Op, e.Function, e.Reason)
}

// FrameOverflowError reports that a function's locals plus spill slots
// outgrew the stack bank.
type FrameOverflowError struct {
	Function string
	Words    int
	Limit    int
}

func (e *FrameOverflowError) Error() string {
	return fmt.Sprintf("frame of %q needs %d words, stack bank holds %d", e.Function, e.Words, e.Limit)
}
