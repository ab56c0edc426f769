package ripple

import "fmt"

// nameGenerator hands out unique scratch value keys within a function.
// The counter only ever increases, so emitted names are deterministic for
// a given instruction sequence.
type nameGenerator struct {
	nextTemp int
}

func newNameGenerator() *nameGenerator {
	return &nameGenerator{}
}

func (n *nameGenerator) temp(hint string) string {
	id := n.nextTemp
	n.nextTemp++
	return fmt.Sprintf("%s_%d", hint, id)
}

// blockLabel names a basic block inside a function. Block names come from
// the IR and are unique per function, so the pair is globally unique.
func blockLabel(fn, block string) string {
	return fmt.Sprintf("L_%s_%s", fn, block)
}

func epilogueLabel(fn string) string {
	return fmt.Sprintf("L_%s_epilogue", fn)
}
