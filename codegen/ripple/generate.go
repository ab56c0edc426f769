package ripple

import (
	"io"

	"github.com/c0depwn/ripplec/ir"
	"github.com/c0depwn/ripplec/pkg/ext"
)

// DefaultBankSize matches the VM's default memory segmentation.
const DefaultBankSize = 4096

// defaultDataOffset is where the data section starts inside the global
// bank, right after the memory-mapped I/O header and video memory.
const defaultDataOffset = 1032

type Option func(*Generator)

func WithBankSize(n int) Option { return func(g *Generator) { g.bankSize = n } }
func WithStackBank(n int) Option { return func(g *Generator) { g.stackBank = n } }
func WithGlobalBank(n int) Option { return func(g *Generator) { g.globalBank = n } }
func WithDataOffset(n int) Option { return func(g *Generator) { g.dataOffset = n } }

// WithPool overrides the allocatable register set. Only temporaries and
// saved registers may appear; anything else would hand a protocol
// register to an arbitrary value.
func WithPool(regs []Register) Option {
	for _, r := range regs {
		if !r.Allocatable() {
			panic("pool contains non-allocatable register " + r.String())
		}
	}
	return func(g *Generator) { g.pool = regs }
}

// Generator carries the target configuration shared by all functions of
// one module. Per-function state (allocator, pressure manager) is created
// fresh for every function.
type Generator struct {
	bankSize   int
	stackBank  int
	globalBank int
	dataOffset int
	pool       []Register

	symbols map[string]int
	banks   map[string]int
}

func newGenerator(m *ir.Module, opts ...Option) *Generator {
	g := &Generator{
		bankSize:   DefaultBankSize,
		stackBank:  1,
		globalBank: 0,
		dataOffset: defaultDataOffset,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.symbols = m.GlobalOffsets()
	g.banks = m.FunctionBanks()
	return g
}

// GenerateProgram lowers every function of the module into one flat
// instruction sequence. A failing function aborts the whole module;
// no partial output is returned.
func GenerateProgram(m *ir.Module, opts ...Option) (Program, error) {
	g := newGenerator(m, opts...)
	var prog Program
	for i := range m.Functions {
		fl := newFuncLowering(g, &m.Functions[i])
		var p Program
		err := ext.CatchPanic(func() {
			var lerr error
			if p, lerr = fl.lower(); lerr != nil {
				panic(lerr)
			}
		})
		if err != nil {
			return nil, err
		}
		prog = append(prog, p...)
	}
	return prog, nil
}

// Generate lowers the module and writes textual assembly to out.
func Generate(m *ir.Module, out io.Writer, opts ...Option) error {
	prog, err := GenerateProgram(m, opts...)
	if err != nil {
		return err
	}
	return prog.Format(out)
}
