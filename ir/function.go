package ir

import (
	"encoding/json"
	"io"
)

type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Block is a basic block: a label followed by straight-line instructions
// ending in a branch or return.
type Block struct {
	Name   string        `json:"name"`
	Instrs []Instruction `json:"instrs"`
}

type Function struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
	Result Type    `json:"result"`
	Blocks []Block `json:"blocks"`
	// Bank is the code bank the function is placed in. Calls between
	// functions in different banks need an explicit control-bank setup.
	Bank int `json:"bank,omitempty"`
}

// GlobalDef reserves Words words of global-bank storage, optionally with
// initial values laid down by the linker.
type GlobalDef struct {
	Name  string  `json:"name"`
	Words int     `json:"words"`
	Init  []int64 `json:"init,omitempty"`
}

type Module struct {
	Functions []Function  `json:"functions"`
	Globals   []GlobalDef `json:"globals,omitempty"`
}

// GlobalOffsets lays globals out in declaration order and returns each
// symbol's word offset from the start of the global bank.
func (m *Module) GlobalOffsets() map[string]int {
	offsets := make(map[string]int, len(m.Globals))
	next := 0
	for _, g := range m.Globals {
		offsets[g.Name] = next
		next += g.Words
	}
	return offsets
}

// FunctionBanks maps each function name to its code bank.
func (m *Module) FunctionBanks() map[string]int {
	banks := make(map[string]int, len(m.Functions))
	for _, f := range m.Functions {
		banks[f.Name] = f.Bank
	}
	return banks
}

// Decode reads a serialized module.
func Decode(r io.Reader) (*Module, error) {
	var m Module
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode writes the module in its serialized form.
func (m *Module) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
