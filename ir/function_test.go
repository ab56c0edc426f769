package ir

import (
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	src := `{
		"globals": [{"name": "counter", "words": 1}],
		"functions": [{
			"name": "bump",
			"params": [{"name": "by", "type": {"kind": "word"}}],
			"result": {"kind": "word"},
			"blocks": [{
				"name": "entry",
				"instrs": [
					{"op": "load", "result": 1, "ptr": {"kind": "global", "sym": "counter"}, "type": {"kind": "word"}},
					{"op": "binary", "result": 2, "binop": "add", "lhs": {"kind": "temp", "temp": 1}, "rhs": {"kind": "param", "sym": "by"}},
					{"op": "ret", "val": {"kind": "temp", "temp": 2}}
				]
			}]
		}]
	}`

	m, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Functions) != 1 || m.Functions[0].Name != "bump" {
		t.Fatalf("bad functions: %+v", m.Functions)
	}
	instrs := m.Functions[0].Blocks[0].Instrs
	if len(instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(instrs))
	}
	if instrs[1].Op != OpBinary || instrs[1].BinOp != Add {
		t.Fatalf("bad second instruction: %+v", instrs[1])
	}
	if instrs[1].RHS.Kind != ValueParam || instrs[1].RHS.Sym != "by" {
		t.Fatalf("bad rhs: %+v", instrs[1].RHS)
	}
}

func TestDecode_UnknownField(t *testing.T) {
	src := `{"functions": [], "banana": true}`
	if _, err := Decode(strings.NewReader(src)); err == nil {
		t.Fatalf("unknown fields must be rejected")
	}
}

func TestGlobalOffsets(t *testing.T) {
	m := &Module{Globals: []GlobalDef{
		{Name: "a", Words: 2},
		{Name: "b", Words: 3},
		{Name: "c", Words: 1},
	}}

	offsets := m.GlobalOffsets()
	want := map[string]int{"a": 0, "b": 2, "c": 5}
	for name, off := range want {
		if offsets[name] != off {
			t.Fatalf("%s: expected offset %d, got %d", name, off, offsets[name])
		}
	}
}

func TestType_Words(t *testing.T) {
	tests := []struct {
		t    Type
		want int
	}{
		{Word(), 1},
		{Ptr(Word()), 2},
		{Array(Word(), 10), 10},
		{Array(Ptr(Word()), 10), 20},
		{Void(), 0},
	}
	for i, test := range tests {
		if got := test.t.Words(); got != test.want {
			t.Fatalf("#%d: expected %d words, got %d", i, test.want, got)
		}
	}

	if got := Ptr(Ptr(Word())).ElemWords(); got != 2 {
		t.Fatalf("pointer-to-pointer stride: expected 2, got %d", got)
	}
	if got := Word().ElemWords(); got != 1 {
		t.Fatalf("non-pointer stride defaults to 1, got %d", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	m := &Module{
		Globals: []GlobalDef{{Name: "g", Words: 4, Init: []int64{1, 2, 3, 4}}},
		Functions: []Function{{
			Name:   "f",
			Result: Void(),
			Bank:   2,
			Blocks: []Block{{Name: "entry", Instrs: []Instruction{{Op: OpRet}}}},
		}},
	}

	var buf strings.Builder
	if err := m.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.Functions[0].Bank != 2 {
		t.Fatalf("bank lost in round trip")
	}
	if len(back.Globals[0].Init) != 4 {
		t.Fatalf("init values lost in round trip")
	}
}
