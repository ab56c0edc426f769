package ir

type TypeKind string

const (
	// TypeWord is the machine word, 16 bits.
	TypeWord TypeKind = "word"
	// TypePtr is a fat pointer: an (address, bank) pair occupying two words.
	TypePtr TypeKind = "ptr"
	// TypeArray is a contiguous sequence of Len elements of Elem.
	TypeArray TypeKind = "array"
	// TypeVoid appears only as a function result type.
	TypeVoid TypeKind = "void"
)

type Type struct {
	Kind TypeKind `json:"kind"`
	Elem *Type    `json:"elem,omitempty"`
	Len  int      `json:"len,omitempty"`
}

func Word() Type { return Type{Kind: TypeWord} }
func Ptr(elem Type) Type { return Type{Kind: TypePtr, Elem: &elem} }
func Array(elem Type, n int) Type {
	return Type{Kind: TypeArray, Elem: &elem, Len: n}
}
func Void() Type { return Type{Kind: TypeVoid} }

func (t Type) IsPtr() bool { return t.Kind == TypePtr }
func (t Type) IsVoid() bool { return t.Kind == TypeVoid }

// Words reports the storage size of a value of this type in machine words.
func (t Type) Words() int {
	switch t.Kind {
	case TypeWord:
		return 1
	case TypePtr:
		return 2
	case TypeArray:
		return t.Len * t.Elem.Words()
	}
	return 0
}

// ElemWords reports the stride of a pointer's element type, the unit a
// GEP index is scaled by. Word pointers have stride 1.
func (t Type) ElemWords() int {
	if t.Kind == TypePtr && t.Elem != nil {
		return t.Elem.Words()
	}
	return 1
}
