// Package symbol defines the tagged-variant symbol records described in §3.1
// of the front-end specification: the common header every declaration kind
// shares, plus the per-kind payloads for functions, variables, types,
// structs, enums, namespaces, registers, and bitmaps.
package symbol

// Kind tags a Symbol's variant.
type Kind string

const (
	KindFunction       Kind = "function"
	KindVariable       Kind = "variable"
	KindType           Kind = "type" // typedef / using-alias
	KindStruct         Kind = "struct"
	KindUnion          Kind = "union"
	KindClass          Kind = "class"
	KindEnum           Kind = "enum"
	KindEnumMember     Kind = "enum_member"
	KindNamespace      Kind = "namespace" // also used for source-language "scope"
	KindRegister       Kind = "register"
	KindRegisterMember Kind = "register_member"
	KindBitmap         Kind = "bitmap"
	KindBitmapField    Kind = "bitmap_field"
)

// Language identifies which of the three parsed grammars produced a symbol.
type Language string

const (
	LangSource Language = "source"
	LangC      Language = "c"
	LangCpp    Language = "cpp"
)

// Visibility is the source-language function visibility inside a scope;
// C and C++ symbols leave this empty.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// AccessModifier is the access level of a register member.
type AccessModifier string

const (
	AccessReadWrite AccessModifier = "rw"
	AccessReadOnly  AccessModifier = "ro"
	AccessWriteOnly AccessModifier = "wo"
)

// Dimension is one entry of an array-dimension sequence. It is either a
// resolved non-negative integer or a verbatim macro/identifier expression
// that could not be resolved within the core (§3.3 invariant 5, and the
// "Unresolved array dimensions" design note in §9).
type Dimension struct {
	// Resolved is true when Value holds a known non-negative integer.
	Resolved bool
	Value    int
	// Symbolic holds the verbatim text when Resolved is false.
	Symbolic string
}

// IntDimension builds a resolved numeric dimension.
func IntDimension(n int) Dimension { return Dimension{Resolved: true, Value: n} }

// SymbolicDimension builds an unresolved, verbatim dimension.
func SymbolicDimension(text string) Dimension { return Dimension{Symbolic: text} }

func (d Dimension) String() string {
	if d.Resolved {
		return itoa(d.Value)
	}
	return d.Symbolic
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Field describes one member of a struct, class, or union.
type Field struct {
	Name       string
	Type       string
	Dimensions []Dimension
	IsArray    bool
	IsConst    bool
}

// Parameter describes one function parameter.
type Parameter struct {
	Name       string
	Type       string
	IsConst    bool
	IsArray    bool
	Dimensions []Dimension
}

// Header is the common envelope every Symbol variant carries (§3.1).
type Header struct {
	Name           string
	Kind           Kind
	SourceFile     string
	SourceLine     int
	SourceLanguage Language
	IsExported     bool
	IsDeclaration  bool
	Parent         string // enclosing scope/namespace/class/register/bitmap, if any
}

// Symbol is the tagged-variant symbol record of §3.1. Only the fields
// relevant to Header.Kind are meaningful; the rest are left at zero value.
// A tagged variant was chosen over separate concrete types (and an
// interface) because the SymbolTable, conflict classifier, and every
// collector need to treat all kinds uniformly by Header while still
// reaching into kind-specific payloads (signature, fields, bit width) — one
// struct with optional payload fields keeps that dual need in a single,
// directly comparable value, matching the explicit "tagged-variant mapping
// step at the edge of the core" guidance in §9.
type Symbol struct {
	Header

	// Function
	ReturnType string
	Parameters []Parameter
	Signature  string
	Visibility Visibility

	// Variable
	Type         string
	IsConst      bool
	IsArray      bool
	Dimensions   []Dimension
	InitialValue string

	// Struct / Class / Union
	Fields     []Field
	fieldIndex map[string]int // name -> index into Fields, last-write-wins

	// Enum
	BitWidth int // 0 means unset

	// Register member / Bitmap field
	Access AccessModifier

	// Bitmap field
	FieldBitWidth int
	BitOffset     int
	BitSignature  string // "bit N" or "bits N-M"

	// Bitmap
	BackingType string
}

// SetField appends or overwrites (last-write-wins) a field on a struct,
// class, or union symbol, preserving insertion order for new names.
func (s *Symbol) SetField(f Field) {
	if s.fieldIndex == nil {
		s.fieldIndex = make(map[string]int)
	}
	if idx, ok := s.fieldIndex[f.Name]; ok {
		s.Fields[idx] = f
		return
	}
	s.fieldIndex[f.Name] = len(s.Fields)
	s.Fields = append(s.Fields, f)
}

// FieldByName looks up a field by name.
func (s *Symbol) FieldByName(name string) (Field, bool) {
	if s.fieldIndex == nil {
		return Field{}, false
	}
	idx, ok := s.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[idx], true
}

// IsDefinition reports whether this record is a definition (as opposed to a
// forward/extern declaration).
func (s Symbol) IsDefinition() bool { return !s.IsDeclaration }

// QualifiedName joins a parent scope/namespace name with a member name using
// the separator appropriate to the source language (source and C use "_",
// C++ uses "::").
func QualifiedName(parent, member string, lang Language) string {
	if parent == "" {
		return member
	}
	if lang == LangCpp {
		return parent + "::" + member
	}
	return parent + "_" + member
}
