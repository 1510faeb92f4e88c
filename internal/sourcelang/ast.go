package sourcelang

// DeclKind tags the kind of a top-level or scope-member declaration, one
// per the six source-language declaration shapes the collector dispatches
// on (§4.2.1).
type DeclKind int

const (
	DeclScope DeclKind = iota
	DeclStruct
	DeclRegister
	DeclBitmap
	DeclFunction
	DeclVariable
)

// Dim is one array-dimension expression attached to a variable, parameter
// or field: either an unresolved identifier/macro text or a decimal literal
// text, left for internal/typeutil to resolve.
type Dim struct {
	Text string
}

// Param is one function parameter.
type Param struct {
	NameTok Token
	Type    string
	IsConst bool
	IsArray bool
	Dims    []Dim
}

// Field is one struct/class/register/bitmap member field as written in
// source, before symtab normalization.
type Field struct {
	NameTok  Token
	Type     string // e.g. "u8", "string<16>", "Point"
	IsConst  bool
	IsArray  bool
	Dims     []Dim
	Access   string // register members: "rw" | "ro" | "wo"
	BitWidth int    // bitmap fields: 0 means unspecified (defaults to 1)
	Doc      []string
}

// Decl is the narrow accessor interface every declaration node satisfies
// (§6): an identifier token, a kind tag, and the position the declaration
// starts at. Kind-specific accessors live on the concrete node types below
// — sourcecollect type-switches on the concrete node type, much as a
// tree-sitter walk switches on node.Type().
type Decl interface {
	Kind() DeclKind
	Name() string
	Line() int
	Column() int
	DocComments() []string
}

type base struct {
	NameTok Token
	Doc     []string
}

func (b base) Name() string          { return b.NameTok.Text }
func (b base) Line() int             { return b.NameTok.Line }
func (b base) Column() int           { return b.NameTok.Column }
func (b base) DocComments() []string { return b.Doc }

// ScopeDecl is a `scope Name { ... }` block: a named namespace containing
// further declarations.
type ScopeDecl struct {
	base
	Members []Decl
}

func (d *ScopeDecl) Kind() DeclKind { return DeclScope }

// StructDecl is a `struct Name { ... }` block of fields.
type StructDecl struct {
	base
	Fields []Field
}

func (d *StructDecl) Kind() DeclKind { return DeclStruct }

// RegisterDecl is a `register Name { ... }` block of access-qualified
// members mapping onto hardware registers.
type RegisterDecl struct {
	base
	Members []Field
}

func (d *RegisterDecl) Kind() DeclKind { return DeclRegister }

// BitmapDecl is a `bitmap Name : backing { ... }` block of bit/bits fields.
type BitmapDecl struct {
	base
	BackingType string
	Fields      []Field
}

func (d *BitmapDecl) Kind() DeclKind { return DeclBitmap }

// FunctionDecl is a function declaration or definition.
type FunctionDecl struct {
	base
	ReturnType string
	Params     []Param
	Visibility string // "public" | "private" | ""
	Body       *Block // nil for a declaration-only form
}

func (d *FunctionDecl) Kind() DeclKind     { return DeclFunction }
func (d *FunctionDecl) IsDefinition() bool { return d.Body != nil }

// VariableDecl is a top-level or scope-member variable declaration.
type VariableDecl struct {
	base
	Type        string
	IsConst     bool
	IsArray     bool
	Dims        []Dim
	Initializer Expr // nil if uninitialized
}

func (d *VariableDecl) Kind() DeclKind { return DeclVariable }

// File is the root of a parsed source-language compilation unit.
type File struct {
	Path     string
	Decls    []Decl
	Includes []string

	// Comments holds every comment token lexed from the file, doc and
	// non-doc alike, for phase 10's token-stream scan (§4.3 "comment
	// validation").
	Comments []Token
}

// ---- Statements and expressions (function bodies) ----

// Stmt is any statement inside a function body.
type Stmt interface {
	stmtNode()
	Line() int
}

// Block is a brace-delimited statement sequence.
type Block struct {
	Stmts  []Stmt
	LineNo int
}

func (b *Block) stmtNode() {}
func (b *Block) Line() int { return b.LineNo }

// LocalVarStmt declares a local variable, optionally with an initializer
// introduced by `=` or `<-` (the source language accepts either spelling
// for the initializing-assignment operator).
type LocalVarStmt struct {
	NameTok     Token
	Type        string
	IsConst     bool
	IsArray     bool
	Dims        []Dim
	Initializer Expr
}

func (s *LocalVarStmt) stmtNode() {}
func (s *LocalVarStmt) Line() int { return s.NameTok.Line }

// ExprStmt wraps a bare expression statement (call or assignment).
type ExprStmt struct {
	X      Expr
	LineNo int
}

func (s *ExprStmt) stmtNode() {}
func (s *ExprStmt) Line() int { return s.LineNo }

// IfStmt is a conditional with an optional else branch.
type IfStmt struct {
	Cond   Expr
	Then   *Block
	Else   *Block // nil if no else
	LineNo int
}

func (s *IfStmt) stmtNode() {}
func (s *IfStmt) Line() int { return s.LineNo }

// ReturnStmt returns from the enclosing function, optionally with a value.
type ReturnStmt struct {
	Value  Expr // nil for a bare return
	LineNo int
}

func (s *ReturnStmt) stmtNode() {}
func (s *ReturnStmt) Line() int { return s.LineNo }

// Expr is any expression.
type Expr interface {
	exprNode()
	Line() int
}

type Ident struct {
	NameTok Token
}

func (e *Ident) exprNode()    {}
func (e *Ident) Line() int    { return e.NameTok.Line }
func (e *Ident) Name() string { return e.NameTok.Text }

type IntLit struct {
	Tok Token
}

func (e *IntLit) exprNode() {}
func (e *IntLit) Line() int { return e.Tok.Line }

type FloatLit struct {
	Tok Token
}

func (e *FloatLit) exprNode() {}
func (e *FloatLit) Line() int { return e.Tok.Line }

type StringLit struct {
	Tok Token
}

func (e *StringLit) exprNode() {}
func (e *StringLit) Line() int { return e.Tok.Line }

type NullLit struct {
	Tok Token
}

func (e *NullLit) exprNode() {}
func (e *NullLit) Line() int { return e.Tok.Line }

// BinaryExpr is a binary operator application; Op is the operator's token
// text (e.g. "/", "%", "<<", "==").
type BinaryExpr struct {
	Op          string
	Left, Right Expr
	LineNo      int
}

func (e *BinaryExpr) exprNode() {}
func (e *BinaryExpr) Line() int { return e.LineNo }

// UnaryExpr is a prefix unary operator application.
type UnaryExpr struct {
	Op     string
	X      Expr
	LineNo int
}

func (e *UnaryExpr) exprNode() {}
func (e *UnaryExpr) Line() int { return e.LineNo }

// CallExpr is a function or method call; Callee is usually an *Ident or a
// *MemberExpr (for `Scope.method()` qualified dispatch, §8 S5).
type CallExpr struct {
	Callee Expr
	Args   []Expr
	LineNo int
}

func (e *CallExpr) exprNode() {}
func (e *CallExpr) Line() int { return e.LineNo }

// IndexExpr is an array index expression `base[index]`.
type IndexExpr struct {
	Base, Index Expr
	LineNo      int
}

func (e *IndexExpr) exprNode() {}
func (e *IndexExpr) Line() int { return e.LineNo }

// MemberExpr is `base.name` — qualified scope access or struct field
// access.
type MemberExpr struct {
	Base   Expr
	Name   string
	LineNo int
}

func (e *MemberExpr) exprNode() {}
func (e *MemberExpr) Line() int { return e.LineNo }

// AssignExpr is `target = value` or `target <- value`; both spellings are
// semantically identical assignment/initialization in the source language.
type AssignExpr struct {
	Target Expr
	Op     string // "=" or "<-"
	Value  Expr
	LineNo int
}

func (e *AssignExpr) exprNode() {}
func (e *AssignExpr) Line() int { return e.LineNo }
