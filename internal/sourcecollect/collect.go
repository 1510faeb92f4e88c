// Package sourcecollect implements the source-language symbol collector of
// §4.2.1: a single top-down pass over a parsed source-language file that
// dispatches on declaration kind (scope, struct, register, bitmap,
// function, variable) and emits symbol.Symbol records, optionally
// recording struct-field and enum-bit-width side-table entries on a
// symtab.Table.
package sourcecollect

import (
	"strconv"
	"strings"

	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/sourcelang"
	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/symtab"
	"github.com/jlaustill/cnextc/internal/typeutil"
)

// Context carries the per-file state every collector call shares: the
// source file path, the accumulated output symbols, warnings, and an
// optional SymbolTable for side-table bookkeeping (§4.2 "Collectors all
// share a small context object").
type Context struct {
	File        string
	Symbols     []symbol.Symbol
	Warnings    diag.Errors
	Table       *symtab.Table
	ConstValues map[string]int
}

// NewContext builds an empty collection Context for path.
func NewContext(path string) *Context {
	return &Context{File: path, ConstValues: map[string]int{}}
}

// Collect walks f's top-level declarations and appends emitted symbols to
// ctx.Symbols.
func Collect(ctx *Context, f *sourcelang.File) {
	for _, d := range f.Decls {
		collectDecl(ctx, d, "")
	}
}

func (c *Context) emit(s symbol.Symbol) {
	s.SourceFile = c.File
	s.SourceLanguage = symbol.LangSource
	c.Symbols = append(c.Symbols, s)
}

func collectDecl(ctx *Context, d sourcelang.Decl, prefix string) {
	switch dd := d.(type) {
	case *sourcelang.ScopeDecl:
		collectScope(ctx, dd, prefix)
	case *sourcelang.StructDecl:
		collectStruct(ctx, dd, prefix)
	case *sourcelang.RegisterDecl:
		collectRegister(ctx, dd, prefix)
	case *sourcelang.BitmapDecl:
		collectBitmap(ctx, dd, prefix)
	case *sourcelang.FunctionDecl:
		collectFunction(ctx, dd, prefix)
	case *sourcelang.VariableDecl:
		collectVariable(ctx, dd, prefix)
	}
}

func qualify(prefix, name string) string {
	return symbol.QualifiedName(prefix, name, symbol.LangSource)
}

func collectScope(ctx *Context, d *sourcelang.ScopeDecl, prefix string) {
	name := qualify(prefix, d.Name())
	ctx.emit(symbol.Symbol{Header: symbol.Header{
		Name: name, Kind: symbol.KindNamespace, SourceLine: d.Line(),
		IsExported: true, Parent: prefix,
	}})
	for _, member := range d.Members {
		collectDecl(ctx, member, name)
	}
}

func collectStruct(ctx *Context, d *sourcelang.StructDecl, prefix string) {
	name := qualify(prefix, d.Name())
	s := symbol.Symbol{Header: symbol.Header{
		Name: name, Kind: symbol.KindStruct, SourceLine: d.Line(),
		IsExported: true, Parent: prefix,
	}}
	for _, f := range d.Fields {
		field := buildStructField(f)
		s.SetField(field)
		if ctx.Table != nil {
			ctx.Table.AddStructField(name, field.Name, field.Type, field.Dimensions)
		}
	}
	ctx.emit(s)
}

func buildStructField(f sourcelang.Field) symbol.Field {
	preceding := dimsFromRaw(f.Dims)
	typ := f.Type
	if n, ok := stringLengthSuffix(f.Type); ok {
		typ = "string"
		return symbol.Field{
			Name: f.NameTok.Text, Type: typ,
			Dimensions: typeutil.StringFieldDimensions(preceding, n),
			IsArray:    true, IsConst: f.IsConst,
		}
	}
	return symbol.Field{
		Name: f.NameTok.Text, Type: typ, Dimensions: preceding,
		IsArray: f.IsArray, IsConst: f.IsConst,
	}
}

// stringLengthSuffix extracts N from a "string<N>" type spelling.
func stringLengthSuffix(typ string) (int, bool) {
	if !strings.HasPrefix(typ, "string<") || !strings.HasSuffix(typ, ">") {
		return 0, false
	}
	inner := typ[len("string<") : len(typ)-1]
	n, err := strconv.Atoi(inner)
	if err != nil {
		return 0, false
	}
	return n, true
}

func dimsFromRaw(dims []sourcelang.Dim) []symbol.Dimension {
	out := make([]symbol.Dimension, 0, len(dims))
	for _, d := range dims {
		out = append(out, typeutil.ParseDimension(d.Text))
	}
	return out
}

func collectRegister(ctx *Context, d *sourcelang.RegisterDecl, prefix string) {
	name := qualify(prefix, d.Name())
	ctx.emit(symbol.Symbol{Header: symbol.Header{
		Name: name, Kind: symbol.KindRegister, SourceLine: d.Line(),
		IsExported: true, Parent: prefix,
	}})
	for _, m := range d.Members {
		memberName := qualify(name, m.NameTok.Text)
		ctx.emit(symbol.Symbol{
			Header: symbol.Header{
				Name: memberName, Kind: symbol.KindRegisterMember, SourceLine: m.NameTok.Line,
				IsExported: true, Parent: name,
			},
			Type:   m.Type,
			Access: symbol.AccessModifier(m.Access),
		})
	}
}

func collectBitmap(ctx *Context, d *sourcelang.BitmapDecl, prefix string) {
	name := qualify(prefix, d.Name())
	ctx.emit(symbol.Symbol{
		Header:      symbol.Header{Name: name, Kind: symbol.KindBitmap, SourceLine: d.Line(), IsExported: true, Parent: prefix},
		BackingType: d.BackingType,
	})
	if w, ok := typeutil.BitWidthOf(d.BackingType); ok && ctx.Table != nil {
		ctx.Table.AddEnumBitWidth(name, w)
	}
	bitOffset := 0
	for _, f := range d.Fields {
		width := f.BitWidth
		if width <= 0 {
			width = 1
		}
		memberName := qualify(name, f.NameTok.Text)
		ctx.emit(symbol.Symbol{
			Header: symbol.Header{
				Name: memberName, Kind: symbol.KindBitmapField, SourceLine: f.NameTok.Line,
				IsExported: true, Parent: name,
			},
			Type:          typeutil.BitmapFieldType(width),
			FieldBitWidth: width,
			BitOffset:     bitOffset,
			BitSignature:  typeutil.BitSignature(bitOffset, width),
		})
		bitOffset += width
	}
}

func collectFunction(ctx *Context, d *sourcelang.FunctionDecl, prefix string) {
	name := qualify(prefix, d.Name())

	vis := symbol.VisibilityPrivate
	if prefix == "" {
		vis = symbol.VisibilityPublic
	}
	switch d.Visibility {
	case "public":
		vis = symbol.VisibilityPublic
	case "private":
		vis = symbol.VisibilityPrivate
	}

	params := make([]symbol.Parameter, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, symbol.Parameter{
			Name: p.NameTok.Text, Type: p.Type, IsConst: p.IsConst,
			IsArray: p.IsArray, Dimensions: dimsFromRaw(p.Dims),
		})
	}

	ctx.emit(symbol.Symbol{
		Header: symbol.Header{
			Name: name, Kind: symbol.KindFunction, SourceLine: d.Line(),
			IsExported: vis == symbol.VisibilityPublic, Parent: prefix,
			IsDeclaration: !d.IsDefinition(),
		},
		ReturnType: d.ReturnType,
		Parameters: params,
		Signature:  buildSignature(d.ReturnType, name, params),
		Visibility: vis,
	})
}

// buildSignature renders the canonical textual signature of §3.1:
// "<return> <qualified-name>(<param-types joined by ', '>)", used for
// overload distinction (§ GLOSSARY "Signature").
func buildSignature(returnType, name string, params []symbol.Parameter) string {
	var sb strings.Builder
	sb.WriteString(returnType)
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type)
	}
	sb.WriteByte(')')
	return sb.String()
}

func collectVariable(ctx *Context, d *sourcelang.VariableDecl, prefix string) {
	name := qualify(prefix, d.Name())

	dims := make([]symbol.Dimension, 0, len(d.Dims))
	for _, raw := range d.Dims {
		dims = append(dims, typeutil.ParseDimensionWithConsts(raw.Text, ctx.ConstValues))
	}

	initText := ""
	if d.Initializer != nil {
		initText = exprText(d.Initializer)
	}

	if d.IsConst && d.Initializer != nil {
		if n, ok := intLiteralValue(d.Initializer); ok {
			ctx.ConstValues[d.Name()] = n
		}
	}

	ctx.emit(symbol.Symbol{
		Header: symbol.Header{
			Name: name, Kind: symbol.KindVariable, SourceLine: d.Line(),
			IsExported: prefix == "", Parent: prefix,
		},
		Type: d.Type, IsConst: d.IsConst, IsArray: d.IsArray,
		Dimensions: dims, InitialValue: initText,
	})
}

// intLiteralValue extracts the integer value of a plain or type-suffixed
// integer literal expression (e.g. "10", "10u8"), for const-propagation
// into array-dimension resolution.
func intLiteralValue(e sourcelang.Expr) (int, bool) {
	lit, ok := e.(*sourcelang.IntLit)
	if !ok {
		return 0, false
	}
	text := lit.Tok.Text
	end := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// exprText renders an expression back to source-like text, used only to
// preserve initializer text verbatim for later const-inlining (§4.2.1
// variable collection rule).
func exprText(e sourcelang.Expr) string {
	switch ex := e.(type) {
	case *sourcelang.Ident:
		return ex.Name()
	case *sourcelang.IntLit:
		return ex.Tok.Text
	case *sourcelang.FloatLit:
		return ex.Tok.Text
	case *sourcelang.StringLit:
		return "\"" + ex.Tok.Text + "\""
	case *sourcelang.NullLit:
		return "NULL"
	case *sourcelang.UnaryExpr:
		return ex.Op + exprText(ex.X)
	case *sourcelang.BinaryExpr:
		return exprText(ex.Left) + " " + ex.Op + " " + exprText(ex.Right)
	case *sourcelang.CallExpr:
		var sb strings.Builder
		sb.WriteString(exprText(ex.Callee))
		sb.WriteByte('(')
		for i, a := range ex.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(exprText(a))
		}
		sb.WriteByte(')')
		return sb.String()
	case *sourcelang.IndexExpr:
		return exprText(ex.Base) + "[" + exprText(ex.Index) + "]"
	case *sourcelang.MemberExpr:
		return exprText(ex.Base) + "." + ex.Name
	case *sourcelang.AssignExpr:
		return exprText(ex.Target) + " " + ex.Op + " " + exprText(ex.Value)
	}
	return ""
}
