// Package ccollect implements the C symbol collector of §4.2.2: a walk
// over tree-sitter's C translation_unit, dispatching on external
// declaration shape (function definition, typedef, extern declaration,
// named struct, enum) and peeling declarators to their identifier leaf.
package ccollect

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"

	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/symtab"
	"github.com/jlaustill/cnextc/internal/typeutil"
)

// Context mirrors sourcecollect.Context: the small shared object collectors
// pass around (§4.2 "Collectors all share a small context object").
type Context struct {
	File     string
	Source   string
	Symbols  []symbol.Symbol
	Warnings diag.Errors
	Table    *symtab.Table
}

// NewContext builds an empty collection Context for a C source file.
func NewContext(path, source string) *Context {
	return &Context{File: path, Source: source}
}

// Language returns the tree-sitter grammar for C, for callers that parse
// source themselves before calling Collect.
func Language() *sitter.Language { return tsc.GetLanguage() }

func (c *Context) emit(s symbol.Symbol) {
	s.SourceFile = c.File
	s.SourceLanguage = symbol.LangC
	c.Symbols = append(c.Symbols, s)
}

func (c *Context) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return c.Source[n.StartByte():n.EndByte()]
}

func (c *Context) line(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Row) + 1
}

// Collect walks root (a translation_unit node) and appends emitted symbols
// to ctx.Symbols.
func Collect(ctx *Context, root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		collectExternal(ctx, root.NamedChild(i))
	}
}

func collectExternal(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "function_definition":
		collectFunctionDefinition(ctx, n)
	case "type_definition":
		collectTypedef(ctx, n)
	case "declaration":
		collectDeclaration(ctx, n)
	case "enum_specifier":
		collectEnum(ctx, n, "")
	case "struct_specifier", "union_specifier":
		if name := ctx.text(n.ChildByFieldName("name")); name != "" {
			collectStructBody(ctx, n, name)
			if ctx.Table != nil {
				ctx.Table.MarkNeedsStructKeyword(name)
			}
		}
	}
}

func collectFunctionDefinition(ctx *Context, n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	returnType := ctx.text(typeNode)

	declNode := n.ChildByFieldName("declarator")
	d := peelDeclarator(ctx, declNode)
	if d.Name == "" {
		return
	}

	full := returnType
	if d.Pointer {
		full += "*"
	}

	params := buildParams(ctx, d.Params)
	ctx.emit(symbol.Symbol{
		Header: symbol.Header{
			Name: d.Name, Kind: symbol.KindFunction, SourceLine: ctx.line(n),
			IsExported: true, IsDeclaration: false,
		},
		ReturnType: full,
		Parameters: params,
		Signature:  buildSignature(full, d.Name, params),
	})
}

// collectTypedef implements the typedef dispatch of §4.2.2: every
// declarator under `typedef` emits a Type record; a `typedef struct { ... }
// Name;` also emits the Struct record (under the struct's own identifier
// when it has one, otherwise under the typedef name), suppressing the
// duplicate Type record only when the struct's own identifier equals the
// typedef name. A `typedef enum` also emits the Enum record and its members
// under the typedef name.
func collectTypedef(ctx *Context, n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")

	var structOwnName string
	if typeNode != nil && (typeNode.Type() == "struct_specifier" || typeNode.Type() == "union_specifier") {
		nameNode := typeNode.ChildByFieldName("name")
		structOwnName = ctx.text(nameNode)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == typeNode {
			continue
		}
		d := peelDeclarator(ctx, child)
		if d.Name == "" {
			continue
		}

		if typeNode != nil && (typeNode.Type() == "struct_specifier" || typeNode.Type() == "union_specifier") {
			structName := d.Name
			if structOwnName != "" {
				structName = structOwnName
			}
			collectStructBody(ctx, typeNode, structName)
			if structOwnName != "" && structOwnName == d.Name {
				// Suppress the duplicate Type record (§9 "Ordering of
				// duplicate-struct emissions").
				continue
			}
		}
		if typeNode != nil && typeNode.Type() == "enum_specifier" {
			collectEnum(ctx, typeNode, d.Name)
		}

		ctx.emit(symbol.Symbol{Header: symbol.Header{
			Name: d.Name, Kind: symbol.KindType, SourceLine: ctx.line(n), IsExported: true,
		}})
	}
}

// collectDeclaration handles top-level `declaration` nodes: extern
// declarations and named structs/unions without a typedef.
func collectDeclaration(ctx *Context, n *sitter.Node) {
	isExtern := false
	var typeNode *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "storage_class_specifier":
			if ctx.text(child) == "extern" {
				isExtern = true
			}
		case "struct_specifier", "union_specifier", "enum_specifier":
			typeNode = child
		}
	}

	declarators := declaratorChildren(n)

	if len(declarators) == 0 && typeNode != nil {
		switch typeNode.Type() {
		case "struct_specifier", "union_specifier":
			nameNode := typeNode.ChildByFieldName("name")
			name := ctx.text(nameNode)
			if name == "" {
				return
			}
			collectStructBody(ctx, typeNode, name)
			if ctx.Table != nil {
				ctx.Table.MarkNeedsStructKeyword(name)
			}
		case "enum_specifier":
			nameNode := typeNode.ChildByFieldName("name")
			collectEnum(ctx, typeNode, ctx.text(nameNode))
		}
		return
	}

	if isExtern {
		typeText := ctx.text(typeNode)
		for _, decl := range declarators {
			d := peelDeclarator(ctx, decl)
			if d.Name == "" {
				continue
			}
			full := typeText
			if d.Pointer {
				full += "*"
			}
			ctx.emit(symbol.Symbol{
				Header: symbol.Header{
					Name: d.Name, Kind: symbol.KindVariable, SourceLine: ctx.line(n),
					IsExported: false, IsDeclaration: true,
				},
				Type: full, IsArray: len(d.Dims) > 0, Dimensions: dimsFromRaw(d.Dims),
			})
		}
	}
}

// declaratorChildren returns the init_declarator/declarator nodes of a
// declaration, skipping the leading type/storage-class specifiers.
func declaratorChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "storage_class_specifier", "primitive_type", "sized_type_specifier",
			"type_identifier", "struct_specifier", "union_specifier", "enum_specifier",
			"type_qualifier":
			continue
		}
		out = append(out, child)
	}
	return out
}

func collectStructBody(ctx *Context, structNode *sitter.Node, name string) {
	s := symbol.Symbol{Header: symbol.Header{
		Name: name, Kind: symbol.KindStruct, SourceLine: ctx.line(structNode), IsExported: true,
	}}
	body := structNode.ChildByFieldName("body")
	if body == nil {
		ctx.emit(s)
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		fieldDecl := body.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}
		typeNode := fieldDecl.ChildByFieldName("type")
		typeText := ctx.text(typeNode)
		// A field referencing another struct is stored as the plain
		// identifier, never the concatenated "struct<Name>" textual form
		// (§4.2.2).
		if typeNode != nil && typeNode.Type() == "struct_specifier" {
			if nn := typeNode.ChildByFieldName("name"); nn != nil {
				typeText = ctx.text(nn)
			}
		}
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			declNode := fieldDecl.NamedChild(j)
			if declNode == typeNode {
				continue
			}
			d := peelDeclarator(ctx, declNode)
			if d.Name == "" {
				continue
			}
			full := typeText
			if d.Pointer {
				full += "*"
			}
			field := symbol.Field{
				Name: d.Name, Type: full, Dimensions: dimsFromRaw(d.Dims), IsArray: len(d.Dims) > 0,
			}
			s.SetField(field)
			if ctx.Table != nil {
				ctx.Table.AddStructField(name, field.Name, field.Type, field.Dimensions)
			}
			if typeutil.IsReservedFieldName(d.Name) {
				ctx.Warnings = append(ctx.Warnings, diag.NewWarning(diag.CodeFieldReserved, ctx.line(declNode), 0,
					"field '"+d.Name+"' of struct '"+name+"' uses a reserved name").WithRelated(name))
			}
		}
	}
	ctx.emit(s)
}

func collectEnum(ctx *Context, n *sitter.Node, fallbackName string) {
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return
	}
	ctx.emit(symbol.Symbol{Header: symbol.Header{
		Name: name, Kind: symbol.KindEnum, SourceLine: ctx.line(n), IsExported: true,
	}})
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "enumerator" {
			continue
		}
		memberName := ctx.text(member.ChildByFieldName("name"))
		if memberName == "" {
			continue
		}
		ctx.emit(symbol.Symbol{Header: symbol.Header{
			Name: memberName, Kind: symbol.KindEnumMember, SourceLine: ctx.line(member),
			IsExported: true, Parent: name,
		}})
	}
}

// declInfo is the result of peeling one declarator down to its identifier
// leaf, per §4.2.2 "Declarator parsing peels pointer and array layers
// recursively."
type declInfo struct {
	Name    string
	Pointer bool
	Dims    []string // raw bracket text; "" means an empty "[]" (unbounded)
	Params  []*sitter.Node
}

func peelDeclarator(ctx *Context, n *sitter.Node) declInfo {
	if n == nil {
		return declInfo{}
	}
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return declInfo{Name: ctx.text(n)}
	case "init_declarator":
		return peelDeclarator(ctx, n.ChildByFieldName("declarator"))
	case "pointer_declarator":
		d := peelDeclarator(ctx, n.ChildByFieldName("declarator"))
		d.Pointer = true
		return d
	case "array_declarator":
		d := peelDeclarator(ctx, n.ChildByFieldName("declarator"))
		size := n.ChildByFieldName("size")
		d.Dims = append(d.Dims, ctx.text(size))
		return d
	case "function_declarator":
		d := peelDeclarator(ctx, n.ChildByFieldName("declarator"))
		paramsNode := n.ChildByFieldName("parameters")
		if paramsNode != nil {
			for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
				p := paramsNode.NamedChild(i)
				if p.Type() == "parameter_declaration" {
					d.Params = append(d.Params, p)
				}
			}
		}
		return d
	case "parenthesized_declarator":
		// A declarator like `int (x);` is grouped, not a function; its
		// inner parameter list (if any belongs to a deeper
		// function_declarator) is still handled by recursion (§9 open
		// question).
		for i := 0; i < int(n.NamedChildCount()); i++ {
			return peelDeclarator(ctx, n.NamedChild(i))
		}
		return declInfo{}
	}
	return declInfo{}
}

func buildParams(ctx *Context, nodes []*sitter.Node) []symbol.Parameter {
	params := make([]symbol.Parameter, 0, len(nodes))
	for _, p := range nodes {
		typeNode := p.ChildByFieldName("type")
		typeText := ctx.text(typeNode)

		declNode := p.ChildByFieldName("declarator")
		d := peelDeclarator(ctx, declNode)
		full := typeText
		if d.Pointer {
			full += "*"
		}
		params = append(params, symbol.Parameter{
			Name: d.Name, Type: full, IsArray: len(d.Dims) > 0, Dimensions: dimsFromRaw(d.Dims),
		})
	}
	return params
}

// buildSignature renders the canonical textual signature of §3.1:
// "<return> <qualified-name>(<param-types joined by ', '>)".
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

func dimsFromRaw(dims []string) []symbol.Dimension {
	out := make([]symbol.Dimension, 0, len(dims))
	for _, d := range dims {
		out = append(out, typeutil.ParseDimension(d))
	}
	return out
}
