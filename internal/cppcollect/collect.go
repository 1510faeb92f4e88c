// Package cppcollect implements the C++ symbol collector of §4.2.3: a
// recursive walk over tree-sitter's translation-unit declaration sequence,
// carrying a current namespace path, dispatching on namespace/class/enum/
// alias/simple-declarator shape.
package cppcollect

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tscpp "github.com/smacker/go-tree-sitter/cpp"

	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/symtab"
	"github.com/jlaustill/cnextc/internal/typeutil"
)

// Context is the small shared object every collector call threads through
// (§4.2).
type Context struct {
	File    string
	Source  string
	Symbols []symbol.Symbol
	Table   *symtab.Table
}

// NewContext builds an empty collection Context for a C++ source file.
func NewContext(path, source string) *Context {
	return &Context{File: path, Source: source}
}

// Language returns the tree-sitter grammar for C++.
func Language() *sitter.Language { return tscpp.GetLanguage() }

func (c *Context) emit(s symbol.Symbol) {
	s.SourceFile = c.File
	s.SourceLanguage = symbol.LangCpp
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
// to ctx.Symbols, starting with an empty namespace path.
func Collect(ctx *Context, root *sitter.Node) {
	walkDeclSeq(ctx, root, "")
}

func walkDeclSeq(ctx *Context, n *sitter.Node, namespace string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectDecl(ctx, n.NamedChild(i), namespace)
	}
}

func collectDecl(ctx *Context, n *sitter.Node, namespace string) {
	switch n.Type() {
	case "namespace_definition":
		collectNamespace(ctx, n, namespace)
	case "class_specifier", "struct_specifier":
		collectNamedClass(ctx, n, namespace)
	case "enum_specifier":
		collectEnum(ctx, n, namespace, "")
	case "alias_declaration":
		collectAlias(ctx, n, namespace)
	case "template_declaration":
		// Templates are skipped (§6 "template declaration (skipped)").
	case "declaration":
		collectDeclaration(ctx, n, namespace)
	case "function_definition":
		collectFunctionDefinition(ctx, n, namespace)
	case "linkage_specification":
		// `extern "C" { ... }`: descend into the nested block without
		// changing the namespace path.
		if body := n.ChildByFieldName("body"); body != nil {
			walkDeclSeq(ctx, body, namespace)
		} else {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				collectDecl(ctx, n.NamedChild(i), namespace)
			}
		}
	}
}

func collectNamespace(ctx *Context, n *sitter.Node, namespace string) {
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	qualified := symbol.QualifiedName(namespace, name, symbol.LangCpp)

	ctx.emit(symbol.Symbol{Header: symbol.Header{
		Name: qualified, Kind: symbol.KindNamespace, SourceLine: ctx.line(n),
		IsExported: true, Parent: namespace,
	}})

	body := n.ChildByFieldName("body")
	if body != nil {
		walkDeclSeq(ctx, body, qualified)
	}
}

func collectNamedClass(ctx *Context, n *sitter.Node, namespace string) {
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	if name == "" {
		// Anonymous: handled by the enclosing declaration's declarator
		// (§4.2.3 "Anonymous class with typedef name").
		return
	}
	qualified := symbol.QualifiedName(namespace, name, symbol.LangCpp)
	collectClassBody(ctx, n, qualified, namespace)
}

// collectClassBody emits a Class record and walks its member
// specification, used both for named classes and for anonymous
// classes given a name by an enclosing typedef-like declarator.
func collectClassBody(ctx *Context, classNode *sitter.Node, qualifiedName, namespace string) {
	s := symbol.Symbol{Header: symbol.Header{
		Name: qualifiedName, Kind: symbol.KindClass, SourceLine: ctx.line(classNode),
		IsExported: true, Parent: namespace,
	}}

	body := classNode.ChildByFieldName("body")
	if body == nil {
		ctx.emit(s)
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "function_definition":
			collectMemberFunction(ctx, member, qualifiedName, true)
		case "declaration":
			collectMemberDeclarationOrFields(ctx, member, qualifiedName, &s)
		case "field_declaration":
			collectField(ctx, member, qualifiedName, &s)
		}
	}

	ctx.emit(s)
}

func collectMemberFunction(ctx *Context, n *sitter.Node, owner string, isDefinition bool) {
	typeNode := n.ChildByFieldName("type")
	returnType := ctx.text(typeNode)
	declNode := n.ChildByFieldName("declarator")
	d := peelDeclarator(ctx, declNode)
	if d.Name == "" {
		return
	}
	qualified := symbol.QualifiedName(owner, d.Name, symbol.LangCpp)
	full := returnType
	if d.Pointer {
		full += "*"
	}
	params := buildParams(ctx, d.Params)
	ctx.emit(symbol.Symbol{
		Header: symbol.Header{
			Name: qualified, Kind: symbol.KindFunction, SourceLine: ctx.line(n),
			IsExported: true, Parent: owner, IsDeclaration: !isDefinition,
		},
		ReturnType: full, Parameters: params, Signature: buildSignature(full, qualified, params),
	})
}

// collectMemberDeclarationOrFields handles a `declaration` member: either a
// function-shaped declarator (a prototype member function) or plain data
// fields.
func collectMemberDeclarationOrFields(ctx *Context, n *sitter.Node, owner string, classSym *symbol.Symbol) {
	typeNode := declTypeNode(n)
	typeText := ctx.text(typeNode)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == typeNode {
			continue
		}
		d := peelDeclarator(ctx, child)
		if d.Name == "" {
			continue
		}
		if d.IsFunction {
			qualified := symbol.QualifiedName(owner, d.Name, symbol.LangCpp)
			full := typeText
			if d.Pointer {
				full += "*"
			}
			params := buildParams(ctx, d.Params)
			ctx.emit(symbol.Symbol{
				Header: symbol.Header{
					Name: qualified, Kind: symbol.KindFunction, SourceLine: ctx.line(n),
					IsExported: true, Parent: owner, IsDeclaration: true,
				},
				ReturnType: full, Parameters: params, Signature: buildSignature(full, qualified, params),
			})
			continue
		}

		full := typeText
		if d.Pointer {
			full += "*"
		}
		field := symbol.Field{Name: d.Name, Type: full, Dimensions: dimsFromRaw(d.Dims), IsArray: len(d.Dims) > 0}
		classSym.SetField(field)
		if ctx.Table != nil {
			ctx.Table.AddStructField(owner, field.Name, field.Type, field.Dimensions)
		}
	}
}

func collectField(ctx *Context, n *sitter.Node, owner string, classSym *symbol.Symbol) {
	typeNode := n.ChildByFieldName("type")
	typeText := ctx.text(typeNode)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == typeNode {
			continue
		}
		d := peelDeclarator(ctx, child)
		if d.Name == "" {
			continue
		}
		full := typeText
		if d.Pointer {
			full += "*"
		}
		field := symbol.Field{Name: d.Name, Type: full, Dimensions: dimsFromRaw(d.Dims), IsArray: len(d.Dims) > 0}
		classSym.SetField(field)
		if ctx.Table != nil {
			ctx.Table.AddStructField(owner, field.Name, field.Type, field.Dimensions)
		}
	}
}

func declTypeNode(n *sitter.Node) *sitter.Node {
	if t := n.ChildByFieldName("type"); t != nil {
		return t
	}
	return nil
}

func collectEnum(ctx *Context, n *sitter.Node, namespace, fallbackName string) {
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return
	}
	qualified := symbol.QualifiedName(namespace, name, symbol.LangCpp)

	s := symbol.Symbol{Header: symbol.Header{
		Name: qualified, Kind: symbol.KindEnum, SourceLine: ctx.line(n), IsExported: true, Parent: namespace,
	}}

	if base := enumBaseType(ctx, n); base != "" {
		if w, ok := typeutil.BitWidthOf(base); ok {
			s.BitWidth = w
			if ctx.Table != nil {
				ctx.Table.AddEnumBitWidth(qualified, w)
			}
		}
	}
	ctx.emit(s)

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
			IsExported: true, Parent: qualified,
		}})
	}
}

// enumBaseType extracts the textual backing type of `enum Name : base { ...
// }` by scanning for a primitive/sized-type/type-identifier node between
// the enum's name and its body.
func enumBaseType(ctx *Context, n *sitter.Node) string {
	nameNode := n.ChildByFieldName("name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if nameNode != nil && child == nameNode {
			continue
		}
		switch child.Type() {
		case "primitive_type", "sized_type_specifier", "type_identifier":
			return ctx.text(child)
		}
	}
	return ""
}

func collectAlias(ctx *Context, n *sitter.Node, namespace string) {
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	if name == "" {
		return
	}
	qualified := symbol.QualifiedName(namespace, name, symbol.LangCpp)
	ctx.emit(symbol.Symbol{Header: symbol.Header{
		Name: qualified, Kind: symbol.KindType, SourceLine: ctx.line(n), IsExported: true, Parent: namespace,
	}})
}

// collectFunctionDefinition handles a free (non-member) function
// definition at namespace scope.
func collectFunctionDefinition(ctx *Context, n *sitter.Node, namespace string) {
	typeNode := n.ChildByFieldName("type")
	returnType := ctx.text(typeNode)
	declNode := n.ChildByFieldName("declarator")
	d := peelDeclarator(ctx, declNode)
	if d.Name == "" {
		return
	}
	qualified := symbol.QualifiedName(namespace, d.Name, symbol.LangCpp)
	full := returnType
	if d.Pointer {
		full += "*"
	}
	params := buildParams(ctx, d.Params)
	ctx.emit(symbol.Symbol{
		Header: symbol.Header{
			Name: qualified, Kind: symbol.KindFunction, SourceLine: ctx.line(n),
			IsExported: true, Parent: namespace, IsDeclaration: false,
		},
		ReturnType: full, Parameters: params, Signature: buildSignature(full, qualified, params),
	})
}

// collectDeclaration handles a namespace-scope `declaration` node: either a
// simple function-shaped declarator (a function declaration) or a variable,
// or an anonymous class/struct given a name by its declarator (§4.2.3
// "Anonymous class with typedef name").
func collectDeclaration(ctx *Context, n *sitter.Node, namespace string) {
	typeNode := declTypeNode(n)
	if typeNode != nil && (typeNode.Type() == "class_specifier" || typeNode.Type() == "struct_specifier") {
		if nameNode := typeNode.ChildByFieldName("name"); nameNode == nil || ctx.text(nameNode) == "" {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child == typeNode {
					continue
				}
				d := peelDeclarator(ctx, child)
				if d.Name == "" {
					continue
				}
				qualified := symbol.QualifiedName(namespace, d.Name, symbol.LangCpp)
				collectClassBody(ctx, typeNode, qualified, namespace)
			}
			return
		}
	}

	typeText := ctx.text(typeNode)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == typeNode {
			continue
		}
		d := peelDeclarator(ctx, child)
		if d.Name == "" {
			continue
		}
		qualified := symbol.QualifiedName(namespace, d.Name, symbol.LangCpp)
		full := typeText
		if d.Pointer {
			full += "*"
		}
		if d.IsFunction {
			params := buildParams(ctx, d.Params)
			ctx.emit(symbol.Symbol{
				Header: symbol.Header{
					Name: qualified, Kind: symbol.KindFunction, SourceLine: ctx.line(n),
					IsExported: true, Parent: namespace, IsDeclaration: true,
				},
				ReturnType: full, Parameters: params, Signature: buildSignature(full, qualified, params),
			})
			continue
		}
		ctx.emit(symbol.Symbol{
			Header: symbol.Header{
				Name: qualified, Kind: symbol.KindVariable, SourceLine: ctx.line(n),
				IsExported: true, Parent: namespace,
			},
			Type: full, IsArray: len(d.Dims) > 0, Dimensions: dimsFromRaw(d.Dims),
		})
	}
}

// ---- Declarator peeling (shared shape with ccollect) ----

type declInfo struct {
	Name       string
	Pointer    bool
	Dims       []string
	IsFunction bool
	Params     []*sitter.Node
}

func peelDeclarator(ctx *Context, n *sitter.Node) declInfo {
	if n == nil {
		return declInfo{}
	}
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier", "destructor_name", "operator_name":
		return declInfo{Name: ctx.text(n)}
	case "init_declarator":
		return peelDeclarator(ctx, n.ChildByFieldName("declarator"))
	case "pointer_declarator", "reference_declarator":
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
		d.IsFunction = true
		paramsNode := n.ChildByFieldName("parameters")
		if paramsNode != nil {
			for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
				p := paramsNode.NamedChild(i)
				if p.Type() == "parameter_declaration" || p.Type() == "optional_parameter_declaration" {
					d.Params = append(d.Params, p)
				}
			}
		}
		return d
	case "qualified_identifier":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			return peelDeclarator(ctx, nameNode)
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
