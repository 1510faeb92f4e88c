// Package analyze implements the ten fixed-order semantic-analyzer phases of
// §4.3, operating over the source-language AST (internal/sourcelang) with
// cross-language lookups through the explicit compilation.Context (§9)
// instead of a shared global.
package analyze

import (
	"strconv"
	"strings"

	"github.com/jlaustill/cnextc/internal/sourcelang"
	"github.com/jlaustill/cnextc/internal/symbol"
)

// funcInfo pairs a source-language function declaration with its fully
// qualified name (scope-prefixed the same way sourcecollect names it).
type funcInfo struct {
	Qualified string
	Decl      *sourcelang.FunctionDecl
}

// collectAll walks every declaration in a file, recursing into scopes, and
// returns every function and struct it finds. Register/bitmap declarations
// carry no executable bodies and no reserved-name-checkable struct fields in
// the sense phase 2 cares about, so they are left to the collectors.
func collectAll(file *sourcelang.File) ([]funcInfo, []*sourcelang.StructDecl) {
	var funcs []funcInfo
	var structs []*sourcelang.StructDecl
	var walk func(decls []sourcelang.Decl, prefix string)
	walk = func(decls []sourcelang.Decl, prefix string) {
		for _, d := range decls {
			qname := symbol.QualifiedName(prefix, d.Name(), symbol.LangSource)
			switch dd := d.(type) {
			case *sourcelang.ScopeDecl:
				walk(dd.Members, qname)
			case *sourcelang.FunctionDecl:
				funcs = append(funcs, funcInfo{Qualified: qname, Decl: dd})
			case *sourcelang.StructDecl:
				structs = append(structs, dd)
			}
		}
	}
	walk(file.Decls, "")
	return funcs, structs
}

// calleeName extracts the resolvable name of a call's callee: a bare
// identifier call, or a `Scope.member()` qualified call (§8 S5), rendered
// the same way sourcecollect qualifies scope members.
func calleeName(callee sourcelang.Expr) string {
	switch c := callee.(type) {
	case *sourcelang.Ident:
		return c.Name()
	case *sourcelang.MemberExpr:
		if base, ok := c.Base.(*sourcelang.Ident); ok {
			return symbol.QualifiedName(base.Name(), c.Name, symbol.LangSource)
		}
	}
	return ""
}

// forEachExprInBody visits every expression reachable from a function body,
// in no particular position-sensitive order. Phases that only need to know
// "does this shape appear anywhere" (division, modulo, shifts, array
// indices) use this; phases that care about statement position (definite
// initialization, null-safety) walk statements directly instead.
func forEachExprInBody(b *sourcelang.Block, fn func(sourcelang.Expr)) {
	var walkBlock func(*sourcelang.Block)
	var walkStmt func(sourcelang.Stmt)
	walkStmt = func(s sourcelang.Stmt) {
		switch st := s.(type) {
		case *sourcelang.LocalVarStmt:
			if st.Initializer != nil {
				visitExprTree(st.Initializer, fn)
			}
		case *sourcelang.ExprStmt:
			visitExprTree(st.X, fn)
		case *sourcelang.IfStmt:
			visitExprTree(st.Cond, fn)
			walkBlock(st.Then)
			walkBlock(st.Else)
		case *sourcelang.ReturnStmt:
			if st.Value != nil {
				visitExprTree(st.Value, fn)
			}
		case *sourcelang.Block:
			walkBlock(st)
		}
	}
	walkBlock = func(blk *sourcelang.Block) {
		if blk == nil {
			return
		}
		for _, s := range blk.Stmts {
			walkStmt(s)
		}
	}
	walkBlock(b)
}

func visitExprTree(e sourcelang.Expr, fn func(sourcelang.Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch ex := e.(type) {
	case *sourcelang.BinaryExpr:
		visitExprTree(ex.Left, fn)
		visitExprTree(ex.Right, fn)
	case *sourcelang.UnaryExpr:
		visitExprTree(ex.X, fn)
	case *sourcelang.CallExpr:
		visitExprTree(ex.Callee, fn)
		for _, a := range ex.Args {
			visitExprTree(a, fn)
		}
	case *sourcelang.IndexExpr:
		visitExprTree(ex.Base, fn)
		visitExprTree(ex.Index, fn)
	case *sourcelang.MemberExpr:
		visitExprTree(ex.Base, fn)
	case *sourcelang.AssignExpr:
		visitExprTree(ex.Target, fn)
		visitExprTree(ex.Value, fn)
	}
}

// buildTypeEnv builds a name -> declared-type map for a function's
// parameters and local variables, used by phase 3 and the numeric-signedness
// phases (7-9). Locals declared inside one if-branch leaking into a sibling branch
// is a known simplification (§9 open question: no per-block scoping).
func buildTypeEnv(fn *sourcelang.FunctionDecl) map[string]string {
	env := map[string]string{}
	for _, p := range fn.Params {
		env[p.NameTok.Text] = p.Type
	}
	var walk func(*sourcelang.Block)
	walk = func(b *sourcelang.Block) {
		if b == nil {
			return
		}
		for _, s := range b.Stmts {
			switch st := s.(type) {
			case *sourcelang.LocalVarStmt:
				env[st.NameTok.Text] = st.Type
			case *sourcelang.IfStmt:
				walk(st.Then)
				walk(st.Else)
			case *sourcelang.Block:
				walk(st)
			}
		}
	}
	walk(fn.Body)
	return env
}

// numericKind is the signedness/floatness a phase-7..9 check can establish
// about an expression's static type, when it can establish one at all.
type numericKind struct {
	Known    bool
	IsFloat  bool
	IsSigned bool
}

// inferNumeric infers a numericKind for literals, identifiers with a known
// declared type, and unary expressions (which preserve their operand's
// kind). Everything else is reported unknown, which every phase treats as
// "do not flag" — these are static, not provable, checks (§4.3).
func inferNumeric(e sourcelang.Expr, env map[string]string) numericKind {
	switch ex := e.(type) {
	case *sourcelang.IntLit:
		return numericKind{Known: true, IsFloat: false, IsSigned: !strings.Contains(strings.ToLower(ex.Tok.Text), "u")}
	case *sourcelang.FloatLit:
		return numericKind{Known: true, IsFloat: true}
	case *sourcelang.Ident:
		t, ok := env[ex.Name()]
		if !ok {
			return numericKind{}
		}
		return primitiveNumericKind(t)
	case *sourcelang.UnaryExpr:
		return inferNumeric(ex.X, env)
	}
	return numericKind{}
}

func primitiveNumericKind(t string) numericKind {
	switch t {
	case "f32", "f64":
		return numericKind{Known: true, IsFloat: true}
	case "u8", "u16", "u32", "u64":
		return numericKind{Known: true, IsFloat: false, IsSigned: false}
	case "i8", "i16", "i32", "i64":
		return numericKind{Known: true, IsFloat: false, IsSigned: true}
	}
	return numericKind{}
}

// literalNumericValue constant-folds the narrow set of shapes phase 6 needs
// to prove a divisor is zero: a bare literal, or a unary-negated literal.
func literalNumericValue(e sourcelang.Expr) (float64, bool) {
	switch ex := e.(type) {
	case *sourcelang.IntLit:
		return parseLeadingNumber(ex.Tok.Text)
	case *sourcelang.FloatLit:
		return parseLeadingNumber(ex.Tok.Text)
	case *sourcelang.UnaryExpr:
		v, ok := literalNumericValue(ex.X)
		if !ok {
			return 0, false
		}
		if ex.Op == "-" {
			return -v, true
		}
		return v, true
	}
	return 0, false
}

func parseLeadingNumber(text string) (float64, bool) {
	end := 0
	for end < len(text) && ((text[end] >= '0' && text[end] <= '9') || text[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
