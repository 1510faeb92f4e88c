package analyze

import (
	"fmt"

	"github.com/jlaustill/cnextc/internal/compilation"
	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/sourcelang"
	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/typeutil"
)

// Phase is one named, independently runnable analyzer pass. The pipeline
// runner (internal/pipeline) owns the fixed 1..10 ordering and the
// short-circuit-except-phase-10 protocol (§4.3); this package only supplies
// the phase bodies.
type Phase struct {
	Name string
	Run  func(file *sourcelang.File, ctx *compilation.Context) diag.Errors
}

// Phases lists the ten analyzer phases in the fixed execution order §4.3
// requires.
var Phases = []Phase{
	{Name: "parameter-naming", Run: ParameterNaming},
	{Name: "struct-field-naming", Run: StructFieldNaming},
	{Name: "definite-initialization", Run: DefiniteInitialization},
	{Name: "define-before-use", Run: DefineBeforeUse},
	{Name: "null-safety", Run: NullSafety},
	{Name: "division-by-zero", Run: DivisionByZero},
	{Name: "float-modulo", Run: FloatModulo},
	{Name: "array-index-signedness", Run: ArrayIndexSignedness},
	{Name: "signed-shift", Run: SignedShift},
	{Name: "comment-validation", Run: CommentValidation},
}

// ParameterNaming is phase 1: parameter names are checked against the same
// reserved-name policy phase 2 applies to struct fields (§4.3; the source
// document's code table does not name a dedicated phase-1 code, so this
// reuses the reserved-name family under CodeParameterReserved).
func ParameterNaming(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		for _, p := range f.Decl.Params {
			if typeutil.IsReservedFieldName(p.NameTok.Text) {
				errs = append(errs, diag.NewError(diag.CodeParameterReserved, p.NameTok.Line, p.NameTok.Column,
					fmt.Sprintf("parameter %q of %s uses a reserved name", p.NameTok.Text, f.Qualified)).
					WithRelated(f.Qualified))
			}
		}
	}
	return errs
}

// StructFieldNaming is phase 2: every field of a source-language struct
// declaration is checked against the reserved-name policy.
func StructFieldNaming(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	_, structs := collectAll(file)
	var errs diag.Errors
	for _, s := range structs {
		for _, f := range s.Fields {
			if typeutil.IsReservedFieldName(f.NameTok.Text) {
				errs = append(errs, diag.NewError(diag.CodeFieldReserved, f.NameTok.Line, f.NameTok.Column,
					fmt.Sprintf("field %q of struct %s uses a reserved name", f.NameTok.Text, s.Name())).
					WithRelated(s.Name()))
			}
		}
	}
	return errs
}

// isExemptFromInit reports whether a declared type is a C++ class or
// struct, which the language treats as default-constructed and therefore
// never "uninitialized" even without an explicit initializer (§4.3
// "cross-language aware").
func isExemptFromInit(ctx *compilation.Context, typeName string) bool {
	sym, ok := ctx.Table.GetFirst(typeName)
	if !ok {
		return false
	}
	if sym.SourceLanguage != symbol.LangCpp {
		return false
	}
	return sym.Kind == symbol.KindClass || sym.Kind == symbol.KindStruct
}

// DefiniteInitialization is phase 3: every local variable must be assigned
// before it is read. Initialization state is tracked per function in
// declaration order; an if/else narrows a variable back to initialized only
// when both branches initialize it.
func DefiniteInitialization(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		uninitialized := map[string]bool{}
		env := buildTypeEnv(f.Decl)
		walkBlockForInit(f.Decl.Body, uninitialized, ctx, env, &errs)
	}
	return errs
}

func cloneBoolSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func walkBlockForInit(b *sourcelang.Block, uninitialized map[string]bool, ctx *compilation.Context, env map[string]string, errs *diag.Errors) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		walkStmtForInit(s, uninitialized, ctx, env, errs)
	}
}

func walkStmtForInit(s sourcelang.Stmt, uninitialized map[string]bool, ctx *compilation.Context, env map[string]string, errs *diag.Errors) {
	switch st := s.(type) {
	case *sourcelang.LocalVarStmt:
		if st.Initializer != nil {
			walkExprForInit(st.Initializer, uninitialized, ctx, env, errs)
			delete(uninitialized, st.NameTok.Text)
		} else if !st.IsArray && !isExemptFromInit(ctx, st.Type) {
			uninitialized[st.NameTok.Text] = true
		}
	case *sourcelang.ExprStmt:
		walkExprForInit(st.X, uninitialized, ctx, env, errs)
	case *sourcelang.IfStmt:
		walkExprForInit(st.Cond, uninitialized, ctx, env, errs)
		thenCopy := cloneBoolSet(uninitialized)
		walkBlockForInit(st.Then, thenCopy, ctx, env, errs)
		if st.Else != nil {
			elseCopy := cloneBoolSet(uninitialized)
			walkBlockForInit(st.Else, elseCopy, ctx, env, errs)
			for k := range uninitialized {
				if !thenCopy[k] && !elseCopy[k] {
					delete(uninitialized, k)
				}
			}
		}
	case *sourcelang.ReturnStmt:
		if st.Value != nil {
			walkExprForInit(st.Value, uninitialized, ctx, env, errs)
		}
	case *sourcelang.Block:
		walkBlockForInit(st, uninitialized, ctx, env, errs)
	}
}

// fieldIsExternal reports whether a MemberExpr's base resolves, through the
// function's declared-type environment, to a struct type whose field is
// known (via the SymbolTable's external-struct-fields cache, §4.4) to
// originate from a C or C++ header. Such fields are populated by the
// external definition, not by this function, so reading them is never a
// use-before-init (§ GLOSSARY "External struct fields").
func fieldIsExternal(ctx *compilation.Context, env map[string]string, ex *sourcelang.MemberExpr) bool {
	id, ok := ex.Base.(*sourcelang.Ident)
	if !ok {
		return false
	}
	structType, known := env[id.Name()]
	if !known {
		return false
	}
	return ctx.IsExternalStructField(structType, ex.Name)
}

func walkExprForInit(e sourcelang.Expr, uninitialized map[string]bool, ctx *compilation.Context, env map[string]string, errs *diag.Errors) {
	switch ex := e.(type) {
	case *sourcelang.Ident:
		if uninitialized[ex.Name()] {
			*errs = append(*errs, diag.NewError(diag.CodeUseBeforeInit, ex.Line(), 0,
				fmt.Sprintf("%q is read before it is initialized", ex.Name())).WithRelated(ex.Name()))
		}
	case *sourcelang.AssignExpr:
		walkExprForInit(ex.Value, uninitialized, ctx, env, errs)
		if id, ok := ex.Target.(*sourcelang.Ident); ok {
			delete(uninitialized, id.Name())
		} else {
			walkExprForInit(ex.Target, uninitialized, ctx, env, errs)
		}
	case *sourcelang.BinaryExpr:
		walkExprForInit(ex.Left, uninitialized, ctx, env, errs)
		walkExprForInit(ex.Right, uninitialized, ctx, env, errs)
	case *sourcelang.UnaryExpr:
		walkExprForInit(ex.X, uninitialized, ctx, env, errs)
	case *sourcelang.CallExpr:
		walkExprForInit(ex.Callee, uninitialized, ctx, env, errs)
		for _, a := range ex.Args {
			walkExprForInit(a, uninitialized, ctx, env, errs)
		}
	case *sourcelang.IndexExpr:
		walkExprForInit(ex.Base, uninitialized, ctx, env, errs)
		walkExprForInit(ex.Index, uninitialized, ctx, env, errs)
	case *sourcelang.MemberExpr:
		if fieldIsExternal(ctx, env, ex) {
			return
		}
		walkExprForInit(ex.Base, uninitialized, ctx, env, errs)
	}
}

// DefineBeforeUse is phase 4: every call's callee must resolve to (a) the
// enclosing function itself, which is always a forbidden self-recursion
// regardless of whether it is otherwise defined, (b) a compiler intrinsic,
// (c) a standard-library function of an included header, (d) a symbol
// already present in the table as a function, in any of the three
// languages. Anything else is a call before definition.
func DefineBeforeUse(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		selfNames := map[string]bool{f.Decl.Name(): true, f.Qualified: true}
		forEachExprInBody(f.Decl.Body, func(e sourcelang.Expr) {
			if ce, ok := e.(*sourcelang.CallExpr); ok {
				checkCallResolution(ce, selfNames, ctx, &errs)
			}
		})
	}
	return errs
}

func checkCallResolution(ce *sourcelang.CallExpr, selfNames map[string]bool, ctx *compilation.Context, errs *diag.Errors) {
	name := calleeName(ce.Callee)
	if name == "" {
		return
	}
	if selfNames[name] {
		*errs = append(*errs, diag.NewError(diag.CodeRecursiveCall, ce.Line(), 0,
			fmt.Sprintf("%q calls itself; recursion is forbidden", name)).WithRelated(name))
		return
	}
	if typeutil.IsCompilerIntrinsic(name) {
		return
	}
	if typeutil.StdlibFunction(name, ctx.IncludedHeaderList()) {
		return
	}
	if sym, ok := ctx.Table.GetFirst(name); ok && sym.Kind == symbol.KindFunction {
		return
	}
	*errs = append(*errs, diag.NewError(diag.CodeCallBeforeDefinition, ce.Line(), 0,
		fmt.Sprintf("call to %q before it is defined or recognized", name)).WithRelated(name))
}

// NullSafety is phase 5: whitelisted C stream functions (fgets, fputs, ...)
// must be used only as a direct operand of a NULL equality comparison;
// fully forbidden functions (fopen, malloc, ...) are always an error; a bare
// NULL literal outside such a comparison is always an error (§4.3, §8 S4).
func NullSafety(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		for _, s := range f.Decl.Body.Stmts {
			checkNullSafetyStmt(s, &errs)
		}
	}
	return errs
}

const (
	posCompared = "compared"
	posStored   = "stored"
	posBare     = "bare"
	posOther    = "other"
)

func checkNullSafetyStmt(s sourcelang.Stmt, errs *diag.Errors) {
	switch st := s.(type) {
	case *sourcelang.LocalVarStmt:
		if st.Initializer != nil {
			checkNullSafetyExpr(st.Initializer, posStored, errs)
		}
	case *sourcelang.ExprStmt:
		checkNullSafetyExpr(st.X, posBare, errs)
	case *sourcelang.IfStmt:
		checkNullSafetyExpr(st.Cond, posOther, errs)
		if st.Then != nil {
			for _, s2 := range st.Then.Stmts {
				checkNullSafetyStmt(s2, errs)
			}
		}
		if st.Else != nil {
			for _, s2 := range st.Else.Stmts {
				checkNullSafetyStmt(s2, errs)
			}
		}
	case *sourcelang.ReturnStmt:
		if st.Value != nil {
			checkNullSafetyExpr(st.Value, posBare, errs)
		}
	case *sourcelang.Block:
		for _, s2 := range st.Stmts {
			checkNullSafetyStmt(s2, errs)
		}
	}
}

func checkNullSafetyExpr(e sourcelang.Expr, pos string, errs *diag.Errors) {
	switch ex := e.(type) {
	case *sourcelang.NullLit:
		if pos != posCompared {
			*errs = append(*errs, diag.NewError(diag.CodeNullOutsideCompare, ex.Line(), 0,
				"NULL is used outside an equality comparison"))
		}
	case *sourcelang.CallExpr:
		name := calleeName(ex.Callee)
		if reason, ok := typeutil.ForbiddenReason(name); ok {
			*errs = append(*errs, diag.NewError(diag.CodeForbiddenFunction, ex.Line(), 0,
				fmt.Sprintf("%q is forbidden: %s", name, reason)).WithRelated(name))
		}
		if _, white := typeutil.StreamWhitelist[name]; white {
			switch pos {
			case posCompared:
				// Directly inside a NULL comparison: compliant.
			case posStored:
				*errs = append(*errs, diag.NewError(diag.CodeStoredStreamResult, ex.Line(), 0,
					fmt.Sprintf("result of %q is stored without a NULL check", name)).WithRelated(name))
			default:
				*errs = append(*errs, diag.NewError(diag.CodeMissingNullCheck, ex.Line(), 0,
					fmt.Sprintf("result of %q is used without a NULL check", name)).WithRelated(name))
			}
		}
		checkNullSafetyExpr(ex.Callee, posOther, errs)
		for _, a := range ex.Args {
			checkNullSafetyExpr(a, posOther, errs)
		}
	case *sourcelang.BinaryExpr:
		if ex.Op == "==" || ex.Op == "!=" {
			checkNullSafetyExpr(ex.Left, posCompared, errs)
			checkNullSafetyExpr(ex.Right, posCompared, errs)
		} else {
			checkNullSafetyExpr(ex.Left, posOther, errs)
			checkNullSafetyExpr(ex.Right, posOther, errs)
		}
	case *sourcelang.UnaryExpr:
		checkNullSafetyExpr(ex.X, posOther, errs)
	case *sourcelang.IndexExpr:
		checkNullSafetyExpr(ex.Base, posOther, errs)
		checkNullSafetyExpr(ex.Index, posOther, errs)
	case *sourcelang.MemberExpr:
		checkNullSafetyExpr(ex.Base, posOther, errs)
	case *sourcelang.AssignExpr:
		checkNullSafetyExpr(ex.Target, posOther, errs)
		checkNullSafetyExpr(ex.Value, posStored, errs)
	}
}

// DivisionByZero is phase 6: a constant-folded divisor of zero is always an
// error, regardless of whether the division is integer or floating-point.
func DivisionByZero(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		forEachExprInBody(f.Decl.Body, func(e sourcelang.Expr) {
			be, ok := e.(*sourcelang.BinaryExpr)
			if !ok || be.Op != "/" {
				return
			}
			if v, ok := literalNumericValue(be.Right); ok && v == 0 {
				errs = append(errs, diag.NewError(diag.CodeDivisionByZero, be.Line(), 0,
					"division by a constant zero divisor"))
			}
		})
	}
	return errs
}

// FloatModulo is phase 7: the modulo operator is an error when either
// operand is statically known to be floating-point.
func FloatModulo(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		env := buildTypeEnv(f.Decl)
		forEachExprInBody(f.Decl.Body, func(e sourcelang.Expr) {
			be, ok := e.(*sourcelang.BinaryExpr)
			if !ok || be.Op != "%" {
				return
			}
			l := inferNumeric(be.Left, env)
			r := inferNumeric(be.Right, env)
			if (l.Known && l.IsFloat) || (r.Known && r.IsFloat) {
				errs = append(errs, diag.NewError(diag.CodeFloatModulo, be.Line(), 0,
					"modulo of a floating-point operand"))
			}
		})
	}
	return errs
}

// ArrayIndexSignedness is phase 8: an array index with a statically known
// signed integer type is an error (§8 boundary case: unsigned does not
// fire).
func ArrayIndexSignedness(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		env := buildTypeEnv(f.Decl)
		forEachExprInBody(f.Decl.Body, func(e sourcelang.Expr) {
			ie, ok := e.(*sourcelang.IndexExpr)
			if !ok {
				return
			}
			k := inferNumeric(ie.Index, env)
			if k.Known && !k.IsFloat && k.IsSigned {
				errs = append(errs, diag.NewError(diag.CodeArrayIndexSigned, ie.Line(), 0,
					"array index has a signed type"))
			}
		})
	}
	return errs
}

// SignedShift is phase 9: a shift operator with a statically known signed
// operand, on either side, is an error.
func SignedShift(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	funcs, _ := collectAll(file)
	var errs diag.Errors
	for _, f := range funcs {
		if f.Decl.Body == nil {
			continue
		}
		env := buildTypeEnv(f.Decl)
		forEachExprInBody(f.Decl.Body, func(e sourcelang.Expr) {
			be, ok := e.(*sourcelang.BinaryExpr)
			if !ok || (be.Op != "<<" && be.Op != ">>") {
				return
			}
			l := inferNumeric(be.Left, env)
			r := inferNumeric(be.Right, env)
			if (l.Known && !l.IsFloat && l.IsSigned) || (r.Known && !r.IsFloat && r.IsSigned) {
				errs = append(errs, diag.NewError(diag.CodeSignedShift, be.Line(), 0,
					"shift operand has a signed type"))
			}
		})
	}
	return errs
}

// CommentValidation is phase 10: it scans the raw comment-token stream for
// a nested comment-start marker (MISRA 3.1) and always runs, even when an
// earlier phase already short-circuited the rest of the pipeline (§4.3).
func CommentValidation(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	var errs diag.Errors
	for _, c := range file.Comments {
		if containsNestedMarker(c.Text) {
			errs = append(errs, diag.NewError(diag.CodeNestedComment, c.Line, c.Column,
				"comment contains a nested comment-start marker").WithRule("MISRA-3.1"))
		}
	}
	return errs
}

func containsNestedMarker(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '/' && text[i+1] == '*' {
			return true
		}
	}
	return false
}
