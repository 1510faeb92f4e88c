package sourcelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunctionDecl(t *testing.T) {
	src := `
/// Updates the motor state.
public void update(u8 speed) {
    return;
}
`
	f, err := Parse("motor.cx", src)
	require.NoError(t, err)
	require.Len(t, f.Decls, 1)

	fn, ok := f.Decls[0].(*FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "update", fn.Name())
	assert.Equal(t, "public", fn.Visibility)
	assert.Equal(t, "void", fn.ReturnType)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "speed", fn.Params[0].NameTok.Text)
	assert.Equal(t, "u8", fn.Params[0].Type)
	require.True(t, fn.IsDefinition())
	require.Len(t, fn.DocComments(), 1)
	assert.Equal(t, "Updates the motor state.", fn.DocComments()[0])
}

func TestParseFunctionDeclarationOnly(t *testing.T) {
	f, err := Parse("motor.cx", "void update(u8 speed);")
	require.NoError(t, err)
	fn, ok := f.Decls[0].(*FunctionDecl)
	require.True(t, ok)
	assert.False(t, fn.IsDefinition())
}

func TestParseStructWithStringField(t *testing.T) {
	src := `
struct Names {
    string<16> label;
    u8 counts[4];
}
`
	f, err := Parse("names.cx", src)
	require.NoError(t, err)
	require.Len(t, f.Decls, 1)
	s, ok := f.Decls[0].(*StructDecl)
	require.True(t, ok)
	assert.Equal(t, "Names", s.Name())
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "string<16>", s.Fields[0].Type)
	assert.True(t, s.Fields[1].IsArray)
	assert.Equal(t, "4", s.Fields[1].Dims[0].Text)
}

func TestParseRegisterDecl(t *testing.T) {
	src := `
register GPIO {
    rw u8 PORTB;
    ro u8 PINB;
}
`
	f, err := Parse("gpio.cx", src)
	require.NoError(t, err)
	r, ok := f.Decls[0].(*RegisterDecl)
	require.True(t, ok)
	require.Len(t, r.Members, 2)
	assert.Equal(t, "rw", r.Members[0].Access)
	assert.Equal(t, "ro", r.Members[1].Access)
}

func TestParseBitmapDecl(t *testing.T) {
	src := `
bitmap Flags : u8 {
    bit enabled;
    bits 3 mode;
}
`
	f, err := Parse("flags.cx", src)
	require.NoError(t, err)
	b, ok := f.Decls[0].(*BitmapDecl)
	require.True(t, ok)
	assert.Equal(t, "u8", b.BackingType)
	require.Len(t, b.Fields, 2)
	assert.Equal(t, 1, b.Fields[0].BitWidth)
	assert.Equal(t, 3, b.Fields[1].BitWidth)
}

func TestParseScopeWithMembers(t *testing.T) {
	src := `
scope Motor {
    u8 speed = 0;
    public void update() {
        speed = 1;
    }
}
`
	f, err := Parse("motor.cx", src)
	require.NoError(t, err)
	sc, ok := f.Decls[0].(*ScopeDecl)
	require.True(t, ok)
	require.Len(t, sc.Members, 2)
	v, ok := sc.Members[0].(*VariableDecl)
	require.True(t, ok)
	assert.Equal(t, "speed", v.Name())
	require.NotNil(t, v.Initializer)
}

func TestParseVariableWithArrowInitializer(t *testing.T) {
	src := `char* p <- fgets(buf, 16, stream);`
	f, err := Parse("stream.cx", src)
	require.NoError(t, err)
	v, ok := f.Decls[0].(*VariableDecl)
	require.True(t, ok)
	assert.Equal(t, "char*", v.Type)
	call, ok := v.Initializer.(*CallExpr)
	require.True(t, ok)
	callee, ok := call.Callee.(*Ident)
	require.True(t, ok)
	assert.Equal(t, "fgets", callee.Name())
}

func TestParseIfElseAndQualifiedCall(t *testing.T) {
	src := `
void run() {
    if (x == NULL) {
        Motor.stop();
    } else {
        Motor.update();
    }
}
`
	f, err := Parse("run.cx", src)
	require.NoError(t, err)
	fn := f.Decls[0].(*FunctionDecl)
	require.Len(t, fn.Body.Stmts, 1)
	ifStmt, ok := fn.Body.Stmts[0].(*IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)

	cond, ok := ifStmt.Cond.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "==", cond.Op)
	_, isNull := cond.Right.(*NullLit)
	assert.True(t, isNull)

	callStmt := ifStmt.Then.Stmts[0].(*ExprStmt)
	call := callStmt.X.(*CallExpr)
	member := call.Callee.(*MemberExpr)
	assert.Equal(t, "stop", member.Name)
	base := member.Base.(*Ident)
	assert.Equal(t, "Motor", base.Name())
}

func TestParseIncludeDirective(t *testing.T) {
	src := `
include "stdio.h";
void f() {}
`
	f, err := Parse("f.cx", src)
	require.NoError(t, err)
	require.Len(t, f.Includes, 1)
	assert.Equal(t, "stdio.h", f.Includes[0])
	require.Len(t, f.Decls, 1)
}

func TestParseSignedAndUnsignedIntLiteralSuffixes(t *testing.T) {
	src := `void f() { arr[5u8]; arr[0]; }`
	f, err := Parse("idx.cx", src)
	require.NoError(t, err)
	fn := f.Decls[0].(*FunctionDecl)
	require.Len(t, fn.Body.Stmts, 2)

	idx1 := fn.Body.Stmts[0].(*ExprStmt).X.(*IndexExpr)
	lit1 := idx1.Index.(*IntLit)
	assert.Equal(t, "5u8", lit1.Tok.Text)

	idx2 := fn.Body.Stmts[1].(*ExprStmt).X.(*IndexExpr)
	lit2 := idx2.Index.(*IntLit)
	assert.Equal(t, "0", lit2.Tok.Text)
}

func TestDocCommentsResetBetweenDeclarations(t *testing.T) {
	src := `
/// First.
void a() {}
void b() {}
`
	f, err := Parse("d.cx", src)
	require.NoError(t, err)
	require.Len(t, f.Decls, 2)
	a := f.Decls[0].(*FunctionDecl)
	b := f.Decls[1].(*FunctionDecl)
	assert.Len(t, a.DocComments(), 1)
	assert.Len(t, b.DocComments(), 0)
}
