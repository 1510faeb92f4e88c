package cppcollect

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/symtab"
)

func parseCpp(t *testing.T, source string) *sitter.Node {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(Language())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree.RootNode()
}

func findByName(syms []symbol.Symbol, name string) (symbol.Symbol, bool) {
	for _, s := range syms {
		if s.Name == name {
			return s, true
		}
	}
	return symbol.Symbol{}, false
}

func TestCollectNamespaceQualifiesMembers(t *testing.T) {
	src := `namespace Motors { void update() {} }`
	root := parseCpp(t, src)
	ctx := NewContext("motors.hpp", src)
	Collect(ctx, root)

	_, hasNs := findByName(ctx.Symbols, "Motors")
	require.True(t, hasNs)
	fn, ok := findByName(ctx.Symbols, "Motors::update")
	require.True(t, ok)
	assert.Equal(t, symbol.KindFunction, fn.Kind)
	assert.Equal(t, symbol.LangCpp, fn.SourceLanguage)
}

// S2 — C++ overload acceptance.
func TestCollectOverloadSet(t *testing.T) {
	src := `int add(int a, int b) { return a; } float add(float a, float b) { return a; }`
	root := parseCpp(t, src)
	ctx := NewContext("math.hpp", src)
	Collect(ctx, root)

	tab := symtab.New()
	for _, s := range ctx.Symbols {
		tab.Add(s)
	}
	overloads := tab.Overloads("add")
	require.Len(t, overloads, 2)
	assert.Empty(t, tab.Conflicts())
}

func TestCollectClassWithFieldsAndMemberFunction(t *testing.T) {
	src := `class Point { public: int x; int y; int sum() { return x + y; } };`
	root := parseCpp(t, src)
	ctx := NewContext("point.hpp", src)
	ctx.Table = symtab.New()
	Collect(ctx, root)

	cls, ok := findByName(ctx.Symbols, "Point")
	require.True(t, ok)
	assert.Equal(t, symbol.KindClass, cls.Kind)
	_, hasX := cls.FieldByName("x")
	assert.True(t, hasX)

	fn, ok := findByName(ctx.Symbols, "Point::sum")
	require.True(t, ok)
	assert.Equal(t, symbol.KindFunction, fn.Kind)

	typ, ok := ctx.Table.FieldType("Point", "x")
	require.True(t, ok)
	assert.Equal(t, "int", typ)
}

func TestCollectEnumWithBackingType(t *testing.T) {
	src := `enum class Color : uint8_t { Red, Green, Blue };`
	root := parseCpp(t, src)
	ctx := NewContext("color.hpp", src)
	ctx.Table = symtab.New()
	Collect(ctx, root)

	e, ok := findByName(ctx.Symbols, "Color")
	require.True(t, ok)
	assert.Equal(t, 8, e.BitWidth)

	w, ok := ctx.Table.EnumBitWidth("Color")
	require.True(t, ok)
	assert.Equal(t, 8, w)

	_, hasRed := findByName(ctx.Symbols, "Red")
	assert.True(t, hasRed)
}

func TestCollectAliasDeclaration(t *testing.T) {
	src := `using Speed = int;`
	root := parseCpp(t, src)
	ctx := NewContext("alias.hpp", src)
	Collect(ctx, root)

	a, ok := findByName(ctx.Symbols, "Speed")
	require.True(t, ok)
	assert.Equal(t, symbol.KindType, a.Kind)
}

func TestCollectAnonymousClassWithTypedefName(t *testing.T) {
	src := `struct { int x; } Point;`
	root := parseCpp(t, src)
	ctx := NewContext("point.hpp", src)
	Collect(ctx, root)

	cls, ok := findByName(ctx.Symbols, "Point")
	require.True(t, ok)
	assert.Equal(t, symbol.KindClass, cls.Kind)
}

func TestCollectFreeFunctionDeclarationVsDefinition(t *testing.T) {
	src := `void f(); void g() {}`
	root := parseCpp(t, src)
	ctx := NewContext("f.hpp", src)
	Collect(ctx, root)

	f, ok := findByName(ctx.Symbols, "f")
	require.True(t, ok)
	assert.True(t, f.IsDeclaration)

	g, ok := findByName(ctx.Symbols, "g")
	require.True(t, ok)
	assert.False(t, g.IsDeclaration)
}
