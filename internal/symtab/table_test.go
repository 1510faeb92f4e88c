package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/symbol"
)

func TestAddAndGetFirst(t *testing.T) {
	tab := New()
	s := symbol.Symbol{Header: symbol.Header{
		Name: "update", Kind: symbol.KindFunction, SourceFile: "motor.cx",
		SourceLine: 4, SourceLanguage: symbol.LangSource,
	}}
	tab.Add(s)

	got, ok := tab.GetFirst("update")
	require.True(t, ok)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.Kind, got.Kind)
	assert.Equal(t, s.SourceFile, got.SourceFile)
	assert.Equal(t, s.SourceLine, got.SourceLine)
	assert.Equal(t, s.SourceLanguage, got.SourceLanguage)
}

func TestOverloadsPreservesInsertionOrder(t *testing.T) {
	tab := New()
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "add", SourceLine: 1}})
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "add", SourceLine: 2}})
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "add", SourceLine: 3}})

	overloads := tab.Overloads("add")
	require.Len(t, overloads, 3)
	assert.Equal(t, 1, overloads[0].SourceLine)
	assert.Equal(t, 2, overloads[1].SourceLine)
	assert.Equal(t, 3, overloads[2].SourceLine)
}

func TestByFileAndByLanguage(t *testing.T) {
	tab := New()
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "a", SourceFile: "x.cx", SourceLanguage: symbol.LangSource}})
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "b", SourceFile: "x.h", SourceLanguage: symbol.LangC}})
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "c", SourceFile: "x.cx", SourceLanguage: symbol.LangSource}})

	assert.Len(t, tab.ByFile("x.cx"), 2)
	assert.Len(t, tab.ByFile("x.h"), 1)
	assert.Len(t, tab.ByLanguage(symbol.LangSource), 2)
	assert.Len(t, tab.ByLanguage(symbol.LangC), 1)
}

func TestAddStructFieldAndFieldType(t *testing.T) {
	tab := New()
	tab.AddStructField("Config", "count", "u8", nil)
	typ, ok := tab.FieldType("Config", "count")
	require.True(t, ok)
	assert.Equal(t, "u8", typ)

	// Re-add overwrites (last-write-wins) but keeps position.
	tab.AddStructField("Config", "name", "char*", nil)
	tab.AddStructField("Config", "count", "u16", nil)

	fields, ok := tab.FieldsOf("Config")
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "count", fields[0].Name)
	assert.Equal(t, "u16", fields[0].Type)
	assert.Equal(t, "name", fields[1].Name)
}

func TestNeedsStructKeyword(t *testing.T) {
	tab := New()
	assert.False(t, tab.NeedsStructKeyword("Foo"))
	tab.MarkNeedsStructKeyword("Foo")
	assert.True(t, tab.NeedsStructKeyword("Foo"))
}

func TestEnumBitWidth(t *testing.T) {
	tab := New()
	_, ok := tab.EnumBitWidth("Color")
	assert.False(t, ok)
	tab.AddEnumBitWidth("Color", 16)
	w, ok := tab.EnumBitWidth("Color")
	require.True(t, ok)
	assert.Equal(t, 16, w)
}

func TestExternalStructFieldNamesExcludesSourceStructs(t *testing.T) {
	tab := New()
	// Source-language struct: has its own record AND side-table fields.
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "Names", Kind: symbol.KindStruct, SourceLanguage: symbol.LangSource}})
	tab.AddStructField("Names", "items", "string", nil)

	// C struct collected without an eager field walk: side-table only.
	tab.AddStructField("InnerConfig", "value", "int", nil)

	ext := tab.ExternalStructFieldNames()
	_, hasNames := ext["Names"]
	assert.False(t, hasNames, "source-language structs are not external")

	fields, hasInner := ext["InnerConfig"]
	require.True(t, hasInner)
	_, hasValue := fields["value"]
	assert.True(t, hasValue)
}
