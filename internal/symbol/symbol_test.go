package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionString(t *testing.T) {
	assert.Equal(t, "17", IntDimension(17).String())
	assert.Equal(t, "BUF_SIZE", SymbolicDimension("BUF_SIZE").String())
	assert.Equal(t, "0", IntDimension(0).String())
	assert.Equal(t, "-3", IntDimension(-3).String())
}

func TestSymbolSetFieldLastWriteWins(t *testing.T) {
	s := &Symbol{Header: Header{Name: "Config", Kind: KindStruct}}
	s.SetField(Field{Name: "count", Type: "u8"})
	s.SetField(Field{Name: "name", Type: "char*"})
	s.SetField(Field{Name: "count", Type: "u16"}) // overwrite

	require.Len(t, s.Fields, 2)
	assert.Equal(t, "count", s.Fields[0].Name, "insertion order preserved for the first occurrence")
	f, ok := s.FieldByName("count")
	require.True(t, ok)
	assert.Equal(t, "u16", f.Type, "last write wins")
}

func TestSymbolFieldByNameMissing(t *testing.T) {
	s := &Symbol{}
	_, ok := s.FieldByName("nope")
	assert.False(t, ok)
}

func TestIsDefinition(t *testing.T) {
	def := Symbol{Header: Header{IsDeclaration: false}}
	decl := Symbol{Header: Header{IsDeclaration: true}}
	assert.True(t, def.IsDefinition())
	assert.False(t, decl.IsDefinition())
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "update", QualifiedName("", "update", LangSource))
	assert.Equal(t, "Motor_update", QualifiedName("Motor", "update", LangSource))
	assert.Equal(t, "Foo_bar", QualifiedName("Foo", "bar", LangC))
	assert.Equal(t, "Motor::update", QualifiedName("Motor", "update", LangCpp))
}
