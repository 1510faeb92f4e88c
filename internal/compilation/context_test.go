package compilation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/symbol"
	"github.com/jlaustill/cnextc/internal/symtab"
)

func TestBuildExternalStructFieldsIsIdempotent(t *testing.T) {
	tab := symtab.New()
	tab.AddStructField("InnerConfig", "value", "int", nil)

	ctx := New(tab)
	ctx.BuildExternalStructFields()
	first := ctx.ExternalStructFields()
	ctx.BuildExternalStructFields()
	second := ctx.ExternalStructFields()

	assert.Equal(t, first, second)
	assert.True(t, ctx.IsExternalStructField("InnerConfig", "value"))
	assert.False(t, ctx.IsExternalStructField("InnerConfig", "missing"))
}

func TestResetClearsState(t *testing.T) {
	tab := symtab.New()
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "f"}})
	ctx := New(tab)
	ctx.AddIncludedHeader("stdio.h")
	ctx.BuildExternalStructFields()

	ctx.Reset()

	_, ok := ctx.Table.GetFirst("f")
	assert.False(t, ok)
	assert.False(t, ctx.HasIncludedHeader("stdio.h"))
}

func TestIsExternalStructFieldExcludesSourceStructs(t *testing.T) {
	tab := symtab.New()
	tab.Add(symbol.Symbol{Header: symbol.Header{Name: "Names", Kind: symbol.KindStruct, SourceLanguage: symbol.LangSource}})
	tab.AddStructField("Names", "items", "string", nil)

	ctx := New(tab)
	require.False(t, ctx.IsExternalStructField("Names", "items"))
}
