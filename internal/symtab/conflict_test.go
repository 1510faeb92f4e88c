package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/symbol"
)

func def(lang symbol.Language, kind symbol.Kind, file string, line int, sig string) symbol.Symbol {
	return symbol.Symbol{
		Header: symbol.Header{
			Name: "x", Kind: kind, SourceFile: file, SourceLine: line,
			SourceLanguage: lang, IsDeclaration: false,
		},
		Signature: sig,
	}
}

func decl(lang symbol.Language, file string, line int) symbol.Symbol {
	s := def(lang, symbol.KindFunction, file, line, "")
	s.IsDeclaration = true
	return s
}

// S1 — cross-language conflict.
func TestClassify_CrossLanguageConflict(t *testing.T) {
	records := []symbol.Symbol{
		def(symbol.LangSource, symbol.KindFunction, "motor.cx", 3, "void update()"),
		def(symbol.LangC, symbol.KindFunction, "motor.h", 10, "void update(void)"),
	}
	c, ok := Classify("update", records)
	require.True(t, ok)
	assert.Equal(t, ConflictCrossLanguage, c.Kind)
	assert.Len(t, c.Definitions, 2)
}

// S2 — C++ overload acceptance.
func TestClassify_ValidOverloadSet(t *testing.T) {
	records := []symbol.Symbol{
		def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 1, "int add(int, int)"),
		def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 2, "float add(float, float)"),
	}
	_, ok := Classify("add", records)
	assert.False(t, ok)
}

func TestClassify_DuplicateCppSignatureAcceptedSilently(t *testing.T) {
	records := []symbol.Symbol{
		def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 1, "int add(int, int)"),
		def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 2, "int add(int, int)"),
	}
	_, ok := Classify("add", records)
	assert.False(t, ok, "two C/C++ definitions sharing a name with no source-language def are accepted per step 5")
}

func TestClassify_DuplicateSourceDefinition(t *testing.T) {
	records := []symbol.Symbol{
		def(symbol.LangSource, symbol.KindFunction, "a.cx", 1, ""),
		def(symbol.LangSource, symbol.KindFunction, "b.cx", 9, ""),
	}
	c, ok := Classify("f", records)
	require.True(t, ok)
	assert.Equal(t, ConflictDuplicateSource, c.Kind)
}

func TestClassify_SingleDefinitionNoConflict(t *testing.T) {
	records := []symbol.Symbol{def(symbol.LangSource, symbol.KindFunction, "a.cx", 1, "")}
	_, ok := Classify("f", records)
	assert.False(t, ok)
}

func TestClassify_DeclarationsOnlyNoConflict(t *testing.T) {
	records := []symbol.Symbol{
		decl(symbol.LangC, "a.h", 1),
		decl(symbol.LangC, "b.h", 2),
		decl(symbol.LangCpp, "c.hpp", 3),
	}
	_, ok := Classify("f", records)
	assert.False(t, ok)
}

func TestConflictsIsIdempotent(t *testing.T) {
	records := []symbol.Symbol{
		def(symbol.LangSource, symbol.KindFunction, "motor.cx", 3, "void update()"),
		def(symbol.LangC, symbol.KindFunction, "motor.h", 10, "void update(void)"),
	}
	c1, _ := Classify("update", records)
	c2, _ := Classify("update", records)
	assert.Equal(t, c1, c2)
}

func TestTableConflictsSortedAndClassified(t *testing.T) {
	tab := New()
	tab.Add(def(symbol.LangSource, symbol.KindFunction, "motor.cx", 3, "void update()"))
	tab.Add(def(symbol.LangC, symbol.KindFunction, "motor.h", 10, "void update(void)"))
	tab.Add(def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 1, "int add(int,int)"))
	tab.Add(def(symbol.LangCpp, symbol.KindFunction, "math.hpp", 2, "float add(float,float)"))

	conflicts := tab.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "update", conflicts[0].Name)
	assert.Equal(t, ConflictCrossLanguage, conflicts[0].Kind)
}
