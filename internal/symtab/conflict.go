package symtab

import (
	"fmt"
	"sort"

	"github.com/jlaustill/cnextc/internal/symbol"
)

// ConflictKind tags the classifier's verdict for a multi-record name-list.
type ConflictKind string

const (
	// ConflictNone is not emitted by Conflicts (only non-empty verdicts are
	// returned); it documents the "ok / overload" acceptance outcomes of
	// §4.1 for callers reasoning about the classifier in isolation.
	ConflictNone            ConflictKind = "ok"
	ConflictOverload        ConflictKind = "overload"
	ConflictCrossLanguage   ConflictKind = "cross_language"
	ConflictDuplicateSource ConflictKind = "duplicate_source_definition"
)

// DefinitionLocation records one definition's provenance for a conflict
// record (§4.1 step 3/4: "listing each definition's (language, file,
// line)").
type DefinitionLocation struct {
	Language symbol.Language
	File     string
	Line     int
}

// Conflict is one classified name-list that failed the SymbolTable's
// acceptance rules.
type Conflict struct {
	Name        string
	Kind        ConflictKind
	Definitions []DefinitionLocation
}

// Classify applies the deterministic conflict classifier of §4.1 to a
// single name's record list. It returns (Conflict{}, false) for a list that
// raises no conflict (≤1 definition, or a valid C++ overload set, or a
// C/C++ declaration-only overlap, or a C/C++ definition sharing a name
// silently accepted per step 5).
func Classify(name string, records []symbol.Symbol) (Conflict, bool) {
	var defs []symbol.Symbol
	for _, r := range records {
		if r.IsDefinition() {
			defs = append(defs, r)
		}
	}

	// Step 1: at most one definition -> no conflict.
	if len(defs) <= 1 {
		return Conflict{}, false
	}

	// Step 2: valid C++ overload set -> no conflict.
	if isValidOverloadSet(defs) {
		return Conflict{}, false
	}

	hasSource := false
	hasCOrCpp := false
	for _, d := range defs {
		switch d.SourceLanguage {
		case symbol.LangSource:
			hasSource = true
		case symbol.LangC, symbol.LangCpp:
			hasCOrCpp = true
		}
	}

	// Step 3: cross-language conflict.
	if hasSource && hasCOrCpp {
		return Conflict{
			Name:        name,
			Kind:        ConflictCrossLanguage,
			Definitions: locations(defs),
		}, true
	}

	// Step 4: duplicate source-language definitions.
	sourceCount := 0
	for _, d := range defs {
		if d.SourceLanguage == symbol.LangSource {
			sourceCount++
		}
	}
	if sourceCount > 1 {
		return Conflict{
			Name:        name,
			Kind:        ConflictDuplicateSource,
			Definitions: locations(defs),
		}, true
	}

	// Step 5: remaining overlap is C and C++ sharing a name -> accept
	// silently.
	return Conflict{}, false
}

// isValidOverloadSet reports whether every definition is a C++ function and
// all signatures are pairwise distinct (§4.1 step 2).
func isValidOverloadSet(defs []symbol.Symbol) bool {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.SourceLanguage != symbol.LangCpp || d.Kind != symbol.KindFunction {
			return false
		}
		if _, dup := seen[d.Signature]; dup {
			return false
		}
		seen[d.Signature] = struct{}{}
	}
	return true
}

func locations(defs []symbol.Symbol) []DefinitionLocation {
	out := make([]DefinitionLocation, 0, len(defs))
	for _, d := range defs {
		out = append(out, DefinitionLocation{Language: d.SourceLanguage, File: d.SourceFile, Line: d.SourceLine})
	}
	return out
}

// Conflicts scans every name-list with more than one record and returns the
// classified conflicts, ordered by name for determinism (the underlying
// map has no inherent order).
func (t *Table) Conflicts() []Conflict {
	names := t.Names()
	sort.Strings(names)

	var out []Conflict
	for _, name := range names {
		records := t.byName[name]
		if len(records) <= 1 {
			continue
		}
		if c, ok := Classify(name, records); ok {
			out = append(out, c)
		}
	}
	return out
}

// Message renders a human-readable summary of a conflict, suitable for the
// "fatal at the boundary between collection and analysis" behavior of §7.
func (c Conflict) Message() string {
	switch c.Kind {
	case ConflictCrossLanguage:
		return fmt.Sprintf("symbol %q is defined in both the source language and a C/C++ header", c.Name)
	case ConflictDuplicateSource:
		return fmt.Sprintf("symbol %q has more than one source-language definition", c.Name)
	default:
		return fmt.Sprintf("symbol %q has a conflict", c.Name)
	}
}
