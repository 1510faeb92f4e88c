// Package symtab implements the cross-language SymbolTable of §3.2/§4.1:
// a name-indexed multi-map of symbol records, a per-file index, the
// struct-field and enum-width side tables, and the "needs struct keyword"
// set, together with the conflict classifier (component 10).
package symtab

import "github.com/jlaustill/cnextc/internal/symbol"

// structField is one entry of the struct-field side table, keyed by struct
// name then field name, last-write-wins on re-add (§4.1 add_struct_field).
type structField struct {
	Type       string
	Dimensions []symbol.Dimension
}

// fieldEntry preserves insertion order for fields_of().
type fieldEntry struct {
	name string
	structField
}

// Table is the cross-language SymbolTable. Zero value is not usable; use
// New.
type Table struct {
	byName map[string][]symbol.Symbol
	byFile map[string][]symbol.Symbol

	structFields     map[string][]fieldEntry
	structFieldIndex map[string]map[string]int // struct -> field -> index into structFields[struct]

	enumBitWidth map[string]int

	needsStructKeyword map[string]struct{}
}

// New creates an empty SymbolTable, ready to receive symbols from the three
// collectors for one compilation unit.
func New() *Table {
	return &Table{
		byName:             make(map[string][]symbol.Symbol),
		byFile:             make(map[string][]symbol.Symbol),
		structFields:       make(map[string][]fieldEntry),
		structFieldIndex:   make(map[string]map[string]int),
		enumBitWidth:       make(map[string]int),
		needsStructKeyword: make(map[string]struct{}),
	}
}

// Add appends a symbol to both the name index and the file index. No
// deduplication happens here — conflict judgement is query-time (§4.1).
func (t *Table) Add(s symbol.Symbol) {
	t.byName[s.Name] = append(t.byName[s.Name], s)
	if s.SourceFile != "" {
		t.byFile[s.SourceFile] = append(t.byFile[s.SourceFile], s)
	}
}

// GetFirst returns the first record for a name, if any.
func (t *Table) GetFirst(name string) (symbol.Symbol, bool) {
	list := t.byName[name]
	if len(list) == 0 {
		return symbol.Symbol{}, false
	}
	return list[0], true
}

// Overloads returns every record for a name, in insertion order.
func (t *Table) Overloads(name string) []symbol.Symbol {
	return t.byName[name]
}

// ByFile returns every record collected from a given source file, in
// insertion order.
func (t *Table) ByFile(path string) []symbol.Symbol {
	return t.byFile[path]
}

// ByLanguage returns every record from a given source language, across all
// files. Records sharing a name keep their insertion order; the order
// across different names is not defined.
func (t *Table) ByLanguage(lang symbol.Language) []symbol.Symbol {
	var out []symbol.Symbol
	for _, list := range t.byName {
		for _, s := range list {
			if s.SourceLanguage == lang {
				out = append(out, s)
			}
		}
	}
	return out
}

// Names returns every distinct name currently indexed. Order is
// unspecified; callers that need deterministic iteration (e.g. Conflicts)
// must sort.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	return names
}

// AddStructField appends to a struct's ordered field map; a re-add of the
// same field name overwrites in place (last-write-wins) but keeps its
// original position (§4.1).
func (t *Table) AddStructField(structName, fieldName, fieldType string, dims []symbol.Dimension) {
	if t.structFieldIndex[structName] == nil {
		t.structFieldIndex[structName] = make(map[string]int)
	}
	entry := fieldEntry{name: fieldName, structField: structField{Type: fieldType, Dimensions: dims}}
	if idx, ok := t.structFieldIndex[structName][fieldName]; ok {
		t.structFields[structName][idx] = entry
		return
	}
	t.structFieldIndex[structName][fieldName] = len(t.structFields[structName])
	t.structFields[structName] = append(t.structFields[structName], entry)
}

// FieldType returns the type recorded for a struct's field, if any.
func (t *Table) FieldType(structName, fieldName string) (string, bool) {
	idx, ok := t.structFieldIndex[structName]
	if !ok {
		return "", false
	}
	pos, ok := idx[fieldName]
	if !ok {
		return "", false
	}
	return t.structFields[structName][pos].Type, true
}

// FieldsOf returns the ordered field list recorded for a struct, if any.
func (t *Table) FieldsOf(structName string) ([]symbol.Field, bool) {
	entries, ok := t.structFields[structName]
	if !ok {
		return nil, false
	}
	out := make([]symbol.Field, 0, len(entries))
	for _, e := range entries {
		out = append(out, symbol.Field{Name: e.name, Type: e.Type, Dimensions: e.Dimensions})
	}
	return out, true
}

// MarkNeedsStructKeyword records that a C struct name must be referred to
// as "struct Name" by downstream emission (no typedef was declared for it).
func (t *Table) MarkNeedsStructKeyword(name string) {
	t.needsStructKeyword[name] = struct{}{}
}

// NeedsStructKeyword reports whether a name was marked via
// MarkNeedsStructKeyword.
func (t *Table) NeedsStructKeyword(name string) bool {
	_, ok := t.needsStructKeyword[name]
	return ok
}

// AddEnumBitWidth records the backing-type bit width for an enum.
func (t *Table) AddEnumBitWidth(enumName string, width int) {
	t.enumBitWidth[enumName] = width
}

// EnumBitWidth returns the recorded backing-type bit width for an enum, if
// any.
func (t *Table) EnumBitWidth(enumName string) (int, bool) {
	w, ok := t.enumBitWidth[enumName]
	return w, ok
}

// ExternalStructFieldNames returns, for every struct name recorded in the
// struct-field side table that was NOT collected from the source language,
// the set of its field names. This is the strict function of the table's
// contents that the shared-state cache in §3.3 invariant 6 must rebuild
// from; it is exposed here so internal/compilation can build that cache
// without reaching into table internals.
func (t *Table) ExternalStructFieldNames() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for structName, entries := range t.structFields {
		// A struct is "external" if its own symbol record (if any) was not
		// collected from the source language. Structs with no own record
		// (C structs collected without an eager field walk, per §4.1) are
		// external by construction — every struct the source-language
		// collector adds to this side table is also emitted as its own
		// symbol, so a source-language struct always has a matching byName
		// record.
		def, ok := t.GetFirst(structName)
		if ok && def.SourceLanguage == symbol.LangSource {
			continue
		}
		fields := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			fields[e.name] = struct{}{}
		}
		out[structName] = fields
	}
	return out
}
