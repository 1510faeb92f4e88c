// Package compilation holds the explicit CompilationContext the design
// note in §9 ("Process-wide state") calls for in place of the original's
// process-wide shared-state facade: a SymbolTable, a cached
// external-struct-fields map, and an interned included-header set, passed
// by value reference to every collector and analyzer instead of read from
// a global.
package compilation

import "github.com/jlaustill/cnextc/internal/symtab"

// Context is the value every collector and analyzer call threads through
// explicitly. The pipeline runner owns it; nothing reads or writes a
// package-level global (§9 "Preferred redesign").
type Context struct {
	Table *symtab.Table

	// externalStructFields is the cached
	// external_struct_name -> set<field_name> map (§4.4), rebuilt from the
	// SymbolTable's struct-field side table by BuildExternalStructFields.
	externalStructFields map[string]map[string]struct{}

	// IncludedHeaders is the interned set of headers the current
	// compilation unit has #include'd, consulted by analyzer phase 4
	// (define-before-use, standard-library recognition).
	IncludedHeaders map[string]struct{}
}

// New builds a Context around a fresh or pre-populated SymbolTable.
func New(table *symtab.Table) *Context {
	return &Context{Table: table, IncludedHeaders: map[string]struct{}{}}
}

// Reset clears every piece of per-compilation state, for reuse across
// independent compilation units within one process (§5 "no state is shared
// between concurrent compilations" — Reset lets a single-threaded embedder
// reuse one Context serially without state leaking between units).
func (c *Context) Reset() {
	c.Table = symtab.New()
	c.externalStructFields = nil
	c.IncludedHeaders = map[string]struct{}{}
}

// BuildExternalStructFields rebuilds the external-struct-fields cache from
// the current SymbolTable's struct-field side table (§4.4).
func (c *Context) BuildExternalStructFields() {
	c.externalStructFields = c.Table.ExternalStructFieldNames()
}

// ExternalStructFields returns the cached external-struct-fields map,
// building it on first use if BuildExternalStructFields was not yet
// called.
func (c *Context) ExternalStructFields() map[string]map[string]struct{} {
	if c.externalStructFields == nil {
		c.BuildExternalStructFields()
	}
	return c.externalStructFields
}

// IsExternalStructField reports whether fieldName on structName is known
// to originate from a C or C++ header (§ GLOSSARY "External struct
// fields").
func (c *Context) IsExternalStructField(structName, fieldName string) bool {
	fields, ok := c.ExternalStructFields()[structName]
	if !ok {
		return false
	}
	_, ok = fields[fieldName]
	return ok
}

// AddIncludedHeader records a header as included by the current
// compilation unit.
func (c *Context) AddIncludedHeader(name string) {
	c.IncludedHeaders[name] = struct{}{}
}

// HasIncludedHeader reports whether name was recorded via
// AddIncludedHeader.
func (c *Context) HasIncludedHeader(name string) bool {
	_, ok := c.IncludedHeaders[name]
	return ok
}

// IncludedHeaderList returns the included headers as a slice, for callers
// needing a deterministic or indexable view (e.g. typeutil.StdlibFunction).
func (c *Context) IncludedHeaderList() []string {
	out := make([]string, 0, len(c.IncludedHeaders))
	for h := range c.IncludedHeaders {
		out = append(out, h)
	}
	return out
}
