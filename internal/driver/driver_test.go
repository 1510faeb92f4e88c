package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaustill/cnextc/internal/scanner"
	"github.com/jlaustill/cnextc/internal/symtab"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// S1 — cross-language conflict: a source-language definition and a C
// definition sharing a name halt analysis before the pipeline runs.
func TestCompileCrossLanguageConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "motor.cx", "void update() {}\n")
	writeFile(t, dir, "motor.h", "void update(void) { }\n")

	sc := scanner.New(scanner.Config{})
	unit, err := Compile([]string{dir}, sc)
	require.NoError(t, err)

	require.Len(t, unit.Conflicts, 1)
	assert.Equal(t, "update", unit.Conflicts[0].Name)
	assert.Equal(t, symtab.ConflictCrossLanguage, unit.Conflicts[0].Kind)
	assert.Empty(t, unit.Results, "pipeline must not run once conflicts are found")
}

// S2 — C++ overload acceptance: distinct signatures sharing a name produce
// no conflict.
func TestCompileCppOverloadsNoConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math.hpp", "int add(int a, int b);\nfloat add(float a, float b);\n")

	sc := scanner.New(scanner.Config{})
	unit, err := Compile([]string{dir}, sc)
	require.NoError(t, err)

	assert.Empty(t, unit.Conflicts)
	assert.Len(t, unit.Table.Overloads("add"), 2)
}

// S3 — recursive call error, driven end to end through the scanner and
// collection, not just the analyzer phase in isolation.
func TestCompileRecursiveCallError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "loop.cx", "void f() { f(); }\n")

	sc := scanner.New(scanner.Config{})
	unit, err := Compile([]string{dir}, sc)
	require.NoError(t, err)

	require.Empty(t, unit.Conflicts)
	require.Len(t, unit.Results, 1)

	found := false
	for _, e := range unit.Results[0].Errs {
		if e.Code == "E0423" {
			found = true
		}
	}
	assert.True(t, found, "expected a recursive-call diagnostic")
}

func TestCompileCleanUnitHasNoResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "const.cx", "void f() {}\n")

	sc := scanner.New(scanner.Config{})
	unit, err := Compile([]string{dir}, sc)
	require.NoError(t, err)
	assert.Empty(t, unit.Conflicts)
	assert.Empty(t, unit.Results)
}
