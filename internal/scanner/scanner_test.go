package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return tempDir
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func TestScannerFindsCompilationUnits(t *testing.T) {
	chdirTemp(t)
	writeFile(t, "main.cx", "void f() {}")
	writeFile(t, "helper.c", "void g() {}")
	writeFile(t, "README.md", "not a compilation unit")

	s := New(Config{NoGitignore: true})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestScannerWithGitignore(t *testing.T) {
	chdirTemp(t)
	writeFile(t, ".gitignore", "ignored.cx\n")
	writeFile(t, "main.cx", "void f() {}")
	writeFile(t, "ignored.cx", "void g() {}")

	s := New(Config{})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.cx", filepath.Base(files[0]))
}

func TestScannerNoGitignore(t *testing.T) {
	chdirTemp(t)
	writeFile(t, ".gitignore", "ignored.cx\n")
	writeFile(t, "main.cx", "void f() {}")
	writeFile(t, "ignored.cx", "void g() {}")

	s := New(Config{NoGitignore: true})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestScannerIncludeExclude(t *testing.T) {
	chdirTemp(t)
	writeFile(t, "main.cx", "void f() {}")
	writeFile(t, "test_main.cx", "void f() {}")
	writeFile(t, "utils.cx", "void f() {}")

	s := New(Config{NoGitignore: true, IncludeGlobs: []string{"test_*.cx"}})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "test_main.cx", filepath.Base(files[0]))
}

func TestScannerMaxBytes(t *testing.T) {
	chdirTemp(t)
	writeFile(t, "small.cx", "void f() {}")
	large := make([]byte, 1000)
	for i := range large {
		large[i] = 'a'
	}
	require.NoError(t, os.WriteFile("large.cx", large, 0o644))

	s := New(Config{NoGitignore: true, MaxBytes: 100})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.cx", filepath.Base(files[0]))
}

func TestScannerDirectorySkipping(t *testing.T) {
	chdirTemp(t)
	skipDirs := []string{".git", "vendor", "node_modules"}
	for _, dir := range skipDirs {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		writeFile(t, filepath.Join(dir, "test.cx"), "void f() {}")
	}
	writeFile(t, "main.cx", "void f() {}")

	s := New(Config{NoGitignore: true})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.cx", filepath.Base(files[0]))
}

func TestScannerIgnoresUnrecognizedExtensions(t *testing.T) {
	chdirTemp(t)
	writeFile(t, "notes.txt", "plain text")
	writeFile(t, "module.cpp", "void f() {}")
	writeFile(t, "module.hpp", "void f();")

	s := New(Config{NoGitignore: true})
	files, err := s.ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
