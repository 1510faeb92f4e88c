// Package driver is the "interface to the core" SPEC_FULL's CLI section
// calls for: the minimal glue that turns a list of scanned files into
// symbol collection (§4.2) across all three languages, a conflict check
// (§4.1), and an analyzer pipeline run (§4.3) per source-language file. It
// is itself ambient plumbing, not a core component — the core is
// internal/symbol, internal/symtab, internal/ccollect, internal/cppcollect,
// internal/sourcecollect, internal/analyze, internal/pipeline, and
// internal/compilation.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jlaustill/cnextc/internal/ccollect"
	"github.com/jlaustill/cnextc/internal/compilation"
	"github.com/jlaustill/cnextc/internal/cppcollect"
	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/pipeline"
	"github.com/jlaustill/cnextc/internal/scanner"
	"github.com/jlaustill/cnextc/internal/sourcecollect"
	"github.com/jlaustill/cnextc/internal/sourcelang"
	"github.com/jlaustill/cnextc/internal/symtab"
)

// FileResult is the diagnostic outcome of one scanned file: collection
// warnings for every file, plus analyzer-pipeline errors for source-
// language (.cx) files.
type FileResult struct {
	Path string
	Errs diag.Errors
}

// Unit is the outcome of compiling one set of scanned targets: the unified
// SymbolTable, any cross-language conflicts (§4.1), and per-file
// diagnostics. Per §7 "a run that produces conflicts ... is fatal at the
// boundary between collection and analysis", Results is empty whenever
// Conflicts is non-empty — the pipeline is never invoked in that case (S1).
type Unit struct {
	Table     *symtab.Table
	Conflicts []symtab.Conflict
	Results   []FileResult
}

// Compile scans targets, collects symbols from every recognized file into
// one CompilationContext, checks for cross-language conflicts, and — only
// if the table is conflict-free — runs the analyzer pipeline over every
// source-language file.
func Compile(targets []string, sc *scanner.Scanner) (*Unit, error) {
	files, err := sc.ScanTargets(context.Background(), targets)
	if err != nil {
		return nil, fmt.Errorf("scanning targets: %w", err)
	}

	ctx := compilation.New(symtab.New())

	var cxFiles []*sourcelang.File
	var warnings []FileResult

	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		switch languageOf(path) {
		case symbolLangSource:
			f, errs, perr := collectSource(ctx, path, string(src))
			if perr != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, perr)
			}
			cxFiles = append(cxFiles, f)
			if len(errs) > 0 {
				warnings = append(warnings, FileResult{Path: path, Errs: errs})
			}
		case symbolLangC:
			errs, perr := collectC(ctx, path, string(src))
			if perr != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, perr)
			}
			if len(errs) > 0 {
				warnings = append(warnings, FileResult{Path: path, Errs: errs})
			}
		case symbolLangCpp:
			errs, perr := collectCpp(ctx, path, string(src))
			if perr != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, perr)
			}
			if len(errs) > 0 {
				warnings = append(warnings, FileResult{Path: path, Errs: errs})
			}
		}
	}

	ctx.BuildExternalStructFields()

	unit := &Unit{Table: ctx.Table}

	conflicts := ctx.Table.Conflicts()
	if len(conflicts) > 0 {
		unit.Conflicts = conflicts
		return unit, nil
	}

	results := warnings
	for _, f := range cxFiles {
		errs := pipeline.Run(f, ctx)
		if len(errs) > 0 {
			results = append(results, FileResult{Path: f.Path, Errs: errs})
		}
	}
	unit.Results = results
	return unit, nil
}

type symbolLang int

const (
	symbolLangUnknown symbolLang = iota
	symbolLangSource
	symbolLangC
	symbolLangCpp
)

func languageOf(path string) symbolLang {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range scanner.Extensions["source"] {
		if e == ext {
			return symbolLangSource
		}
	}
	for _, e := range scanner.Extensions["c"] {
		if e == ext {
			return symbolLangC
		}
	}
	for _, e := range scanner.Extensions["cpp"] {
		if e == ext {
			return symbolLangCpp
		}
	}
	return symbolLangUnknown
}

func collectSource(ctx *compilation.Context, path, src string) (*sourcelang.File, diag.Errors, error) {
	f, err := sourcelang.Parse(path, src)
	if err != nil {
		return nil, nil, err
	}
	for _, inc := range f.Includes {
		ctx.AddIncludedHeader(inc)
	}

	cctx := sourcecollect.NewContext(path)
	cctx.Table = ctx.Table
	sourcecollect.Collect(cctx, f)
	for _, s := range cctx.Symbols {
		ctx.Table.Add(s)
	}
	return f, cctx.Warnings, nil
}

func collectC(ctx *compilation.Context, path, src string) (diag.Errors, error) {
	tree, err := parseWith(ccollect.Language(), src)
	if err != nil {
		return nil, err
	}

	cctx := ccollect.NewContext(path, src)
	cctx.Table = ctx.Table
	ccollect.Collect(cctx, tree.RootNode())
	for _, s := range cctx.Symbols {
		ctx.Table.Add(s)
	}
	return cctx.Warnings, nil
}

func collectCpp(ctx *compilation.Context, path, src string) (diag.Errors, error) {
	tree, err := parseWith(cppcollect.Language(), src)
	if err != nil {
		return nil, err
	}

	cctx := cppcollect.NewContext(path, src)
	cctx.Table = ctx.Table
	cppcollect.Collect(cctx, tree.RootNode())
	for _, s := range cctx.Symbols {
		ctx.Table.Add(s)
	}
	return cctx.Warnings, nil
}

func parseWith(lang *sitter.Language, src string) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}
