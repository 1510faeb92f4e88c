// Package pipeline runs the ten analyzer phases of internal/analyze in
// their fixed order and enforces the short-circuit-except-phase-10
// protocol (§4.3, §7 "Propagation").
package pipeline

import (
	"github.com/jlaustill/cnextc/internal/analyze"
	"github.com/jlaustill/cnextc/internal/compilation"
	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/sourcelang"
)

// Run executes phases 1-9 in order against file. The first phase to report
// at least one error stops the run immediately; its errors, plus phase
// 10's (comment validation, which is orthogonal to the tree and always
// runs), are returned. If no phase among 1-9 reports an error, every
// phase's (empty) result is skipped and only phase 10's result is
// returned.
func Run(file *sourcelang.File, ctx *compilation.Context) diag.Errors {
	phases := analyze.Phases
	commentPhase := phases[len(phases)-1]
	earlyPhases := phases[:len(phases)-1]

	for _, phase := range earlyPhases {
		errs := phase.Run(file, ctx)
		if errs.HasErrors() {
			result := append(diag.Errors{}, errs...)
			result = append(result, commentPhase.Run(file, ctx)...)
			return result
		}
	}
	return commentPhase.Run(file, ctx)
}
