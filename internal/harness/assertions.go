package harness

import (
	"fmt"
	"slices"
	"strings"
)

// evaluateExpect compares the result against the expectations of a
// scenario and records every mismatch.
func evaluateExpect(e Expect, r *Result) {
	if e.Error != "" {
		switch {
		case r.CompileError == "":
			r.AddError(fmt.Sprintf("expected compile error containing %q, filter compiled", e.Error))
		case !strings.Contains(r.CompileError, e.Error):
			r.AddError(fmt.Sprintf("compile error %q does not contain %q", r.CompileError, e.Error))
		}
		return
	}

	if r.CompileError != "" {
		r.AddError("unexpected compile error: " + r.CompileError)
		return
	}

	if e.Where != "" && e.Where != r.Where {
		r.AddError(fmt.Sprintf("where mismatch:\n  got:  %s\n  want: %s", r.Where, e.Where))
	}
	if e.From != "" && e.From != r.From {
		r.AddError(fmt.Sprintf("from mismatch:\n  got:  %s\n  want: %s", r.From, e.From))
	}
	if e.Params != nil && !slices.Equal(e.Params, r.Params) {
		r.AddError(fmt.Sprintf("params mismatch: got %v, want %v", r.Params, e.Params))
	}
	if e.UsedPaths != nil && !slices.Equal(e.UsedPaths, r.UsedPaths) {
		r.AddError(fmt.Sprintf("used_paths mismatch: got %v, want %v", r.UsedPaths, e.UsedPaths))
	}
	if e.IDs != nil && !slices.Equal(*e.IDs, r.IDs) {
		r.AddError(fmt.Sprintf("ids mismatch: got %v, want %v", r.IDs, *e.IDs))
	}
}
