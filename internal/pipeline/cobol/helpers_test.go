package cobol

import (
	"fmt"
	"strings"

	cb "cobolscope/internal/types/cobol"
)

// src builds a listing line: six-digit sequence, blank indicator, code from
// column 8.
func src(seq int, code string) string {
	return fmt.Sprintf("%06d %s", seq, code)
}

func comment(seq int, text string) string {
	return fmt.Sprintf("%06d*%s", seq, text)
}

func classifyAll(t *Tables, raw []string) []cb.SourceLine {
	cls := NewColumnClassifier(t)
	out := make([]cb.SourceLine, len(raw))
	for i, r := range raw {
		out[i] = cls.Classify(r)
	}
	return out
}

// memSource serves copy-modules from memory, keyed by upper-cased name.
type memSource map[string][]string

func (m memSource) Lookup(name string) (cb.Copybook, error) {
	up := strings.ToUpper(name)
	lines, ok := m[up]
	if !ok {
		return cb.Copybook{}, fmt.Errorf("%s: %w", name, ErrUnresolvedCopyModule)
	}
	return cb.Copybook{Name: up, Path: "mem/" + up, Lines: lines}, nil
}

func hasDiag(diags []cb.Diagnostic, code cb.DiagnosticCode) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func findItem(d *cb.Dictionary, name string) (cb.DataItem, bool) {
	for _, it := range d.Items {
		if it.Name == name {
			return it, true
		}
	}
	return cb.DataItem{}, false
}
