package cobol

import (
	"errors"
	"fmt"

	cb "cobolscope/internal/types/cobol"
)

var (
	// ErrSourceNotFound is returned when a program listing cannot be opened.
	ErrSourceNotFound = errors.New("source not found")
	// ErrSequenceOverflow marks a listing cut short at the last sequence number.
	ErrSequenceOverflow = errors.New("sequence number overflow")
	// ErrUnresolvedCopyModule marks a COPY whose module is absent from the search path.
	ErrUnresolvedCopyModule = errors.New("unresolved copy module")
	// ErrCopyModuleCycle marks a COPY of a module already being expanded.
	ErrCopyModuleCycle = errors.New("copy module cycle")
	// ErrUnresolvedCallTarget marks a GO TO or PERFORM target that names no paragraph.
	ErrUnresolvedCallTarget = errors.New("unresolved call target")
)

// codeFor maps a sentinel error onto its diagnostic code.
func codeFor(err error) cb.DiagnosticCode {
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return cb.DiagSourceNotFound
	case errors.Is(err, ErrSequenceOverflow):
		return cb.DiagSequenceOverflow
	case errors.Is(err, ErrUnresolvedCopyModule):
		return cb.DiagUnresolvedCopyModule
	case errors.Is(err, ErrCopyModuleCycle):
		return cb.DiagCopyModuleCycle
	case errors.Is(err, ErrUnresolvedCallTarget):
		return cb.DiagUnresolvedCallTarget
	default:
		return cb.DiagMalformedLine
	}
}

// diagnostic wraps err with context and converts it into a model record.
func diagnostic(err error, seq int, module string, format string, args ...any) cb.Diagnostic {
	return cb.Diagnostic{
		Code:    codeFor(err),
		Message: fmt.Sprintf("%s: %v", fmt.Sprintf(format, args...), err),
		Seq:     seq,
		Module:  module,
	}
}
