package schema

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic by blast radius.
type Kind int

const (
	// KindSyntax marks a line the parser could not turn into a
	// definition. The line is skipped.
	KindSyntax Kind = iota

	// KindSemantic marks a structurally broken definition, such as a
	// conditional argument without a flag indicator. The definition is
	// excluded from generation; the rest of the batch proceeds.
	KindSemantic

	// KindConflict marks a cross-definition problem, such as two
	// definitions sharing a constructor id. Conflicts poison the whole
	// batch: no artifacts may be produced from it.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindConflict:
		return "conflict"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Diagnostic describes one problem found while parsing or validating a
// schema, with enough position information to act on it.
type Diagnostic struct {
	Kind Kind

	// File and Line locate the offending source. File is empty when the
	// schema was parsed from bytes without a name.
	File string
	Line int

	// Definition is the full name of the definition involved, when one
	// was identified.
	Definition string

	// Text is the trimmed source text the diagnostic refers to.
	Text string

	// Message describes the problem.
	Message string
}

// Error formats the diagnostic as file:line: message (in definition).
func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		b.WriteByte(':')
	}
	if d.Line > 0 {
		fmt.Fprintf(&b, "%d:", d.Line)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(d.Message)
	if d.Definition != "" {
		fmt.Fprintf(&b, " (in %s)", d.Definition)
	}
	return b.String()
}

// Diagnostics is an ordered collection of diagnostics. Order follows the
// source: diagnostics for earlier lines come first.
type Diagnostics []Diagnostic

// Err returns the collection as an error, or nil when it is empty.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

// Error joins the diagnostics into one readable message.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return "no diagnostics"
	}
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return fmt.Sprintf("%d schema diagnostic(s):\n  - %s", len(ds), strings.Join(lines, "\n  - "))
}

// HasConflicts reports whether any diagnostic is batch-poisoning.
func (ds Diagnostics) HasConflicts() bool {
	for _, d := range ds {
		if d.Kind == KindConflict {
			return true
		}
	}
	return false
}

// ForDefinition returns the diagnostics attached to the named definition.
func (ds Diagnostics) ForDefinition(fullName string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Definition == fullName {
			out = append(out, d)
		}
	}
	return out
}

// ExcludedDefinitions returns the full names of definitions that carry a
// syntax or semantic diagnostic and must not be generated.
func (ds Diagnostics) ExcludedDefinitions() map[string]bool {
	out := make(map[string]bool)
	for _, d := range ds {
		if d.Definition != "" && d.Kind != KindConflict {
			out[d.Definition] = true
		}
	}
	return out
}
