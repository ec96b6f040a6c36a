package schema

import "fmt"

// Validate runs structural checks over a parsed document.
//
// Per-definition problems come back as KindSemantic and exclude only the
// definition they name. Constructor-id collisions come back as KindConflict
// because a registry that cannot be built poisons every artifact of the
// batch.
func Validate(doc *Document) Diagnostics {
	var diags Diagnostics

	for _, def := range doc.Definitions {
		diags = append(diags, validateDefinition(def)...)
	}

	byID := make(map[uint32]*Definition, len(doc.Definitions))
	for _, def := range doc.Definitions {
		if first, ok := byID[def.ID]; ok {
			diags = append(diags, Diagnostic{
				Kind:       KindConflict,
				File:       def.File,
				Line:       def.Line,
				Definition: def.FullName(),
				Text:       def.Raw,
				Message: fmt.Sprintf("duplicate constructor id 0x%08x: already used by %s",
					def.ID, first.FullName()),
			})
			continue
		}
		byID[def.ID] = def
	}

	return diags
}

func validateDefinition(def *Definition) Diagnostics {
	var diags Diagnostics
	fail := func(format string, args ...any) {
		diags = append(diags, Diagnostic{
			Kind:       KindSemantic,
			File:       def.File,
			Line:       def.Line,
			Definition: def.FullName(),
			Text:       def.Raw,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	indicatorAt := -1
	indicatorName := ""
	seen := make(map[string]bool, len(def.Args))
	for i, arg := range def.Args {
		if seen[arg.Name] {
			fail("duplicate argument name %q", arg.Name)
		}
		seen[arg.Name] = true

		if arg.IsFlagIndicator {
			if indicatorAt >= 0 {
				fail("multiple flag indicators: %q and %q", indicatorName, arg.Name)
				continue
			}
			indicatorAt = i
			indicatorName = arg.Name
		}
	}

	for i, arg := range def.Args {
		if arg.IsFlag {
			switch {
			case indicatorAt < 0:
				fail("conditional argument %q has no flag indicator", arg.Name)
			case arg.FlagName != indicatorName:
				fail("conditional argument %q references %q, but the flag indicator is %q",
					arg.Name, arg.FlagName, indicatorName)
			case i < indicatorAt:
				fail("conditional argument %q precedes the flag indicator %q",
					arg.Name, indicatorName)
			}
		}
		if arg.IsGeneric && !def.IsGenericParam(arg.Type) {
			fail("generic argument %q references undeclared type variable %q", arg.Name, arg.Type)
		}
	}

	return diags
}
