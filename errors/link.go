package errors

import (
	"fmt"
	"strings"
)

// LinkProblem is a single reason a guest module cannot be linked.
type LinkProblem struct {
	Kind   Kind
	Module string // import module, empty for exports
	Name   string
	Detail string
}

func (p LinkProblem) String() string {
	var b strings.Builder
	b.WriteString(string(p.Kind))
	b.WriteString(": ")
	if p.Module != "" {
		b.WriteString(p.Module)
		b.WriteByte('.')
	}
	b.WriteString(p.Name)
	if p.Detail != "" {
		b.WriteString(" (")
		b.WriteString(p.Detail)
		b.WriteByte(')')
	}
	return b.String()
}

// LinkError is returned when a guest module fails link-time validation.
// It collects every problem so a guest author sees them all at once.
type LinkError struct {
	Problems []LinkProblem
}

// Add records a problem.
func (e *LinkError) Add(kind Kind, module, name, detail string, args ...any) {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	e.Problems = append(e.Problems, LinkProblem{Kind: kind, Module: module, Name: name, Detail: detail})
}

// Err returns e if any problem was recorded, nil otherwise.
func (e *LinkError) Err() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Has reports whether a problem of the given kind was recorded.
func (e *LinkError) Has(kind Kind) bool {
	for _, p := range e.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func (e *LinkError) Error() string {
	if len(e.Problems) == 0 {
		return "[link] no problems recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[link] module rejected with %d problem(s):\n", len(e.Problems))

	// Group by import module for cleaner output
	byMod := make(map[string][]LinkProblem)
	var order []string
	for _, p := range e.Problems {
		key := p.Module
		if key == "" {
			key = "(exports)"
		}
		if _, seen := byMod[key]; !seen {
			order = append(order, key)
		}
		byMod[key] = append(byMod[key], p)
	}

	for _, mod := range order {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, p := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(string(p.Kind))
			b.WriteString(" ")
			b.WriteString(p.Name)
			if p.Detail != "" {
				b.WriteString(": ")
				b.WriteString(p.Detail)
			}
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is matches any *LinkError, or an *Error with PhaseLink and a kind
// present among the recorded problems.
func (e *LinkError) Is(target error) bool {
	switch t := target.(type) {
	case *LinkError:
		return true
	case *Error:
		return t.Phase == PhaseLink && e.Has(t.Kind)
	}
	return false
}
