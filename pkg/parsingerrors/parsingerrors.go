// Package parsingerrors implements the ordered diagnostic accumulator
// returned from fallible parses across the SDK (location, GMOD path,
// LocalId).
package parsingerrors

import "strings"

// Entry is a single diagnostic: a category tag plus a human message.
type Entry struct {
	Category string
	Message  string
}

// ParsingErrors is an ordered, append-only collection of diagnostics. The
// zero value is empty and ready to use. It implements error so callers
// that want to treat a failed parse as a single error can do so directly.
type ParsingErrors struct {
	entries []Entry
}

// Append records a new diagnostic under category with the given message.
func (p *ParsingErrors) Append(category, message string) {
	p.entries = append(p.entries, Entry{Category: category, Message: message})
}

// Empty reports whether no diagnostics have been recorded.
func (p *ParsingErrors) Empty() bool {
	return p == nil || len(p.entries) == 0
}

// Len returns the number of recorded diagnostics.
func (p *ParsingErrors) Len() int {
	if p == nil {
		return 0
	}

	return len(p.entries)
}

// Entries returns the recorded diagnostics in the order they were appended.
// The returned slice must not be mutated by the caller.
func (p *ParsingErrors) Entries() []Entry {
	if p == nil {
		return nil
	}

	return p.entries
}

// HasCategory reports whether any recorded diagnostic matches category.
func (p *ParsingErrors) HasCategory(category string) bool {
	for _, e := range p.Entries() {
		if e.Category == category {
			return true
		}
	}

	return false
}

// Error renders every diagnostic, one per line, satisfying the error
// interface so a non-empty ParsingErrors can be returned/wrapped as a
// plain error when callers don't need per-entry detail.
func (p *ParsingErrors) Error() string {
	if p.Empty() {
		return "no parsing errors"
	}

	var b strings.Builder

	for i, e := range p.entries {
		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(e.Category)
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	return b.String()
}

// New returns a ParsingErrors pre-populated with a single diagnostic.
func New(category, message string) *ParsingErrors {
	p := &ParsingErrors{}
	p.Append(category, message)

	return p
}
