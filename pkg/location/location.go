// Package location parses and validates VIS spatial qualifiers such as
// "1", "P", "2CF" (spec.md §3, §4.1).
package location

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/parsingerrors"
)

// Group identifies one of the four disjoint letter groups a Location
// suffix may draw from.
type Group int

const (
	GroupSide Group = iota
	GroupVertical
	GroupTransverse
	GroupLongitudinal
)

// defaultRelativeLocations maps each admissible letter to the group it
// belongs to. The VIS version's Locations DTO supplies the concrete set;
// this table is the default/most common mapping used when no
// version-specific override is loaded (see pkg/dto.LocationsDto).
var defaultRelativeLocations = map[byte]Group{
	'P': GroupSide,
	'C': GroupSide,
	'S': GroupSide,
	'U': GroupVertical,
	'M': GroupVertical,
	'L': GroupVertical,
	'I': GroupTransverse,
	'O': GroupTransverse,
	'F': GroupLongitudinal,
	'A': GroupLongitudinal,
}

const (
	errInvalidCode    = "InvalidCode"
	errInvalidOrder   = "InvalidOrder"
	errDuplicateGroup = "DuplicateGroup"
	errInvalidFormat  = "InvalidFormat"
)

// Location is a parsed, canonical spatial qualifier. The zero value is not
// a valid Location; use Parse to construct one.
type Location struct {
	value string
}

// String returns the canonical textual form.
func (l Location) String() string {
	return l.value
}

// IsZero reports whether l is the unset zero value.
func (l Location) IsZero() bool {
	return l.value == ""
}

func isURIUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

// Parse validates s per §4.1 and, on success, returns the canonical
// Location. On failure it returns the zero Location and a populated
// ParsingErrors describing every violation found.
func Parse(s string) (Location, *parsingerrors.ParsingErrors) {
	return ParseWithTable(s, defaultRelativeLocations)
}

// ParseWithTable is Parse parameterized over the version-specific
// relative-locations table (letter -> Group), as supplied by a
// Locations instance built from a VIS version's LocationsDto.
func ParseWithTable(s string, table map[byte]Group) (Location, *parsingerrors.ParsingErrors) {
	errs := &parsingerrors.ParsingErrors{}

	if strings.TrimSpace(s) == "" {
		errs.Append(errInvalidFormat, "location is empty or whitespace")

		return Location{}, errs
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || !isURIUnreserved(c) {
			errs.Append(errInvalidFormat, "location contains a character outside the URI-unreserved set")

			return Location{}, errs
		}
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	number := s[:i]
	letters := s[i:]

	for j := 0; j < len(letters); j++ {
		if letters[j] >= '0' && letters[j] <= '9' {
			errs.Append(errInvalidFormat, "digits must precede all letters")

			return Location{}, errs
		}
	}

	seenGroups := map[Group]byte{}
	var order []byte

	for j := 0; j < len(letters); j++ {
		c := letters[j]

		group, ok := table[c]
		if !ok {
			errs.Append(errInvalidCode, "unknown location letter '"+string(c)+"'")

			continue
		}

		if prev, dup := seenGroups[group]; dup {
			errs.Append(errDuplicateGroup, "duplicate location group for '"+string(prev)+"' and '"+string(c)+"'")

			continue
		}

		seenGroups[group] = c
		order = append(order, c)
	}

	if !errs.Empty() {
		return Location{}, errs
	}

	sorted := append([]byte(nil), order...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	for j := range order {
		if order[j] != sorted[j] {
			errs.Append(errInvalidOrder, "location letters must appear in ascending alphabetical order")

			return Location{}, errs
		}
	}

	return Location{value: number + letters}, nil
}

// groupNames maps a LocationItemDto's free-text group field to the closed
// Group enum used internally.
var groupNames = map[string]Group{
	"side":         GroupSide,
	"vertical":     GroupVertical,
	"transverse":   GroupTransverse,
	"longitudinal": GroupLongitudinal,
}

// Locations holds the relative-locations table for one VIS version, built
// from a LocationsDto (§6 "Input data").
type Locations struct {
	table map[byte]Group
}

// NewLocations builds a Locations from a deserialized LocationsDto.
func NewLocations(d dto.LocationsDto) (*Locations, error) {
	if err := dto.Validate(context.Background(), d); err != nil {
		return nil, fmt.Errorf("parsing locations table: %w", err)
	}

	table := map[byte]Group{}

	for _, item := range d.Items {
		if len(item.Code) != 1 {
			return nil, fmt.Errorf("parsing locations table: code %q must be a single letter", item.Code)
		}

		group, ok := groupNames[item.Group]
		if !ok {
			return nil, fmt.Errorf("parsing locations table: unknown group %q for code %q", item.Group, item.Code)
		}

		table[item.Code[0]] = group
	}

	return &Locations{table: table}, nil
}

// Parse validates s against this version's relative-locations table.
func (l *Locations) Parse(s string) (Location, *parsingerrors.ParsingErrors) {
	return ParseWithTable(s, l.table)
}
