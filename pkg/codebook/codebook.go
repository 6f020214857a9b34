// Package codebook implements controlled-vocabulary validation and tag
// construction for one metadata kind (spec.md §3, §4.2).
package codebook

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
)

// Kind is the closed set of codebook kinds. Position through Type, plus
// Detail, participate in LocalId metadata (see IsMetadataKind); Detail never
// rejects custom values.
type Kind int

const (
	Position Kind = iota
	Calculation
	Quantity
	State
	Content
	Command
	Type
	FunctionalServices
	MaintenanceCategory
	ActivityType
	Detail
)

// prefixes maps each kind to its fixed LocalId tag prefix (§3 MetadataTag,
// §6 external wire format).
var prefixes = map[Kind]string{
	Position:             "pos",
	Calculation:          "calc",
	Quantity:             "qty",
	State:                "state",
	Content:              "cnt",
	Command:              "cmd",
	Type:                 "type",
	FunctionalServices:   "funct.svc",
	MaintenanceCategory:  "maint.cat",
	ActivityType:         "act.type",
	Detail:               "detail",
}

// Prefix returns the fixed short identifier used in LocalId tag rendering.
func (k Kind) Prefix() string {
	return prefixes[k]
}

// ParsePrefix resolves a tag prefix back to its Kind.
func ParsePrefix(prefix string) (Kind, bool) {
	for k, p := range prefixes {
		if p == prefix {
			return k, true
		}
	}

	return 0, false
}

// IsMetadataKind reports whether k is one of the eight kinds eligible for
// LocalId metadata tags (Detail participates; see CreateTag below for how it
// is still handled distinctly from the other seven).
func IsMetadataKind(k Kind) bool {
	switch k {
	case Position, Calculation, Quantity, State, Content, Command, Type, Detail:
		return true
	default:
		return false
	}
}

const defaultGroup = "<number>"

// Codebook holds one codebook kind's controlled vocabulary for a single
// VIS version.
type Codebook struct {
	kind          Kind
	valueToGroup  map[string]string
	groups        map[string]struct{}
	standardValue map[string]struct{}
}

// New builds a Codebook from a group-name -> values map, the shape the
// CodebooksDto carries for one kind (see pkg/dto).
func New(kind Kind, groupValues map[string][]string) *Codebook {
	cb := &Codebook{
		kind:          kind,
		valueToGroup:  map[string]string{},
		groups:        map[string]struct{}{},
		standardValue: map[string]struct{}{},
	}

	for group, values := range groupValues {
		if group != defaultGroup {
			cb.groups[group] = struct{}{}
		}

		for _, v := range values {
			if v == defaultGroup {
				continue
			}

			cb.valueToGroup[v] = group
			cb.standardValue[v] = struct{}{}
		}
	}

	return cb
}

// Kind returns the codebook's kind.
func (cb *Codebook) Kind() Kind {
	return cb.kind
}

// Groups returns the set of non-synthetic group names, sorted for
// deterministic iteration.
func (cb *Codebook) Groups() []string {
	return sortedKeys(cb.groups)
}

// StandardValues returns the set of standard values, sorted.
func (cb *Codebook) StandardValues() []string {
	return sortedKeys(cb.standardValue)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)

	return keys
}

// GroupOf returns the group a standard value belongs to, if any.
func (cb *Codebook) GroupOf(value string) (string, bool) {
	g, ok := cb.valueToGroup[value]

	return g, ok
}

func isURIUnreserved(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '~':
		default:
			return false
		}
	}

	return true
}

// Tag is a (kind, value, is-custom) triple with its rendered prefix.
type Tag struct {
	Kind     Kind
	Value    string
	IsCustom bool
}

// String renders "{prefix}{sep}{value}" per §3, using "-" for standard
// values and "~" for custom ones.
func (t Tag) String() string {
	sep := "-"
	if t.IsCustom {
		sep = "~"
	}

	return t.Kind.Prefix() + sep + t.Value
}

// CreateTag validates value against cb per §4.2 and returns the resulting
// tag, or false if value is rejected outright.
func (cb *Codebook) CreateTag(value string) (Tag, bool) {
	switch cb.kind {
	case Position:
		result, _ := ValidatePosition(value, cb)
		switch result {
		case PositionValid:
			return Tag{Kind: Position, Value: value, IsCustom: false}, true
		case PositionValidCustom:
			return Tag{Kind: Position, Value: value, IsCustom: true}, true
		default:
			return Tag{}, false
		}

	case Detail:
		if !isURIUnreserved(value) {
			return Tag{}, false
		}

		return Tag{Kind: Detail, Value: value, IsCustom: true}, true

	default:
		if !isURIUnreserved(value) {
			return Tag{}, false
		}

		_, standard := cb.standardValue[value]

		return Tag{Kind: cb.kind, Value: value, IsCustom: !standard}, true
	}
}

// PositionValidationResult is the discriminated outcome of ValidatePosition
// (§3, §4.2).
type PositionValidationResult int

const (
	PositionValid PositionValidationResult = iota
	PositionValidCustom
	PositionInvalid
	PositionInvalidOrder
	PositionInvalidGrouping
)

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// ValidatePosition implements the four-phase pipeline from §3/§4.2.
func ValidatePosition(value string, cb *Codebook) (PositionValidationResult, bool) {
	// Phase 1: reject whitespace / non-URI-unreserved / leading-trailing
	// whitespace. strings.TrimSpace catching a difference from the raw
	// value covers leading/trailing whitespace; isURIUnreserved covers the
	// rest (it already rejects any whitespace byte).
	if value == "" || strings.TrimSpace(value) != value || !isURIUnreserved(value) {
		return PositionInvalid, false
	}

	// Phase 2: accept standard values or all-digit positions, both as Valid.
	if _, ok := cb.standardValue[value]; ok {
		return PositionValid, true
	}

	if isAllDigits(value) {
		return PositionValid, true
	}

	// Phase 3: no hyphen -> plain custom value.
	if !strings.Contains(value, "-") {
		return PositionValidCustom, true
	}

	// Phase 4: hyphen-composed groups.
	parts := strings.Split(value, "-")

	nonDigitParts := make([]string, 0, len(parts))

	allPartsValid := true

	groupCounts := map[string]int{}

	for i, part := range parts {
		result, _ := ValidatePosition(part, cb)
		if result != PositionValid {
			allPartsValid = false
		}

		if result == PositionInvalid || result == PositionInvalidOrder || result == PositionInvalidGrouping {
			return PositionInvalid, false
		}

		if isAllDigits(part) {
			if i != len(parts)-1 {
				return PositionInvalidOrder, false
			}
		} else {
			nonDigitParts = append(nonDigitParts, part)
		}

		group, hasGroup := cb.GroupOf(part)
		if !hasGroup {
			group = defaultGroup
		}

		groupCounts[group]++
	}

	sorted := append([]string(nil), nonDigitParts...)
	sort.Strings(sorted)

	for i := range nonDigitParts {
		if nonDigitParts[i] != sorted[i] {
			return PositionInvalidOrder, false
		}
	}

	if allPartsValid {
		for group, count := range groupCounts {
			if group == defaultGroup {
				continue
			}

			if count > 1 {
				return PositionInvalidGrouping, false
			}
		}
	}

	return PositionValidCustom, true
}

// Codebooks is the collection of Codebook instances for one VIS version,
// keyed by Kind.
type Codebooks struct {
	byKind map[Kind]*Codebook
}

// NewCodebooks builds a Codebooks collection from a kind -> group-values
// map, the shape produced by deserializing a CodebooksDto.
func NewCodebooks(byKindGroupValues map[Kind]map[string][]string) *Codebooks {
	cbs := &Codebooks{byKind: map[Kind]*Codebook{}}

	for kind, groupValues := range byKindGroupValues {
		cbs.byKind[kind] = New(kind, groupValues)
	}

	return cbs
}

// Get returns the Codebook for kind, or nil if none was loaded.
func (c *Codebooks) Get(kind Kind) *Codebook {
	return c.byKind[kind]
}

// kindNames maps a CodebooksDto entry's free-text Name field to the closed
// Kind enum, mirroring pkg/location's groupNames table.
var kindNames = map[string]Kind{
	"position":              Position,
	"calculation":           Calculation,
	"quantity":              Quantity,
	"state":                 State,
	"content":               Content,
	"command":               Command,
	"type":                  Type,
	"functional services":   FunctionalServices,
	"maintenance category":  MaintenanceCategory,
	"activity type":         ActivityType,
	"detail":                Detail,
}

// NewCodebooksFromDto builds a Codebooks collection from a deserialized
// CodebooksDto (§6 "Input data"), one Codebook per entry.
func NewCodebooksFromDto(d dto.CodebooksDto) (*Codebooks, error) {
	if err := dto.Validate(context.Background(), d); err != nil {
		return nil, fmt.Errorf("parsing codebooks: %w", err)
	}

	byKind := map[Kind]map[string][]string{}

	for _, entry := range d.Items {
		kind, ok := kindNames[strings.ToLower(entry.Name)]
		if !ok {
			return nil, fmt.Errorf("parsing codebooks: unknown codebook name %q", entry.Name)
		}

		groupValues := make(map[string][]string, len(entry.Entries))
		for _, e := range entry.Entries {
			groupValues[e.Group] = e.Values
		}

		byKind[kind] = groupValues
	}

	return NewCodebooks(byKind), nil
}
