// Package localid implements LocalIdBuilder/LocalId: the composite
// identifier combining a primary GMOD path, an optional secondary path, and
// up to eight metadata tags, per the dnv-v2 naming rule (spec.md §3, §4.5).
package localid

import (
	"fmt"
	"strings"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/codebook"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmodpath"
	"github.com/dnv-opensource/vista-sdk-go/pkg/location"
	"github.com/dnv-opensource/vista-sdk-go/pkg/parsingerrors"
)

const namingRule = "dnv-v2"

// MetadataTag is the (kind, value, is-custom) triple carried in a LocalId's
// meta slots; it is exactly a codebook.Tag.
type MetadataTag = codebook.Tag

// tagOrder is the fixed codebook order LocalId tags must appear in, both on
// the wire and when rendered (§4.5, §6).
var tagOrder = []codebook.Kind{
	codebook.Quantity,
	codebook.Content,
	codebook.Calculation,
	codebook.State,
	codebook.Command,
	codebook.Type,
	codebook.Position,
	codebook.Detail,
}

func orderIndex(k codebook.Kind) int {
	for i, tk := range tagOrder {
		if tk == k {
			return i
		}
	}

	return -1
}

var (
	ErrMissingVersion = fmt.Errorf("localid: version is required")
	ErrMissingPrimary = fmt.Errorf("localid: primary item is required")
	ErrNoTags         = fmt.Errorf("localid: at least one metadata tag is required")
)

// LocalIdBuilder is an immutable fluent builder: every With* method returns
// a new builder, never mutating the receiver (§9 "Builders").
type LocalIdBuilder struct {
	version       *visversion.VisVersion
	verboseMode   bool
	primaryItem   *gmodpath.GmodPath
	secondaryItem *gmodpath.GmodPath
	tags          map[codebook.Kind]MetadataTag
}

// NewBuilder returns an empty builder.
func NewBuilder() LocalIdBuilder {
	return LocalIdBuilder{tags: map[codebook.Kind]MetadataTag{}}
}

func (b LocalIdBuilder) clone() LocalIdBuilder {
	cp := b
	cp.tags = make(map[codebook.Kind]MetadataTag, len(b.tags))

	for k, v := range b.tags {
		cp.tags[k] = v
	}

	return cp
}

// WithVisVersion returns a new builder carrying v.
func (b LocalIdBuilder) WithVisVersion(v visversion.VisVersion) LocalIdBuilder {
	cp := b.clone()
	cp.version = &v

	return cp
}

// WithVerboseMode returns a new builder with verbose rendering toggled.
func (b LocalIdBuilder) WithVerboseMode(verbose bool) LocalIdBuilder {
	cp := b.clone()
	cp.verboseMode = verbose

	return cp
}

// WithPrimaryItem returns a new builder carrying p as the primary path.
func (b LocalIdBuilder) WithPrimaryItem(p *gmodpath.GmodPath) LocalIdBuilder {
	cp := b.clone()
	cp.primaryItem = p

	return cp
}

// WithSecondaryItem returns a new builder carrying p as the secondary path.
func (b LocalIdBuilder) WithSecondaryItem(p *gmodpath.GmodPath) LocalIdBuilder {
	cp := b.clone()
	cp.secondaryItem = p

	return cp
}

// WithMetadataTag returns a new builder with t set in its codebook-kind slot.
func (b LocalIdBuilder) WithMetadataTag(t MetadataTag) LocalIdBuilder {
	cp := b.clone()
	cp.tags[t.Kind] = t

	return cp
}

// WithoutMetadataTag returns a new builder with kind's slot cleared.
func (b LocalIdBuilder) WithoutMetadataTag(kind codebook.Kind) LocalIdBuilder {
	cp := b.clone()
	delete(cp.tags, kind)

	return cp
}

// IsValid mirrors §4.5: version, primary item, and at least one tag slot.
func (b LocalIdBuilder) IsValid() bool {
	return b.version != nil && b.primaryItem != nil && len(b.tags) > 0
}

// IsEmpty mirrors §4.5: no primary, no secondary, no tag slots.
func (b LocalIdBuilder) IsEmpty() bool {
	return b.primaryItem == nil && b.secondaryItem == nil && len(b.tags) == 0
}

// Build freezes the builder into a LocalId, failing if version, primary
// item, or at least one tag is missing (§4.5).
func (b LocalIdBuilder) Build() (*LocalId, error) {
	if b.version == nil {
		return nil, ErrMissingVersion
	}

	if b.primaryItem == nil {
		return nil, ErrMissingPrimary
	}

	if len(b.tags) == 0 {
		return nil, ErrNoTags
	}

	tags := make(map[codebook.Kind]MetadataTag, len(b.tags))
	for k, v := range b.tags {
		tags[k] = v
	}

	return &LocalId{
		version:       *b.version,
		verboseMode:   b.verboseMode,
		primaryItem:   b.primaryItem,
		secondaryItem: b.secondaryItem,
		tags:          tags,
	}, nil
}

// LocalId is a frozen, immutable snapshot of a valid LocalIdBuilder (§3).
type LocalId struct {
	version       visversion.VisVersion
	verboseMode   bool
	primaryItem   *gmodpath.GmodPath
	secondaryItem *gmodpath.GmodPath
	tags          map[codebook.Kind]MetadataTag
}

func (l *LocalId) Version() visversion.VisVersion       { return l.version }
func (l *LocalId) VerboseMode() bool                    { return l.verboseMode }
func (l *LocalId) PrimaryItem() *gmodpath.GmodPath       { return l.primaryItem }
func (l *LocalId) SecondaryItem() *gmodpath.GmodPath     { return l.secondaryItem }

// Tag returns the tag in kind's slot, if set.
func (l *LocalId) Tag(kind codebook.Kind) (MetadataTag, bool) {
	t, ok := l.tags[kind]

	return t, ok
}

// Builder reconstructs a builder seeded with this LocalId's state, so
// callers can derive a modified LocalId via With*/Build without mutating l.
func (l *LocalId) Builder() LocalIdBuilder {
	b := NewBuilder().WithVisVersion(l.version).WithVerboseMode(l.verboseMode).WithPrimaryItem(l.primaryItem)
	if l.secondaryItem != nil {
		b = b.WithSecondaryItem(l.secondaryItem)
	}

	for _, t := range l.tags {
		b = b.WithMetadataTag(t)
	}

	return b
}

func renderItem(p *gmodpath.GmodPath, verbose bool) string {
	s := p.ToString()
	if verbose && p.Node.CommonName != "" {
		s += "~" + p.Node.CommonName
	}

	return s
}

// ToString renders the canonical dnv-v2 wire form (§4.5, §6). Tags are
// emitted in fixed codebook order; round-trip via Parse is exact.
func (l *LocalId) ToString() string {
	var b strings.Builder

	b.WriteByte('/')
	b.WriteString(namingRule)
	b.WriteByte('/')
	b.WriteString(l.version.WithPrefix())
	b.WriteByte('/')
	b.WriteString(renderItem(l.primaryItem, l.verboseMode))

	if l.secondaryItem != nil {
		b.WriteString("/sec/")
		b.WriteString(renderItem(l.secondaryItem, l.verboseMode))
	}

	b.WriteString("/meta")

	for _, kind := range tagOrder {
		if t, ok := l.tags[kind]; ok {
			b.WriteByte('/')
			b.WriteString(t.String())
		}
	}

	return b.String()
}

const (
	errCategoryNamingRule = "InvalidNamingRule"
	errCategoryVersion    = "InvalidVersion"
	errCategoryPath       = "InvalidPath"
	errCategoryTag        = "InvalidTag"
	errCategoryTagOrder   = "InvalidTagOrder"
	errCategoryStructure  = "InvalidStructure"
)

// Parse implements LocalIdBuilder::parse (§4.5): tokenizes s, validates the
// naming rule and version, parses primary/secondary paths, then each
// metadata tag in fixed codebook order (§9 "Parsers... never throw"). Tag
// diagnostics are accumulated across all tags; a failure in the naming rule,
// version, paths or 'meta' marker returns at once with that diagnostic.
func Parse(s string, g *gmod.Gmod, locs *location.Locations, cbs *codebook.Codebooks) (*LocalId, *parsingerrors.ParsingErrors) {
	errs := &parsingerrors.ParsingErrors{}

	tokens := strings.Split(s, "/")
	if len(tokens) == 0 || tokens[0] != "" {
		errs.Append(errCategoryStructure, "LocalId string must start with '/'")

		return nil, errs
	}

	tokens = tokens[1:]

	if len(tokens) == 0 || tokens[0] != namingRule {
		errs.Append(errCategoryNamingRule, fmt.Sprintf("expected naming rule %q", namingRule))

		return nil, errs
	}

	tokens = tokens[1:]

	if len(tokens) == 0 {
		errs.Append(errCategoryVersion, "missing vis-version token")

		return nil, errs
	}

	version, err := visversion.Parse(tokens[0])
	if err != nil {
		errs.Append(errCategoryVersion, err.Error())

		return nil, errs
	}

	tokens = tokens[1:]

	primaryTokens, tokens := consumeUntil(tokens, "sec", "meta")
	if len(primaryTokens) == 0 {
		errs.Append(errCategoryPath, "missing primary path")

		return nil, errs
	}

	primaryStr, _, verbosePrimary := splitCommonName(strings.Join(primaryTokens, "/"))

	primary, pathErrs := gmodpath.Parse(primaryStr, g, locs)
	if !pathErrs.Empty() {
		for _, e := range pathErrs.Entries() {
			errs.Append(errCategoryPath, e.Message)
		}

		return nil, errs
	}

	builder := NewBuilder().WithVisVersion(version).WithPrimaryItem(primary)

	verbose := verbosePrimary

	if len(tokens) > 0 && tokens[0] == "sec" {
		tokens = tokens[1:]

		secondaryTokens, rest := consumeUntil(tokens, "meta")
		tokens = rest

		if len(secondaryTokens) == 0 {
			errs.Append(errCategoryPath, "missing secondary path after 'sec'")

			return nil, errs
		}

		secStr, _, verboseSec := splitCommonName(strings.Join(secondaryTokens, "/"))

		secondary, secErrs := gmodpath.Parse(secStr, g, locs)
		if !secErrs.Empty() {
			for _, e := range secErrs.Entries() {
				errs.Append(errCategoryPath, e.Message)
			}

			return nil, errs
		}

		builder = builder.WithSecondaryItem(secondary)
		verbose = verbose || verboseSec
	}

	builder = builder.WithVerboseMode(verbose)

	if len(tokens) == 0 || tokens[0] != "meta" {
		errs.Append(errCategoryStructure, "missing 'meta' section")

		return nil, errs
	}

	tokens = tokens[1:]

	lastOrder := -1

	for _, tagTok := range tokens {
		if tagTok == "" {
			continue
		}

		prefix, value, isCustom, ok := splitTagToken(tagTok)
		if !ok {
			errs.Append(errCategoryTag, fmt.Sprintf("malformed tag token %q", tagTok))

			continue
		}

		kind, ok := codebook.ParsePrefix(prefix)
		if !ok {
			errs.Append(errCategoryTag, fmt.Sprintf("unknown tag prefix %q", prefix))

			continue
		}

		idx := orderIndex(kind)
		if idx < lastOrder {
			errs.Append(errCategoryTagOrder, fmt.Sprintf("tag %q is out of fixed codebook order", tagTok))

			continue
		}

		lastOrder = idx

		cb := cbs.Get(kind)
		if cb != nil {
			if _, valid := cb.CreateTag(value); !valid {
				errs.Append(errCategoryTag, fmt.Sprintf("value %q rejected by codebook %v", value, kind))

				continue
			}
		}

		builder = builder.WithMetadataTag(codebook.Tag{Kind: kind, Value: value, IsCustom: isCustom})
	}

	if !errs.Empty() {
		return nil, errs
	}

	localId, buildErr := builder.Build()
	if buildErr != nil {
		errs.Append(errCategoryStructure, buildErr.Error())

		return nil, errs
	}

	return localId, nil
}

// consumeUntil splits tokens at the first occurrence of any of stops,
// returning the consumed prefix and the remaining tokens (stop token
// included at the head of the remainder).
func consumeUntil(tokens []string, stops ...string) ([]string, []string) {
	stopSet := map[string]bool{}
	for _, s := range stops {
		stopSet[s] = true
	}

	for i, t := range tokens {
		if stopSet[t] {
			return tokens[:i], tokens[i:]
		}
	}

	return tokens, nil
}

// splitCommonName strips a trailing "~{common-name}" suffix used by verbose
// rendering (§4.5, §6), returning the bare path string, the common name (if
// any), and whether a suffix was found.
func splitCommonName(pathStr string) (string, string, bool) {
	idx := strings.IndexByte(pathStr, '~')
	if idx < 0 {
		return pathStr, "", false
	}

	return pathStr[:idx], pathStr[idx+1:], true
}

// splitTagToken splits "{prefix}{sep}{value}" at the first '-' or '~'.
func splitTagToken(tok string) (prefix, value string, isCustom, ok bool) {
	for i := 0; i < len(tok); i++ {
		switch tok[i] {
		case '-':
			return tok[:i], tok[i+1:], false, true
		case '~':
			return tok[:i], tok[i+1:], true, true
		}
	}

	return "", "", false, false
}
