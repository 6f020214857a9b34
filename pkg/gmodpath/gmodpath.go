// Package gmodpath implements GmodPath: an ordered sequence of nodes
// representing a fully-qualified position in a Gmod graph, with short-form
// parsing/rendering and full-form parsing/rendering (spec.md §3, §4.4).
package gmodpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
	"github.com/dnv-opensource/vista-sdk-go/pkg/location"
	"github.com/dnv-opensource/vista-sdk-go/pkg/parsingerrors"
)

var (
	ErrUnknownCode      = fmt.Errorf("gmodpath: unknown code")
	ErrInvalidLocation  = fmt.Errorf("gmodpath: invalid location")
	ErrEmptyToken       = fmt.Errorf("gmodpath: empty path token")
	ErrNoValidChain     = fmt.Errorf("gmodpath: no parent chain connects the given codes")
	ErrAmbiguousPath    = fmt.Errorf("gmodpath: more than one parent chain connects the given codes")
	ErrInvalidPath      = fmt.Errorf("gmodpath: parents/node do not form a valid chain")
)

// GmodPath is an ordered sequence of nodes from the implied root down to a
// terminal node (§3). Parents and Node are owned copies (§9 Open Question
// 2) so a GmodPath outlives any one Gmod build within a version.
type GmodPath struct {
	Parents []*gmod.Node
	Node    *gmod.Node

	// anchors holds, for each token that should be rendered in short
	// form, the index into FullPath() it corresponds to. Paths produced
	// by Parse store the exact tokens given by the caller so that
	// to_string round-trips exactly (Testable property #2); paths built
	// by other means (e.g. GmodVersioning) fall back to a documented
	// heuristic — see SetAnchors.
	anchors []int
}

const errCategoryCode = "UnknownCode"
const errCategoryLocation = "InvalidLocation"
const errCategoryToken = "InvalidToken"
const errCategoryChain = "NoValidChain"
const errCategoryAmbiguous = "AmbiguousChain"

// token is one "code[-location]" element of a short-form path string.
type token struct {
	code string
	loc  *location.Location
}

func splitTokens(s string) []string {
	return strings.Split(s, "/")
}

func parseToken(raw string, g *gmod.Gmod, locs *location.Locations, errs *parsingerrors.ParsingErrors) (token, bool) {
	if raw == "" {
		errs.Append(errCategoryToken, "empty path token")

		return token{}, false
	}

	code := raw

	var locStr string

	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		code = raw[:idx]
		locStr = raw[idx+1:]
	}

	if _, ok := g.Node(code); !ok {
		errs.Append(errCategoryCode, fmt.Sprintf("unknown code %q", code))

		return token{}, false
	}

	t := token{code: code}

	if locStr != "" {
		loc, locErrs := locs.Parse(locStr)
		if !locErrs.Empty() {
			errs.Append(errCategoryLocation, fmt.Sprintf("invalid location %q for code %q", locStr, code))

			return token{}, false
		}

		t.loc = &loc
	}

	return t, true
}

// Parse resolves a short-form path string (§4.4) against g and locs.
func Parse(s string, g *gmod.Gmod, locs *location.Locations) (*GmodPath, *parsingerrors.ParsingErrors) {
	errs := &parsingerrors.ParsingErrors{}

	rawTokens := splitTokens(s)
	if len(rawTokens) == 0 {
		errs.Append(errCategoryToken, "empty path")

		return nil, errs
	}

	tokens := make([]token, 0, len(rawTokens))

	ok := true

	for _, raw := range rawTokens {
		t, good := parseToken(raw, g, locs, errs)
		if !good {
			ok = false

			continue
		}

		tokens = append(tokens, t)
	}

	if !ok {
		return nil, errs
	}

	fullSeq, chainErr := resolveChain(g, tokens)
	if chainErr != nil {
		category := errCategoryChain
		if errors.Is(chainErr, ErrAmbiguousPath) {
			category = errCategoryAmbiguous
		}

		errs.Append(category, chainErr.Error())

		return nil, errs
	}

	parents := make([]*gmod.Node, len(fullSeq)-1)
	for i, n := range fullSeq[:len(fullSeq)-1] {
		parents[i] = n.ShallowCopy()
	}

	node := fullSeq[len(fullSeq)-1].ShallowCopy()

	path := &GmodPath{Parents: parents, Node: node}

	applyLocations(path, tokens)

	anchors := make([]int, 0, len(tokens))

	anchorCode := map[string]bool{}
	for _, t := range tokens {
		anchorCode[t.code] = true
	}

	for i, n := range path.FullPath() {
		if anchorCode[n.Code] {
			anchors = append(anchors, i)
		}
	}

	path.anchors = anchors

	return path, nil
}

// resolveChain walks tokens in order, connecting VE to the first token and
// each token to the next via the unique validating parent chain (§4.4).
func resolveChain(g *gmod.Gmod, tokens []token) ([]*gmod.Node, error) {
	full := []*gmod.Node{g.Root}
	current := g.Root

	for _, t := range tokens {
		target, _ := g.Node(t.code)

		if current.Code == target.Code {
			continue
		}

		segment, err := uniqueChain(current, target)
		if err != nil {
			return nil, err
		}

		full = append(full, segment...)
		current = target
	}

	return full, nil
}

// uniqueChain enumerates simple child-edge paths from -> to and requires
// exactly one to exist (§4.4 ambiguity resolution, §9 Open Question 3;
// see DESIGN.md for why this is unique-syntactic-match only, with no
// LocationSetsVisitor pre-filter).
func uniqueChain(from, to *gmod.Node) ([]*gmod.Node, error) {
	// Two distinct chains already prove ambiguity; stop enumerating once
	// found instead of walking out every remaining simple path in the DAG.
	const maxPaths = 2

	var results [][]*gmod.Node

	var dfs func(node *gmod.Node, path []*gmod.Node, visiting map[string]bool)

	dfs = func(node *gmod.Node, path []*gmod.Node, visiting map[string]bool) {
		if len(results) >= maxPaths {
			return
		}

		if node.Code == to.Code {
			results = append(results, append([]*gmod.Node(nil), path...))

			return
		}

		if visiting[node.Code] {
			return
		}

		visiting[node.Code] = true
		defer delete(visiting, node.Code)

		for _, child := range node.Children() {
			dfs(child, append(path, child), visiting)

			if len(results) >= maxPaths {
				return
			}
		}
	}

	dfs(from, nil, map[string]bool{from.Code: true})

	switch len(results) {
	case 0:
		return nil, fmt.Errorf("%w: %q to %q", ErrNoValidChain, from.Code, to.Code)
	case 1:
		return results[0], nil
	default:
		return nil, fmt.Errorf("%w: %q to %q", ErrAmbiguousPath, from.Code, to.Code)
	}
}

// applyLocations assigns each token's location to its node and propagates
// it to individualizable ancestors, per §4.4's propagation rule.
func applyLocations(path *GmodPath, tokens []token) {
	full := path.FullPath()

	anchorIndexByCode := map[string]int{}
	for i, n := range full {
		anchorIndexByCode[n.Code] = i
	}

	explicit := map[string]bool{}
	for _, t := range tokens {
		if t.loc != nil {
			explicit[t.code] = true
		}
	}

	for _, t := range tokens {
		if t.loc == nil {
			continue
		}

		idx, ok := anchorIndexByCode[t.code]
		if !ok {
			continue
		}

		setLocationAt(path, idx, *t.loc)

		for i := idx - 1; i >= 0; i-- {
			n := full[i]
			if explicit[n.Code] {
				break
			}

			if !n.IsIndividualizable(false, true) {
				break
			}

			setLocationAt(path, i, *t.loc)
		}
	}
}

func setLocationAt(path *GmodPath, idx int, loc location.Location) {
	if idx == len(path.Parents) {
		path.Node = path.Node.WithLocation(loc)

		return
	}

	path.Parents[idx] = path.Parents[idx].WithLocation(loc)
}

// FullPath returns parents followed by the terminal node (§3 full_path).
func (p *GmodPath) FullPath() []*gmod.Node {
	full := make([]*gmod.Node, 0, len(p.Parents)+1)
	full = append(full, p.Parents...)
	full = append(full, p.Node)

	return full
}

// DepthNode pairs a full-path depth with its node.
type DepthNode struct {
	Depth int
	Node  *gmod.Node
}

// FullPathFrom yields (depth, node) pairs starting at depth.
func (p *GmodPath) FullPathFrom(depth int) []DepthNode {
	full := p.FullPath()

	out := make([]DepthNode, 0, len(full)-depth)
	for i := depth; i < len(full); i++ {
		out = append(out, DepthNode{Depth: i, Node: full[i]})
	}

	return out
}

// IsValid checks §4.4's path validity contract against g.
func IsValid(parents []*gmod.Node, node *gmod.Node, g *gmod.Gmod) bool {
	if len(parents) == 0 || parents[0].Code != gmod.RootCode {
		return false
	}

	for i := 0; i+1 < len(parents); i++ {
		gp, ok := g.Node(parents[i].Code)
		if !ok || !gp.IsChild(parents[i+1]) {
			return false
		}
	}

	last := parents[len(parents)-1]

	gLast, ok := g.Node(last.Code)
	if !ok || !gLast.IsChild(node) {
		return false
	}

	return true
}

// ToString renders the short form: each anchor node's code, with a
// "-{location}" suffix where set, joined by "/".
func (p *GmodPath) ToString() string {
	full := p.FullPath()

	anchors := p.anchors
	if len(anchors) == 0 {
		anchors = []int{len(full) - 1}
	}

	parts := make([]string, 0, len(anchors))

	for _, idx := range anchors {
		n := full[idx]

		if n.Location != nil {
			parts = append(parts, n.Code+"-"+n.Location.String())
		} else {
			parts = append(parts, n.Code)
		}
	}

	return strings.Join(parts, "/")
}

// ToFullPathString renders every node from the root down.
func (p *GmodPath) ToFullPathString() string {
	full := p.FullPath()

	parts := make([]string, len(full))
	for i, n := range full {
		parts[i] = n.Code
	}

	return strings.Join(parts, "/")
}

// ParseFullPath resolves a full-path string (every node from VE down) and
// requires each consecutive pair to be a parent-child edge in g.
func ParseFullPath(s string, g *gmod.Gmod) (*GmodPath, *parsingerrors.ParsingErrors) {
	errs := &parsingerrors.ParsingErrors{}

	codes := splitTokens(s)
	if len(codes) == 0 || codes[0] != gmod.RootCode {
		errs.Append(errCategoryChain, "full path must start at "+gmod.RootCode)

		return nil, errs
	}

	nodes := make([]*gmod.Node, 0, len(codes))

	for _, code := range codes {
		n, ok := g.Node(code)
		if !ok {
			errs.Append(errCategoryCode, fmt.Sprintf("unknown code %q", code))

			return nil, errs
		}

		nodes = append(nodes, n.ShallowCopy())
	}

	for i := 0; i+1 < len(nodes); i++ {
		gp, _ := g.Node(nodes[i].Code)
		if !gp.IsChild(nodes[i+1]) {
			errs.Append(errCategoryChain, fmt.Sprintf("%q is not a parent of %q", nodes[i].Code, nodes[i+1].Code))

			return nil, errs
		}
	}

	path := &GmodPath{
		Parents: nodes[:len(nodes)-1],
		Node:    nodes[len(nodes)-1],
		anchors: []int{len(nodes) - 1},
	}

	return path, nil
}

// SetAnchors overrides which full-path indices are rendered as short-form
// tokens by ToString. Callers that build a GmodPath outside Parse (e.g.
// GmodVersioning's reconstruction algorithm) use this to keep every
// location-bearing node, plus the terminal node, as anchors — a documented
// simplification of the full individualizable-set anchor-selection
// algorithm (§9 Open Question 3), which requires reference fixtures this
// pack does not carry.
func (p *GmodPath) SetAnchors(indices []int) {
	p.anchors = append([]int(nil), indices...)
}

// IndividualizableSets returns the ordered list of contiguous node
// subsequences over which a single location, if applied, propagates
// coherently — each maximal run of consecutive nodes for which
// IsIndividualizable holds. Runs are split only at non-individualizable
// nodes; a node that already carries a location does not end a run.
func (p *GmodPath) IndividualizableSets() [][]*gmod.Node {
	full := p.FullPath()

	var sets [][]*gmod.Node

	var current []*gmod.Node

	flush := func() {
		if len(current) > 0 {
			sets = append(sets, current)
			current = nil
		}
	}

	for i, n := range full {
		isTarget := i == len(full)-1
		if n.IsIndividualizable(isTarget, len(current) > 0) {
			current = append(current, n)
		} else {
			flush()
		}
	}

	flush()

	return sets
}
