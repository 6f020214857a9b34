// Package versioning implements GmodVersioning: cross-version conversion of
// nodes, paths, and LocalIds by applying a declarative per-version
// changelog (spec.md §3, §4.6).
package versioning

import (
	"fmt"
	"log/slog"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/codebook"
	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmodpath"
	"github.com/dnv-opensource/vista-sdk-go/pkg/localid"
	"github.com/dnv-opensource/vista-sdk-go/pkg/sdklog"
)

// tagKinds enumerates every metadata slot a LocalId may carry, in the same
// fixed codebook order the wire format uses (§4.5, §6).
var tagKinds = []codebook.Kind{
	codebook.Quantity,
	codebook.Content,
	codebook.Calculation,
	codebook.State,
	codebook.Command,
	codebook.Type,
	codebook.Position,
	codebook.Detail,
}

// Operation is one of the changelog's declarative edit kinds (§3
// VersioningChangelog).
type Operation string

const (
	ChangeCode       Operation = "ChangeCode"
	Merge            Operation = "Merge"
	Move             Operation = "Move"
	AssignmentChange Operation = "AssignmentChange"
	AssignmentDelete Operation = "AssignmentDelete"
)

// NodeConversion is one changelog entry: how a single source code maps
// forward to a target version.
type NodeConversion struct {
	Operations       []Operation
	Source           string
	Target           string
	OldAssignment    string
	NewAssignment    string
	DeleteAssignment bool
}

func (c NodeConversion) has(op Operation) bool {
	for _, o := range c.Operations {
		if o == op {
			return true
		}
	}

	return false
}

func toOperations(raw []string) []Operation {
	ops := make([]Operation, len(raw))
	for i, r := range raw {
		ops[i] = Operation(r)
	}

	return ops
}

// VersioningChangelog is the source_code -> NodeConversion map for one
// target version.
type VersioningChangelog map[string]NodeConversion

// GmodVersioning holds the changelog for every known target version.
type GmodVersioning struct {
	changelogs map[visversion.VisVersion]VersioningChangelog
	log        *slog.Logger
}

// New builds a GmodVersioning from one GmodVersioningDto per target
// version. log is optional; a nil logger falls back to sdklog.Default().
func New(dtos []dto.GmodVersioningDto, log *slog.Logger) *GmodVersioning {
	if log == nil {
		log = sdklog.Default()
	}

	v := &GmodVersioning{changelogs: map[visversion.VisVersion]VersioningChangelog{}, log: log}

	for _, d := range dtos {
		changelog := make(VersioningChangelog, len(d.Items))

		for code, entry := range d.Items {
			changelog[code] = NodeConversion{
				Operations:       toOperations(entry.Operations),
				Source:           entry.Source,
				Target:           entry.Target,
				OldAssignment:    entry.OldAssignment,
				NewAssignment:    entry.NewAssignment,
				DeleteAssignment: entry.DeleteAssignment,
			}
		}

		v.changelogs[d.VisVersion] = changelog
		log.Debug("versioning: loaded changelog", "target", d.VisVersion, "entries", len(changelog))
	}

	return v
}

func (v *GmodVersioning) entryFor(targetVersion visversion.VisVersion, code string) (NodeConversion, bool) {
	changelog, ok := v.changelogs[targetVersion]
	if !ok {
		return NodeConversion{}, false
	}

	entry, ok := changelog[code]

	return entry, ok
}

var (
	ErrReapplyLocation      = fmt.Errorf("versioning: location rejected by target node")
	ErrTargetCodeMissing    = fmt.Errorf("versioning: target Gmod has no node for changelog target code")
	ErrDeletedTerminal      = fmt.Errorf("versioning: changelog deletes the path's terminal node")
	ErrCannotRemoveLastNode = fmt.Errorf("versioning: tried to remove last asset function node")
	ErrVersionsNotAscending = fmt.Errorf("versioning: source version must be less than target version")
)

// ConvertNode implements convert_node (§4.6): carry the code forward if the
// changelog has no entry, else follow the entry's target code; clone from
// targetGmod and reapply any source location.
func ConvertNode(
	node *gmod.Node,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	targetGmod *gmod.Gmod,
) (*gmod.Node, error) {
	code := node.Code

	if entry, ok := changelog.entryFor(targetVersion, node.Code); ok && entry.Target != "" {
		code = entry.Target
	}

	targetNode, ok := targetGmod.Node(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTargetCodeMissing, code)
	}

	converted := targetNode.ShallowCopy()

	if node.Location != nil {
		converted = converted.WithLocation(*node.Location)
	}

	return converted, nil
}

// ConvertPath implements convert_path (§4.6). When a node of path has no
// counterpart in targetGmod (no changelog entry and no matching code), it
// returns a nil path with ErrTargetCodeMissing; there is no nil-path,
// nil-error outcome. Structural impossibilities during reconstruction are
// likewise returned as errors.
func ConvertPath(
	sourceVersion visversion.VisVersion,
	path *gmodpath.GmodPath,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	targetGmod *gmod.Gmod,
) (*gmodpath.GmodPath, error) {
	if !sourceVersion.LessThan(targetVersion) {
		return nil, ErrVersionsNotAscending
	}

	changelog.log.Debug("versioning: converting path", "source", sourceVersion, "target", targetVersion, "terminal", path.Node.Code)

	terminal, err := ConvertNode(path.Node, targetVersion, changelog, targetGmod)
	if err != nil {
		return nil, err
	}

	if terminal.Code == gmod.RootCode {
		return &gmodpath.GmodPath{Node: terminal}, nil
	}

	full := path.FullPath()
	qualifying := make([]*gmod.Node, len(full))

	for i, n := range full {
		cn, err := ConvertNode(n, targetVersion, changelog, targetGmod)
		if err != nil {
			return nil, err
		}

		qualifying[i] = cn
	}

	parents := qualifying[:len(qualifying)-1]
	lastTerminal := qualifying[len(qualifying)-1]

	if gmodpath.IsValid(parents, lastTerminal, targetGmod) {
		result := &gmodpath.GmodPath{Parents: parents, Node: lastTerminal}
		result.SetAnchors(defaultAnchors(result))

		return result, nil
	}

	changelog.log.Debug("versioning: direct conversion invalid, reconstructing path", "terminal", lastTerminal.Code)

	return reconstructPath(sourceVersion, full, targetVersion, qualifying, changelog, targetGmod)
}

// qualifyingClass is the classification §4.6 assigns each qualifying node
// during reconstruction.
type qualifyingClass int

const (
	classUnchanged qualifyingClass = iota
	classCodeChange
	classAssignmentChange
	classAssignmentDelete
)

func classify(sourceCode string, changelog *GmodVersioning, targetVersion visversion.VisVersion) (qualifyingClass, NodeConversion) {
	entry, ok := changelog.entryFor(targetVersion, sourceCode)
	if !ok {
		return classUnchanged, NodeConversion{}
	}

	switch {
	case entry.has(AssignmentDelete):
		return classAssignmentDelete, entry
	case entry.has(AssignmentChange):
		return classAssignmentChange, entry
	case entry.has(ChangeCode):
		return classCodeChange, entry
	default:
		// Merge/Move already take effect through entry.Target inside
		// ConvertNode; collapse detection in reconstructPath handles Merge's
		// many-to-one case. Selection-change classification is
		// under-specified by the source changelog format (spec §9 redesign
		// note) and is treated the same as unchanged.
		return classUnchanged, entry
	}
}

// reconstructPath implements §4.6's reconstruction algorithm: walk
// qualifying nodes, handling collapses, assignment deletes/changes, and
// parent-chain rectification via add_to_path, then a final
// LocationSetsVisitor-style propagation pass.
func reconstructPath(
	sourceVersion visversion.VisVersion,
	sourceFull []*gmod.Node,
	targetVersion visversion.VisVersion,
	qualifying []*gmod.Node,
	changelog *GmodVersioning,
	targetGmod *gmod.Gmod,
) (*gmodpath.GmodPath, error) {
	var built []*gmod.Node

	terminalIdx := len(qualifying) - 1

	for i, cn := range qualifying {
		class, entry := classify(sourceFull[i].Code, changelog, targetVersion)

		if len(built) > 0 && built[len(built)-1].Code == cn.Code {
			if err := mergeLocation(built[len(built)-1], cn); err != nil {
				return nil, err
			}

			continue
		}

		switch class {
		case classAssignmentDelete:
			if i == terminalIdx {
				return nil, ErrDeletedTerminal
			}

			continue

		case classAssignmentChange:
			if entry.NewAssignment != "" {
				assigned, ok := targetGmod.Node(entry.NewAssignment)
				if !ok {
					return nil, fmt.Errorf("%w: %q", ErrTargetCodeMissing, entry.NewAssignment)
				}

				cn = assigned.ShallowCopy()
				if sourceFull[i].Location != nil {
					cn = cn.WithLocation(*sourceFull[i].Location)
				}
			}

		case classCodeChange, classUnchanged:
			// cn is already the converted node from ConvertNode above.
		}

		var err error

		built, err = addToPath(built, cn, targetGmod)
		if err != nil {
			return nil, err
		}
	}

	if len(built) == 0 {
		return nil, ErrDeletedTerminal
	}

	terminal := built[len(built)-1]
	parents := built[:len(built)-1]

	path := &gmodpath.GmodPath{Parents: parents, Node: terminal}
	propagateLocationSets(path)
	path.SetAnchors(defaultAnchors(path))

	if !gmodpath.IsValid(parents, terminal, targetGmod) {
		return nil, fmt.Errorf("%w: reconstructed path failed validation", ErrCannotRemoveLastNode)
	}

	return path, nil
}

// mergeLocation implements collapse handling: when two consecutive
// qualifying nodes converge on the same code, their locations must not
// conflict.
func mergeLocation(existing, incoming *gmod.Node) error {
	if incoming.Location == nil {
		return nil
	}

	if existing.Location != nil && existing.Location.String() != incoming.Location.String() {
		return fmt.Errorf("%w: collapsed nodes %q carry conflicting locations", ErrReapplyLocation, existing.Code)
	}

	return nil
}

// addToPath appends node to built, rectifying the parent chain via
// path_exists_between when node isn't a direct child of built's tail
// (§4.6 add_to_path).
func addToPath(built []*gmod.Node, node *gmod.Node, targetGmod *gmod.Gmod) ([]*gmod.Node, error) {
	if len(built) == 0 {
		return append(built, node), nil
	}

	last := built[len(built)-1]

	lastInGraph, inGraph := targetGmod.Node(last.Code)
	if inGraph && lastInGraph.IsChild(node) {
		return append(built, node), nil
	}

	// built holds edge-less copies, so the search starts from the graph's
	// own node for last's code.
	var ok bool

	var intermediates []*gmod.Node

	if inGraph {
		ok, intermediates = gmod.PathExistsBetween([]*gmod.Node{lastInGraph}, node)
	}

	if ok {
		for _, mid := range intermediates {
			copyMid := mid.ShallowCopy()
			if node.Location != nil && copyMid.IsIndividualizable(false, true) {
				copyMid = copyMid.WithLocation(*node.Location)
			}

			built = append(built, copyMid)
		}

		return append(built, node), nil
	}

	if len(built) < 2 || !built[len(built)-2].IsAssetFunctionNode() {
		return nil, ErrCannotRemoveLastNode
	}

	trimmed := built[:len(built)-1]

	return addToPath(trimmed, node, targetGmod)
}

// propagateLocationSets runs a final IndividualizableSets pass: the first
// node in a set that carries a location spreads it to the set's nodes that
// carry none (§4.6 final pass).
func propagateLocationSets(path *gmodpath.GmodPath) {
	for _, set := range path.IndividualizableSets() {
		var loc *gmod.Node

		for _, n := range set {
			if n.Location != nil {
				loc = n

				break
			}
		}

		if loc == nil {
			continue
		}

		for _, n := range set {
			if n.Location == nil {
				*n = *n.WithLocation(*loc.Location)
			}
		}
	}
}

// defaultAnchors picks short-form render anchors for a path not produced
// by gmodpath.Parse: every location-bearing node plus the terminal, per
// gmodpath.SetAnchors's documented heuristic.
func defaultAnchors(path *gmodpath.GmodPath) []int {
	full := path.FullPath()

	anchors := make([]int, 0, 1)

	for i, n := range full {
		if n.Location != nil {
			anchors = append(anchors, i)
		}
	}

	last := len(full) - 1
	if len(anchors) == 0 || anchors[len(anchors)-1] != last {
		anchors = append(anchors, last)
	}

	return anchors
}

// GmodProvider resolves the Gmod instance owning a given VisVersion. Multi-
// step conversion uses it to fetch each intermediate version's Gmod as it
// steps forward one version at a time (§4.6 "For non-adjacent versions, the
// conversion chain steps through each intermediate version").
type GmodProvider func(v visversion.VisVersion) (*gmod.Gmod, error)

// ConvertNodeToVersion applies ConvertNode once per intermediate version
// between sourceVersion and targetVersion, in ascending api/visversion.Next
// order, rather than requiring the two versions to be adjacent.
func ConvertNodeToVersion(
	sourceVersion visversion.VisVersion,
	node *gmod.Node,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	gmods GmodProvider,
) (*gmod.Node, error) {
	if !sourceVersion.LessThan(targetVersion) {
		return nil, ErrVersionsNotAscending
	}

	current := node

	for v := sourceVersion; v != targetVersion; {
		next, ok := visversion.Next(v)
		if !ok {
			return nil, fmt.Errorf("versioning: no known version after %q", v)
		}

		targetGmod, err := gmods(next)
		if err != nil {
			return nil, fmt.Errorf("resolving gmod for %q: %w", next, err)
		}

		current, err = ConvertNode(current, next, changelog, targetGmod)
		if err != nil {
			return nil, err
		}

		v = next
	}

	return current, nil
}

// ConvertPathToVersion applies ConvertPath once per intermediate version
// between sourceVersion and targetVersion, so non-adjacent conversions
// (e.g. 3-4a -> 3-9a) step through every version in between (§4.6).
func ConvertPathToVersion(
	sourceVersion visversion.VisVersion,
	path *gmodpath.GmodPath,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	gmods GmodProvider,
) (*gmodpath.GmodPath, error) {
	if !sourceVersion.LessThan(targetVersion) {
		return nil, ErrVersionsNotAscending
	}

	current := path

	for v := sourceVersion; v != targetVersion; {
		next, ok := visversion.Next(v)
		if !ok {
			return nil, fmt.Errorf("versioning: no known version after %q", v)
		}

		targetGmod, err := gmods(next)
		if err != nil {
			return nil, fmt.Errorf("resolving gmod for %q: %w", next, err)
		}

		var err2 error

		current, err2 = ConvertPath(v, current, next, changelog, targetGmod)
		if err2 != nil {
			return nil, err2
		}

		v = next
	}

	return current, nil
}

// ConvertLocalIdToVersion applies ConvertLocalId once per intermediate
// version between sourceVersion and targetVersion (§4.6).
func ConvertLocalIdToVersion(
	sourceVersion visversion.VisVersion,
	id *localid.LocalId,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	gmods GmodProvider,
) (*localid.LocalId, error) {
	if !sourceVersion.LessThan(targetVersion) {
		return nil, ErrVersionsNotAscending
	}

	current := id

	for v := sourceVersion; v != targetVersion; {
		next, ok := visversion.Next(v)
		if !ok {
			return nil, fmt.Errorf("versioning: no known version after %q", v)
		}

		targetGmod, err := gmods(next)
		if err != nil {
			return nil, fmt.Errorf("resolving gmod for %q: %w", next, err)
		}

		var err2 error

		current, err2 = ConvertLocalId(v, current, next, changelog, targetGmod)
		if err2 != nil {
			return nil, err2
		}

		v = next
	}

	return current, nil
}

// ConvertLocalId implements LocalId conversion (§4.6): convert the primary
// path (required) and secondary path (optional); metadata tags and the
// verbose-mode flag carry over unchanged.
func ConvertLocalId(
	sourceVersion visversion.VisVersion,
	id *localid.LocalId,
	targetVersion visversion.VisVersion,
	changelog *GmodVersioning,
	targetGmod *gmod.Gmod,
) (*localid.LocalId, error) {
	primary, err := ConvertPath(sourceVersion, id.PrimaryItem(), targetVersion, changelog, targetGmod)
	if err != nil {
		return nil, fmt.Errorf("converting primary item: %w", err)
	}

	builder := localid.NewBuilder().WithVisVersion(targetVersion).WithVerboseMode(id.VerboseMode()).WithPrimaryItem(primary)

	if id.SecondaryItem() != nil {
		secondary, err := ConvertPath(sourceVersion, id.SecondaryItem(), targetVersion, changelog, targetGmod)
		if err != nil {
			return nil, fmt.Errorf("converting secondary item: %w", err)
		}

		builder = builder.WithSecondaryItem(secondary)
	}

	for _, kind := range tagKinds {
		if tag, ok := id.Tag(kind); ok {
			builder = builder.WithMetadataTag(tag)
		}
	}

	converted, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building converted LocalId: %w", err)
	}

	return converted, nil
}
