package gmod

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/sdklog"
)

const RootCode = "VE"

var (
	ErrMissingRoot = fmt.Errorf("gmod: root node %q not found", RootCode)
	ErrUnknownCode = fmt.Errorf("gmod: unknown code")
)

// Gmod is the node graph for one VIS version: it owns every Node and
// exposes traversal (§4.3).
type Gmod struct {
	Version visversion.VisVersion
	Root    *Node

	nodes map[string]*Node
}

// IsPotentialParent ↔ type ∈ {"SELECTION","GROUP","LEAF"} (§3 Gmod static
// predicates).
func IsPotentialParent(nodeType string) bool {
	switch nodeType {
	case "SELECTION", "GROUP", "LEAF":
		return true
	default:
		return false
	}
}

// IsProductTypeAssignment ↔ parent.is_function_node ∧ child.is_product_type.
func IsProductTypeAssignment(parent, child *Node) bool {
	return parent.IsFunctionNode() && child.IsProductType()
}

// IsProductSelectionAssignment ↔ parent.is_function_node ∧
// child.is_product_selection.
func IsProductSelectionAssignment(parent, child *Node) bool {
	return parent.IsFunctionNode() && child.IsProductSelection()
}

// New constructs a Gmod from a deserialized GmodDto (§4.3).
func New(d dto.GmodDto, log *slog.Logger) (*Gmod, error) {
	if log == nil {
		log = sdklog.Default()
	}

	if err := dto.Validate(context.Background(), d); err != nil {
		return nil, fmt.Errorf("gmod: %w", err)
	}

	nodes := make(map[string]*Node, len(d.Items))

	for _, item := range d.Items {
		nodes[item.Code] = &Node{
			Code:                  item.Code,
			Category:              item.Category,
			Type:                  item.Type,
			Name:                  item.Name,
			CommonName:            item.CommonName,
			Definition:            item.Definition,
			CommonDefinition:      item.CommonDefinition,
			InstallSubstructure:   item.InstallSubstructure,
			NormalAssignmentNames: item.NormalAssignmentNames,
		}
	}

	for _, rel := range d.Relations {
		parentCode, childCode := rel[0], rel[1]

		parent, ok := nodes[parentCode]
		if !ok {
			return nil, fmt.Errorf("%w: parent code %q", ErrUnknownCode, parentCode)
		}

		child, ok := nodes[childCode]
		if !ok {
			return nil, fmt.Errorf("%w: child code %q", ErrUnknownCode, childCode)
		}

		parent.children = append(parent.children, child)
		child.parents = append(child.parents, parent)
	}

	for _, n := range nodes {
		n.trim()
	}

	root, ok := nodes[RootCode]
	if !ok {
		return nil, ErrMissingRoot
	}

	log.Debug("gmod: built graph", "version", d.VisVersion, "nodes", len(nodes), "relations", len(d.Relations))

	return &Gmod{Version: d.VisVersion, Root: root, nodes: nodes}, nil
}

// Node looks up a node by code in O(1).
func (g *Gmod) Node(code string) (*Node, bool) {
	n, ok := g.nodes[code]

	return n, ok
}

// Len returns the total number of nodes.
func (g *Gmod) Len() int {
	return len(g.nodes)
}

// TraversalResult is the closed control-flow enum a TraversalHandler
// returns (§4.3, §9).
type TraversalResult int

const (
	Continue TraversalResult = iota
	SkipSubtree
	Stop
)

// TraversalHandler is invoked per visited node with the current parents
// stack and the node itself.
type TraversalHandler[S any] func(state *S, parents []*Node, node *Node) TraversalResult

// TraversalOptions configures Traverse. MaxTraversalOccurrences bounds how
// many times a given code may be re-entered, since the Gmod is a DAG and a
// node may be reachable via multiple parent chains.
type TraversalOptions struct {
	MaxTraversalOccurrences int
}

// DefaultTraversalOptions matches §4.3's default of 1 occurrence per code.
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{MaxTraversalOccurrences: 1}
}

// Traverse performs depth-first pre-order visitation from root. It returns
// false iff the handler returned Stop at some point.
func Traverse[S any](root *Node, state *S, handler TraversalHandler[S], opts TraversalOptions) bool {
	if opts.MaxTraversalOccurrences <= 0 {
		opts.MaxTraversalOccurrences = 1
	}

	occurrences := map[string]int{}

	var visit func(parents []*Node, node *Node) bool

	visit = func(parents []*Node, node *Node) bool {
		occurrences[node.Code]++
		if occurrences[node.Code] > opts.MaxTraversalOccurrences {
			return true
		}

		switch handler(state, parents, node) {
		case Stop:
			return false
		case SkipSubtree:
			return true
		}

		nextParents := append(append([]*Node(nil), parents...), node)

		for _, child := range node.children {
			if !visit(nextParents, child) {
				return false
			}
		}

		return true
	}

	return visit(nil, root)
}

// PathExistsBetween determines whether appending nodes to fromParents
// could reach toNode, writing the intermediate nodes (excluding toNode)
// into the returned slice when it does (§4.3).
func PathExistsBetween(fromParents []*Node, toNode *Node) (bool, []*Node) {
	if len(fromParents) == 0 {
		return false, nil
	}

	start := fromParents[len(fromParents)-1]

	visited := map[string]bool{}

	var dfs func(node *Node, path []*Node) ([]*Node, bool)

	dfs = func(node *Node, path []*Node) ([]*Node, bool) {
		if node.Code == toNode.Code {
			return path, true
		}

		if visited[node.Code] {
			return nil, false
		}

		visited[node.Code] = true

		for _, child := range node.children {
			if found, ok := dfs(child, append(append([]*Node(nil), path...), child)); ok {
				return found, true
			}
		}

		return nil, false
	}

	found, ok := dfs(start, nil)
	if !ok {
		return false, nil
	}

	if len(found) > 0 {
		found = found[:len(found)-1]
	}

	return true, found
}
