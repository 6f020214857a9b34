// Package gmod implements the GMOD node graph: GmodNode (spec.md §3,
// §4.3) and Gmod, the DAG that owns all nodes for one VIS version.
package gmod

import (
	"strings"

	"github.com/samber/lo"

	"github.com/dnv-opensource/vista-sdk-go/pkg/location"
)

// Node is a single catalog node: code, category/type metadata, and
// bidirectional edges to other nodes in the same Gmod.
type Node struct {
	Code                  string
	Category              string
	Type                  string
	Name                  string
	CommonName            string
	Definition            string
	CommonDefinition      string
	InstallSubstructure   bool
	NormalAssignmentNames map[string]string

	Location *location.Location

	children     []*Node
	parents      []*Node
	childCodeSet map[string]struct{}
}

// FullType is "{category} {type}".
func (n *Node) FullType() string {
	return n.Category + " " + n.Type
}

// Children returns this node's children, owned by the enclosing Gmod.
func (n *Node) Children() []*Node {
	return n.children
}

// Parents returns this node's parents, owned by the enclosing Gmod.
func (n *Node) Parents() []*Node {
	return n.parents
}

// IsChild reports whether other is a direct child of n, in O(1) using the
// trimmed child-code set built at construction (§4.3 step 3).
func (n *Node) IsChild(other *Node) bool {
	if other == nil {
		return false
	}

	_, ok := n.childCodeSet[other.Code]

	return ok
}

// trim shrinks capacity and builds the child-code lookup set (§4.3 step 3).
func (n *Node) trim() {
	n.children = append([]*Node(nil), n.children...)
	n.parents = append([]*Node(nil), n.parents...)

	n.childCodeSet = make(map[string]struct{}, len(n.children))
	for _, c := range n.children {
		n.childCodeSet[c.Code] = struct{}{}
	}
}

// IsProductType ↔ category=="PRODUCT" ∧ type=="TYPE".
func (n *Node) IsProductType() bool {
	return n.Category == "PRODUCT" && n.Type == "TYPE"
}

// IsProductSelection ↔ category=="PRODUCT" ∧ type=="SELECTION".
func (n *Node) IsProductSelection() bool {
	return n.Category == "PRODUCT" && n.Type == "SELECTION"
}

// IsAsset ↔ category=="ASSET".
func (n *Node) IsAsset() bool {
	return n.Category == "ASSET"
}

// IsFunctionNode ↔ category ∉ {"PRODUCT", "ASSET"}.
func (n *Node) IsFunctionNode() bool {
	return n.Category != "PRODUCT" && n.Category != "ASSET"
}

// IsAssetFunctionNode ↔ category=="ASSET FUNCTION".
func (n *Node) IsAssetFunctionNode() bool {
	return n.Category == "ASSET FUNCTION"
}

// IsLeafNode ↔ full_type ∈ {"ASSET FUNCTION LEAF", "PRODUCT FUNCTION LEAF"}.
func (n *Node) IsLeafNode() bool {
	ft := n.FullType()

	return ft == "ASSET FUNCTION LEAF" || ft == "PRODUCT FUNCTION LEAF"
}

// IsFunctionComposition ↔ category ∈ {"ASSET FUNCTION", "PRODUCT FUNCTION"}
// ∧ type=="COMPOSITION".
func (n *Node) IsFunctionComposition() bool {
	if n.Type != "COMPOSITION" {
		return false
	}

	return n.Category == "ASSET FUNCTION" || n.Category == "PRODUCT FUNCTION"
}

// IsIndividualizable implements §3's classification predicate.
func (n *Node) IsIndividualizable(isTargetNode bool, isInSet bool) bool {
	if n.Type == "GROUP" || n.Type == "SELECTION" || n.IsProductType() || n.FullType() == "ASSET TYPE" {
		return false
	}

	if n.IsFunctionComposition() {
		return strings.HasSuffix(n.Code, "i") || isInSet || isTargetNode
	}

	return true
}

// IsMappable implements §3's classification predicate.
func (n *Node) IsMappable() bool {
	if n.IsProductSelection() || n.IsAsset() {
		return false
	}

	if strings.HasSuffix(n.Code, "a") || strings.HasSuffix(n.Code, "s") {
		return false
	}

	return !lo.ContainsBy(n.children, func(c *Node) bool {
		return c.IsProductType() || c.IsProductSelection()
	})
}

// ProductType returns the single PRODUCT-TYPE child of a function node, if
// it has exactly one.
func (n *Node) ProductType() *Node {
	return n.singleChildOfKind(func(c *Node) bool { return c.IsProductType() })
}

// ProductSelection returns the single PRODUCT-SELECTION child of a function
// node, if it has exactly one.
func (n *Node) ProductSelection() *Node {
	return n.singleChildOfKind(func(c *Node) bool { return c.IsProductSelection() })
}

func (n *Node) singleChildOfKind(pred func(*Node) bool) *Node {
	if !n.IsFunctionNode() {
		return nil
	}

	matches := lo.Filter(n.children, func(c *Node, _ int) bool { return pred(c) })
	if len(matches) != 1 {
		return nil
	}

	return matches[0]
}

// WithLocation returns a copy of n carrying loc.
func (n *Node) WithLocation(loc location.Location) *Node {
	cp := *n
	cp.Location = &loc

	return &cp
}

// WithoutLocation returns a copy of n with no location.
func (n *Node) WithoutLocation() *Node {
	cp := *n
	cp.Location = nil

	return &cp
}

// clone returns a shallow copy of n with empty edges, used through
// ShallowCopy by GmodPath's owning-copy contract (§9 Open Question 2).
func (n *Node) clone() *Node {
	cp := *n
	cp.children = nil
	cp.parents = nil
	cp.childCodeSet = nil

	return &cp
}

// ShallowCopy exposes clone() for callers that own their own Gmod-free
// copy of a node (e.g. GmodPath, GmodVersioning).
func (n *Node) ShallowCopy() *Node {
	return n.clone()
}
