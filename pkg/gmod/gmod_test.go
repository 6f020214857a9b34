package gmod_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
)

func buildTestDto() dto.GmodDto {
	node := func(code, category, typ string) dto.GmodNodeDto {
		return dto.GmodNodeDto{Code: code, Category: category, Type: typ, Name: code}
	}

	return dto.GmodDto{
		VisVersion: visversion.V3_4a,
		Items: []dto.GmodNodeDto{
			node("VE", "ASSET", "ASSET"),
			node("400a", "FUNCTION", "GROUP"),
			node("410", "FUNCTION", "GROUP"),
			node("411", "FUNCTION", "GROUP"),
			node("411i", "ASSET FUNCTION", "COMPOSITION"),
			node("411.1", "ASSET FUNCTION", "LEAF"),
			node("CS1", "FUNCTION", "GROUP"),
			node("C101", "ASSET FUNCTION", "LEAF"),
			node("C101.7", "FUNCTION", "GROUP"),
			node("C101.72", "ASSET FUNCTION", "LEAF"),
			node("I101", "ASSET FUNCTION", "LEAF"),
		},
		Relations: []dto.GmodRelationDto{
			{"VE", "400a"},
			{"400a", "410"},
			{"410", "411"},
			{"411", "411i"},
			{"411i", "411.1"},
			{"411.1", "CS1"},
			{"CS1", "C101"},
			{"C101", "C101.7"},
			{"C101.7", "C101.72"},
			{"C101.72", "I101"},
		},
	}
}

func TestNewAndLookup(t *testing.T) {
	g, err := gmod.New(buildTestDto(), nil)
	require.NoError(t, err)
	require.Equal(t, gmod.RootCode, g.Root.Code)
	require.Equal(t, 11, g.Len())

	n, ok := g.Node("C101.72")
	require.True(t, ok)
	require.Equal(t, "C101.72", n.Code)

	_, ok = g.Node("NOPE")
	require.False(t, ok)
}

func TestMissingRootFails(t *testing.T) {
	d := dto.GmodDto{
		VisVersion: visversion.V3_4a,
		Items:      []dto.GmodNodeDto{{Code: "X", Category: "ASSET", Type: "ASSET", Name: "X"}},
	}

	_, err := gmod.New(d, nil)
	require.ErrorIs(t, err, gmod.ErrMissingRoot)
}

func TestUnknownRelationCodeFails(t *testing.T) {
	d := dto.GmodDto{
		VisVersion: visversion.V3_4a,
		Items:      []dto.GmodNodeDto{{Code: "VE", Category: "ASSET", Type: "ASSET", Name: "VE"}},
		Relations:  []dto.GmodRelationDto{{"VE", "GHOST"}},
	}

	_, err := gmod.New(d, nil)
	require.ErrorIs(t, err, gmod.ErrUnknownCode)
}

func TestIsChild(t *testing.T) {
	g, err := gmod.New(buildTestDto(), nil)
	require.NoError(t, err)

	ve, _ := g.Node("VE")
	n400a, _ := g.Node("400a")
	c101, _ := g.Node("C101")

	require.True(t, ve.IsChild(n400a))
	require.False(t, ve.IsChild(c101))
}

func TestTraverseCountsAndStop(t *testing.T) {
	g, err := gmod.New(buildTestDto(), nil)
	require.NoError(t, err)

	var visited []string
	complete := gmod.Traverse(g.Root, &visited, func(state *[]string, _ []*gmod.Node, node *gmod.Node) gmod.TraversalResult {
		*state = append(*state, node.Code)

		return gmod.Continue
	}, gmod.DefaultTraversalOptions())

	require.True(t, complete)
	require.Equal(t, 11, len(visited))
	require.Equal(t, "VE", visited[0])

	var stoppedAt []string
	complete = gmod.Traverse(g.Root, &stoppedAt, func(state *[]string, _ []*gmod.Node, node *gmod.Node) gmod.TraversalResult {
		*state = append(*state, node.Code)
		if node.Code == "411" {
			return gmod.Stop
		}

		return gmod.Continue
	}, gmod.DefaultTraversalOptions())

	require.False(t, complete)
	require.Equal(t, "411", stoppedAt[len(stoppedAt)-1])
}

func TestPathExistsBetween(t *testing.T) {
	g, err := gmod.New(buildTestDto(), nil)
	require.NoError(t, err)

	ve, _ := g.Node("VE")
	i101, _ := g.Node("I101")

	ok, remaining := gmod.PathExistsBetween([]*gmod.Node{ve}, i101)
	require.True(t, ok)
	require.NotEmpty(t, remaining)

	ghost := &gmod.Node{Code: "GHOST"}
	ok, _ = gmod.PathExistsBetween([]*gmod.Node{ve}, ghost)
	require.False(t, ok)
}

func TestClassificationPredicates(t *testing.T) {
	g, err := gmod.New(buildTestDto(), nil)
	require.NoError(t, err)

	n411i, _ := g.Node("411i")
	require.True(t, n411i.IsFunctionComposition())

	n101, _ := g.Node("C101")
	require.True(t, n101.IsLeafNode())

	ve, _ := g.Node("VE")
	require.True(t, ve.IsAsset())
	require.False(t, ve.IsFunctionNode())
}
