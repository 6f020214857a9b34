package gmodpath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmodpath"
	"github.com/dnv-opensource/vista-sdk-go/pkg/location"
)

// buildFixture models the same VE..I101 chain used by pkg/gmod's tests
// (spec.md §5 seed scenario), plus a "500a" node that forks off "VE" and
// rejoins at "S91" alongside "400a" — two distinct simple parent chains
// connect "VE" to "S91" — to exercise ambiguous-chain detection
// (TestParseAmbiguousChainFails) without disturbing any of the other
// tests' VE-to-411.1/VE-to-C101.72 chains, which never pass through "500a"
// or "S91".
func buildFixture(t *testing.T) (*gmod.Gmod, *location.Locations) {
	t.Helper()

	node := func(code, category, typ string) dto.GmodNodeDto {
		return dto.GmodNodeDto{Code: code, Category: category, Type: typ, Name: code}
	}

	d := dto.GmodDto{
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
			node("500a", "FUNCTION", "GROUP"),
			node("S91", "ASSET FUNCTION", "LEAF"),
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
			{"VE", "500a"},
			{"500a", "S91"},
			{"400a", "S91"},
		},
	}

	g, err := gmod.New(d, nil)
	require.NoError(t, err)

	locs, err := location.NewLocations(dto.LocationsDto{
		VisVersion: visversion.V3_4a,
		Items: []dto.LocationItemDto{
			{Code: "P", Name: "Port", Group: "side"},
			{Code: "S", Name: "Starboard", Group: "side"},
			{Code: "U", Name: "Upper", Group: "vertical"},
		},
	})
	require.NoError(t, err)

	return g, locs
}

func TestParseShortFormResolvesFullChain(t *testing.T) {
	g, locs := buildFixture(t)

	p, errs := gmodpath.Parse("411.1/C101.72/I101", g, locs)
	require.True(t, errs.Empty(), errs)
	require.NotNil(t, p)

	require.Equal(t, "VE/400a/410/411/411i/411.1/CS1/C101/C101.7/C101.72/I101", p.ToFullPathString())
	require.Equal(t, "I101", p.Node.Code)
	require.Equal(t, "411.1/C101.72/I101", p.ToString())
}

func TestParseUnknownCodeFails(t *testing.T) {
	g, locs := buildFixture(t)

	_, errs := gmodpath.Parse("GHOST", g, locs)
	require.False(t, errs.Empty())
}

func TestParseAmbiguousChainFails(t *testing.T) {
	g, locs := buildFixture(t)

	_, errs := gmodpath.Parse("S91", g, locs)
	require.False(t, errs.Empty())
	require.True(t, errs.HasCategory("AmbiguousChain"))
}

func TestParseWithLocationPropagatesToIndividualizableAncestors(t *testing.T) {
	g, locs := buildFixture(t)

	p, errs := gmodpath.Parse("C101.72-P", g, locs)
	require.True(t, errs.Empty(), errs)

	require.NotNil(t, p.Node.Location)
	require.Equal(t, "P", p.Node.Location.String())

	last := p.Parents[len(p.Parents)-1]
	require.Equal(t, "C101.7", last.Code)
	require.NotNil(t, last.Location)
	require.Equal(t, "P", last.Location.String())
}

func TestParseInvalidLocationFails(t *testing.T) {
	g, locs := buildFixture(t)

	_, errs := gmodpath.Parse("C101.72-ZZ", g, locs)
	require.False(t, errs.Empty())
}

func TestParseFullPath(t *testing.T) {
	g, _ := buildFixture(t)

	p, errs := gmodpath.ParseFullPath("VE/400a/410/411/411i/411.1/CS1/C101/C101.7/C101.72/I101", g)
	require.True(t, errs.Empty(), errs)
	require.Equal(t, "I101", p.Node.Code)
	require.Len(t, p.Parents, 10)
}

func TestParseFullPathRejectsNonParentEdge(t *testing.T) {
	g, _ := buildFixture(t)

	_, errs := gmodpath.ParseFullPath("VE/410", g)
	require.False(t, errs.Empty())
}

func TestIsValid(t *testing.T) {
	g, _ := buildFixture(t)

	ve, _ := g.Node("VE")
	n400a, _ := g.Node("400a")
	n410, _ := g.Node("410")

	require.True(t, gmodpath.IsValid([]*gmod.Node{ve, n400a}, n410, g))
	require.False(t, gmodpath.IsValid([]*gmod.Node{ve, n410}, n400a, g))
}
