package localid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
	"github.com/dnv-opensource/vista-sdk-go/pkg/codebook"
	"github.com/dnv-opensource/vista-sdk-go/pkg/dto"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmod"
	"github.com/dnv-opensource/vista-sdk-go/pkg/gmodpath"
	"github.com/dnv-opensource/vista-sdk-go/pkg/localid"
	"github.com/dnv-opensource/vista-sdk-go/pkg/location"
)

func fixture(t *testing.T) (*gmod.Gmod, *location.Locations, *codebook.Codebooks) {
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
			node("C101.31", "ASSET FUNCTION", "LEAF"),
			node("620", "FUNCTION", "GROUP"),
			node("621", "FUNCTION", "GROUP"),
			node("621.21", "ASSET FUNCTION", "LEAF"),
			node("S90", "ASSET FUNCTION", "LEAF"),
		},
		Relations: []dto.GmodRelationDto{
			{"VE", "400a"},
			{"400a", "410"},
			{"410", "411"},
			{"411", "411i"},
			{"411i", "411.1"},
			{"411.1", "CS1"},
			{"CS1", "C101"},
			{"C101", "C101.31"},
			{"VE", "620"},
			{"620", "621"},
			{"621", "621.21"},
			{"621.21", "S90"},
		},
	}

	g, err := gmod.New(d, nil)
	require.NoError(t, err)

	locs, err := location.NewLocations(dto.LocationsDto{
		VisVersion: visversion.V3_4a,
		Items: []dto.LocationItemDto{
			{Code: "P", Name: "Port", Group: "side"},
			{Code: "S", Name: "Starboard", Group: "side"},
		},
	})
	require.NoError(t, err)

	cbs := codebook.NewCodebooks(map[codebook.Kind]map[string][]string{
		codebook.Quantity: {"measures": {"temperature", "mass"}},
		codebook.Content:  {"substance": {"fuel.oil"}},
		codebook.Position: {"qualifier": {"inlet", "outlet"}},
	})

	return g, locs, cbs
}

func TestParseSimpleRoundTrip(t *testing.T) {
	g, locs, cbs := fixture(t)

	const input = "/dnv-v2/vis-3-4a/411.1/C101.31-2/meta/qty-temperature"

	id, errs := localid.Parse(input, g, locs, cbs)
	require.True(t, errs.Empty(), errs)
	require.NotNil(t, id)

	require.Equal(t, "411.1/C101.31-2", id.PrimaryItem().ToString())

	qty, ok := id.Tag(codebook.Quantity)
	require.True(t, ok)
	require.Equal(t, "temperature", qty.Value)
	require.False(t, qty.IsCustom)

	require.Equal(t, input, id.ToString())
}

func TestParseSecondaryAndMultipleTags(t *testing.T) {
	g, locs, cbs := fixture(t)

	const input = "/dnv-v2/vis-3-4a/621.21/S90/sec/411.1/C101/meta/qty-mass/cnt-fuel.oil/pos-inlet"

	id, errs := localid.Parse(input, g, locs, cbs)
	require.True(t, errs.Empty(), errs)
	require.NotNil(t, id)

	require.Equal(t, "621.21/S90", id.PrimaryItem().ToString())
	require.NotNil(t, id.SecondaryItem())
	require.Equal(t, "411.1/C101", id.SecondaryItem().ToString())

	_, ok := id.Tag(codebook.Quantity)
	require.True(t, ok)
	_, ok = id.Tag(codebook.Content)
	require.True(t, ok)
	_, ok = id.Tag(codebook.Position)
	require.True(t, ok)

	require.Equal(t, input, id.ToString())
}

func TestParseCustomTag(t *testing.T) {
	g, locs, cbs := fixture(t)

	const input = "/dnv-v2/vis-3-4a/411.1/C101.31-2/meta/qty~my_custom_measurement"

	id, errs := localid.Parse(input, g, locs, cbs)
	require.True(t, errs.Empty(), errs)

	qty, ok := id.Tag(codebook.Quantity)
	require.True(t, ok)
	require.True(t, qty.IsCustom)
	require.Equal(t, "my_custom_measurement", qty.Value)

	require.Equal(t, input, id.ToString())
}

func TestParseOutOfOrderTagFails(t *testing.T) {
	g, locs, cbs := fixture(t)

	_, errs := localid.Parse("/dnv-v2/vis-3-4a/411.1/C101.31-2/meta/pos-inlet/qty-temperature", g, locs, cbs)
	require.False(t, errs.Empty())
}

func TestParseMissingMetaFails(t *testing.T) {
	g, locs, cbs := fixture(t)

	_, errs := localid.Parse("/dnv-v2/vis-3-4a/411.1/C101.31-2", g, locs, cbs)
	require.False(t, errs.Empty())
}

func TestBuilderRequiresVersionPrimaryAndTag(t *testing.T) {
	_, err := localid.NewBuilder().Build()
	require.ErrorIs(t, err, localid.ErrMissingVersion)

	_, err = localid.NewBuilder().WithVisVersion(visversion.V3_4a).Build()
	require.ErrorIs(t, err, localid.ErrMissingPrimary)

	g, locs, _ := fixture(t)

	primary, errs := gmodpath.Parse("411.1/C101.31", g, locs)
	require.True(t, errs.Empty(), errs)

	_, err = localid.NewBuilder().WithVisVersion(visversion.V3_4a).WithPrimaryItem(primary).Build()
	require.ErrorIs(t, err, localid.ErrNoTags)
}
