package registry

import (
	"testing"

	"traffic-insight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestResolve_EveryAreaByNameAndAlias(t *testing.T) {
	r := New(testLogger())

	for _, area := range r.Areas() {
		match, found := r.Resolve(area.Name)
		require.True(t, found, "name %q should resolve", area.Name)
		assert.Equal(t, area.Name, match.Area.Name)

		for _, alias := range area.Aliases {
			match, found := r.Resolve(alias)
			require.True(t, found, "alias %q should resolve", alias)
			assert.Equal(t, area.Name, match.Area.Name)
		}
	}
}

func TestResolve_UnknownQuery(t *testing.T) {
	r := New(testLogger())

	_, found := r.Resolve("unknown-xyz")
	assert.False(t, found)

	_, found = r.Resolve("Nowhereville")
	assert.False(t, found)
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := New(testLogger())

	_, found := r.Resolve("")
	assert.False(t, found)

	_, found = r.Resolve("  ?!  ")
	assert.False(t, found)
}

func TestResolve_InsideFreeText(t *testing.T) {
	r := New(testLogger())

	match, found := r.Resolve("Why is traffic at Silk Board so bad today?")
	require.True(t, found)
	assert.Equal(t, "Silk Board", match.Area.Name)
	assert.False(t, match.Exact)

	match, found = r.Resolve("how congested is the ORR right now")
	require.True(t, found)
	assert.Equal(t, "Outer Ring Road", match.Area.Name)
}

func TestResolve_ExactVersusPartial(t *testing.T) {
	r := New(testLogger())

	match, found := r.Resolve("Koramangala")
	require.True(t, found)
	assert.True(t, match.Exact)

	match, found = r.Resolve("traffic in koramangala please")
	require.True(t, found)
	assert.False(t, match.Exact)
}

func TestResolve_PunctuationNormalization(t *testing.T) {
	r := New(testLogger())

	for _, query := range []string{"M.G. Road", "mg-road", "MG road", "m_g_road"} {
		match, found := r.Resolve(query)
		require.True(t, found, "query %q should resolve", query)
		assert.Equal(t, "M.G. Road", match.Area.Name)
	}
}

func TestResolve_LongestMatchWins(t *testing.T) {
	areas := []models.Area{
		{Name: "Generic City", Aliases: []string{"city"}},
		{Name: "Electronic City", Aliases: []string{"electronic city", "city"}},
	}
	r := NewWithAreas(areas, testLogger())

	// Both "city" and "electronic city" occur in the query; the longer
	// alias must win regardless of registration order.
	match, found := r.Resolve("how is traffic in electronic city")
	require.True(t, found)
	assert.Equal(t, "Electronic City", match.Area.Name)

	// Equal-length matches fall back to registration order.
	match, found = r.Resolve("city")
	require.True(t, found)
	assert.Equal(t, "Generic City", match.Area.Name)
}

func TestResolve_ShortAliasNeedsWordBoundary(t *testing.T) {
	r := New(testLogger())

	// "ec" is an alias of Electronic City but must not fire inside an
	// unrelated word.
	_, found := r.Resolve("special security checkpoint")
	assert.False(t, found)

	match, found := r.Resolve("how long to reach ec today")
	require.True(t, found)
	assert.Equal(t, "Electronic City", match.Area.Name)
}

func TestLookup_DirectNames(t *testing.T) {
	r := New(testLogger())

	match, found := r.Lookup("silk-board")
	require.True(t, found)
	assert.Equal(t, "Silk Board", match.Area.Name)
	assert.True(t, match.Exact)

	match, found = r.Lookup("Outer_Ring_Road")
	require.True(t, found)
	assert.Equal(t, "Outer Ring Road", match.Area.Name)

	_, found = r.Lookup("atlantis")
	assert.False(t, found)
}

func TestNames_RegistrationOrder(t *testing.T) {
	r := New(testLogger())
	names := r.Names()
	require.NotEmpty(t, names)
	assert.Equal(t, len(r.Areas()), len(names))
	assert.Equal(t, r.Areas()[0].Name, names[0])
}
