package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-assess/internal/model"
	"github.com/sells-group/solar-assess/internal/resolve"
)

const chainsYAML = `chains:
  geocode:
    - name: google
      weight: 0.97
    - name: census
  solar:
    - name: openmeteo
`

func writeChainsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadChainsFile(t *testing.T) {
	cf, err := LoadChainsFile(writeChainsFile(t, chainsYAML))
	require.NoError(t, err)

	require.Len(t, cf.Geocode, 2)
	assert.Equal(t, "google", cf.Geocode[0].Name)
	assert.Equal(t, 0.97, cf.Geocode[0].Weight)
	assert.Equal(t, "census", cf.Geocode[1].Name)
	assert.Zero(t, cf.Geocode[1].Weight)
	require.Len(t, cf.Solar, 1)
	assert.Empty(t, cf.Roof)
}

func TestLoadChainsFile_Missing(t *testing.T) {
	_, err := LoadChainsFile("/nonexistent/chains.yaml")
	assert.Error(t, err)
}

func TestLoadChainsFile_Malformed(t *testing.T) {
	_, err := LoadChainsFile(writeChainsFile(t, "chains: [not: {a map"))
	assert.Error(t, err)
}

func TestOrderProviders_Reorders(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}
	b := &stubProvider[string, string]{name: "b", weight: 0.8, avail: true}
	defaults := []resolve.Provider[string, string]{a, b}

	out := orderProviders(defaults, []ChainSpec{{Name: "b"}, {Name: "a"}})
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Name())
	assert.Equal(t, "a", out[1].Name())
}

func TestOrderProviders_Reweights(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}

	out := orderProviders([]resolve.Provider[string, string]{a}, []ChainSpec{{Name: "a", Weight: 0.4}})
	require.Len(t, out, 1)
	assert.Equal(t, 0.4, out[0].Weight())
	assert.Equal(t, "a", out[0].Name(), "name passes through the weight override")
	assert.True(t, out[0].Available())
}

func TestOrderProviders_DropsProvidersNotListed(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}
	b := &stubProvider[string, string]{name: "b", weight: 0.8, avail: true}

	out := orderProviders([]resolve.Provider[string, string]{a, b}, []ChainSpec{{Name: "b"}})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Name())
}

func TestOrderProviders_UnknownNameSkipped(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}

	out := orderProviders([]resolve.Provider[string, string]{a}, []ChainSpec{{Name: "bogus"}, {Name: "a"}})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Name())
}

func TestOrderProviders_EmptySpecKeepsDefaults(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}
	defaults := []resolve.Provider[string, string]{a}

	assert.Equal(t, defaults, orderProviders(defaults, nil))
}

func TestOrderProviders_AllUnknownKeepsDefaults(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true}
	defaults := []resolve.Provider[string, string]{a}

	assert.Equal(t, defaults, orderProviders(defaults, []ChainSpec{{Name: "x"}, {Name: "y"}}))
}

func TestWeightedProviderDelegates(t *testing.T) {
	a := &stubProvider[string, string]{name: "a", weight: 0.9, avail: true, out: "value"}
	w := weighted[string, string]{Provider: a, weight: 0.3}

	got, err := w.Resolve(context.Background(), "in")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 0.3, w.Weight())
	assert.Equal(t, 1, a.calls)
}

func TestEstimateLocation(t *testing.T) {
	loc := estimateLocation("742 Evergreen Terrace")
	assert.Equal(t, "742 Evergreen Terrace", loc.FormattedAddress)
	assert.False(t, loc.Verified)
	assert.InDelta(t, 39.83, loc.Latitude, 0.01)
}

func TestEstimateSolar_LatitudeShapesProduction(t *testing.T) {
	sunny := estimateSolar(model.Location{Latitude: 30})
	darker := estimateSolar(model.Location{Latitude: 60})

	assert.Greater(t, sunny.AnnualProductionKwh, darker.AnnualProductionKwh)
	assert.Equal(t, 6.0, sunny.SystemCapacityKw)
	assert.InDelta(t, sunny.AnnualProductionKwh, seriesSum(sunny.MonthlySeries), sunny.AnnualProductionKwh*0.01)
}
