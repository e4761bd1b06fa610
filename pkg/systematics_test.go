package beamana

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCharges(n int) []float64 {
	charges := make([]float64, n)
	for i := range charges {
		charges[i] = 20 + 80*float64(i)/float64(n)
	}
	return charges
}

func TestResolutionModelSigma(t *testing.T) {
	m := ReferenceResolutionModel()
	assert.InDelta(t, math.Sqrt(14.46/50+0.069), m.Sigma(m.MeanA, m.MeanB, 50), 1e-12)
	assert.True(t, math.IsNaN(m.Sigma(-1, 0, 1)))
}

func TestSystematicTOFErrorReproducible(t *testing.T) {
	charges := testCharges(2000)
	settings := ThrowSettings{Throws: 100, Bins: 20, Workers: 1, Seed: 3}

	single, err := NewSystematicTOFError(ReferenceResolutionModel(), settings).Estimate(charges, 10)
	require.NoError(t, err)

	settings.Workers = 4
	parallel, err := NewSystematicTOFError(ReferenceResolutionModel(), settings).Estimate(charges, 10)
	require.NoError(t, err)

	assert.Equal(t, single, parallel)
	// per event resolution ranges from 0.45 to 0.9 ns over these charges
	assert.Greater(t, single, 0.3)
	assert.Less(t, single, 1.2)
}

func TestSystematicTOFErrorIgnoresEmptyCharges(t *testing.T) {
	s := NewSystematicTOFError(ReferenceResolutionModel(), ThrowSettings{Throws: 10})

	_, err := s.Estimate([]float64{0, -1, SentinelFlag}, 10)
	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
}

func TestNewSystematicTOFErrorDefaults(t *testing.T) {
	s := NewSystematicTOFError(ReferenceResolutionModel(), ThrowSettings{})
	assert.Equal(t, DefaultThrows, s.settings.Throws)
	assert.Equal(t, DefaultThrowBins, s.settings.Bins)
	assert.Equal(t, 1, s.settings.Workers)
}

func TestDrawParametersFollowsSeed(t *testing.T) {
	settings := ThrowSettings{Throws: 5, Bins: 10, Workers: 1, Seed: 7}
	a, err := NewSystematicTOFError(ReferenceResolutionModel(), settings).drawParameters()
	require.NoError(t, err)
	b, err := NewSystematicTOFError(ReferenceResolutionModel(), settings).drawParameters()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	settings.Seed = 8
	c, err := NewSystematicTOFError(ReferenceResolutionModel(), settings).drawParameters()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
