package beamana

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// buildDataset creates one table per channel with the same columns, filled
// row by row by fill.
func buildDataset(t *testing.T, channels []string, columns []string, rows int,
	fill func(channel, column string, row int) float64) *EventDataset {
	t.Helper()
	tables := make(map[string]*EventTable, len(channels))
	for _, channel := range channels {
		table := NewEventTable(channel)
		for _, column := range columns {
			values := make([]float64, rows)
			for i := range values {
				values[i] = fill(channel, column, i)
			}
			require.NoError(t, table.AddColumn(column, values))
		}
		tables[channel] = table
	}
	ds, err := NewEventDataset(channels, tables)
	require.NoError(t, err)
	return ds
}

// tofDataset holds a single channel with the given TOF values.
func tofDataset(t *testing.T, tofs []float64) *EventDataset {
	t.Helper()
	table := NewEventTable("TOF00")
	require.NoError(t, table.AddColumn(ColumnTOF, tofs))
	ds, err := NewEventDataset([]string{"TOF00"}, map[string]*EventTable{"TOF00": table})
	require.NoError(t, err)
	return ds
}

func normalSample(n int, mu, sigma float64, seed uint64) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: rand.NewSource(seed)}
	values := make([]float64, n)
	for i := range values {
		values[i] = dist.Rand()
	}
	return values
}

func testCuts() SelectionCuts {
	return SelectionCuts{
		ACTLinearA:         -0.5,
		ACTLinearB:         10,
		HorizontalElectron: 5,
		ACTLowerCut:        0.5,
		PiMuBorderACT:      2,
		WeirdElectronLGCut: 100,
	}
}

func testRunConfig(momentum, flightLength float64, lowMomentum bool) *RunConfig {
	return &RunConfig{
		RunNumber:                  1,
		ChannelNames:               DefaultChannelNames,
		Momentum:                   momentum,
		RefractiveIndex:            1.047,
		LowMomentum:                lowMomentum,
		FlightLength:               flightLength,
		FlightLengthError:          DefaultFlightLengthError,
		DistanceTOF1ToLeadGlass:    DefaultDistanceTOF1ToLeadGlassLowMomentum,
		Cuts:                       testCuts(),
		MinEventsToFitTOF:          DefaultMinEventsToFitTOF,
		TOFBinWidth:                0.1,
		Complexity:                 LightComplexity,
		ProbabilityParticleInBunch: 1,
		ResolutionModel:            ReferenceResolutionModel(),
		Throws:                     DefaultThrowSettings(),
	}
}
