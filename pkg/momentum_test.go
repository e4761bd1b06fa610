package beamana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEstimator(t *testing.T, cfg *RunConfig) *MomentumEstimator {
	t.Helper()
	tables, err := NewBetheBlochTables()
	require.NoError(t, err)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	corrector := NewEnergyLossCorrector(tables, cfg.ChargeSign(), MomentumLossFractionalError)
	return NewMomentumEstimator(cfg, kin, corrector, nil)
}

func TestEstimateProtonMomentum(t *testing.T) {
	cfg := testRunConfig(500, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	offset := 6.0 - kin.PhotonTOF()
	protonTOF := kin.MomentumToTOF(500, Proton) + offset

	snapshots := map[Species]*EventDataset{
		Electron: tofDataset(t, normalSample(2000, 6.0, 0.25, 1)),
		Proton:   tofDataset(t, normalSample(3000, protonTOF, 0.3, 2)),
	}
	estimates := newTestEstimator(t, cfg).Estimate(snapshots)

	require.NoError(t, estimates.ElectronOffsetErr)
	assert.InDelta(t, offset, estimates.ElectronOffset, 0.02)

	electron, ok := estimates.Get(Electron)
	require.True(t, ok)
	assert.Equal(t, Estimated, electron.State)
	assert.False(t, electron.HasMomentum)

	proton, ok := estimates.Get(Proton)
	require.True(t, ok)
	require.NoError(t, proton.Err)
	assert.Equal(t, Estimated, proton.State)
	assert.True(t, proton.HasMomentum)
	assert.InEpsilon(t, 500, proton.Momentum, 0.05)
	assert.Greater(t, proton.EnergyLoss, 0.0)
	assert.InDelta(t, 0.15*proton.EnergyLoss, proton.EnergyLossError, 1e-9)
	assert.Greater(t, proton.StatError, 0.0)
	assert.Greater(t, proton.TotalError, 0.0)
	assert.InEpsilon(t, 3000, proton.FittedPeakEvents, 0.05)

	// species without a snapshot are not estimated
	_, ok = estimates.Get(Muon)
	assert.False(t, ok)
}

func TestFlightLengthErrorEntersTotalError(t *testing.T) {
	estimate := func(lengthErr float64) *SpeciesEstimate {
		cfg := testRunConfig(500, 1.08, true)
		cfg.FlightLengthError = lengthErr
		kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
		offset := 6.0 - kin.PhotonTOF()
		snapshots := map[Species]*EventDataset{
			Electron: tofDataset(t, normalSample(2000, 6.0, 0.25, 1)),
			Proton:   tofDataset(t, normalSample(3000, kin.MomentumToTOF(500, Proton)+offset, 0.3, 2)),
		}
		proton, ok := newTestEstimator(t, cfg).Estimate(snapshots).Get(Proton)
		require.True(t, ok)
		require.NoError(t, proton.Err)
		return proton
	}

	nominal := estimate(DefaultFlightLengthError)
	larger := estimate(10 * DefaultFlightLengthError)
	assert.InDelta(t, nominal.Momentum, larger.Momentum, 1e-9)
	assert.Greater(t, larger.TotalError, nominal.TotalError)
}

func TestEstimateWithoutElectrons(t *testing.T) {
	cfg := testRunConfig(500, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	snapshots := map[Species]*EventDataset{
		Proton: tofDataset(t, normalSample(3000, kin.MomentumToTOF(500, Proton), 0.3, 2)),
	}
	estimates := newTestEstimator(t, cfg).Estimate(snapshots)

	assert.ErrorIs(t, estimates.ElectronOffsetErr, ErrNoElectronOffset)
	proton, ok := estimates.Get(Proton)
	require.True(t, ok)
	assert.Equal(t, Failed, proton.State)
	assert.False(t, proton.HasMomentum)
	assert.ErrorIs(t, proton.Err, ErrNoElectronOffset)

	var speciesErr *SpeciesError
	require.ErrorAs(t, proton.Err, &speciesErr)
	assert.Equal(t, Proton, speciesErr.Species)
}

func TestEstimateSkipsSmallSamples(t *testing.T) {
	cfg := testRunConfig(500, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	snapshots := map[Species]*EventDataset{
		Electron: tofDataset(t, normalSample(2000, 6.0, 0.25, 1)),
		Proton:   tofDataset(t, normalSample(100, kin.MomentumToTOF(500, Proton), 0.3, 2)),
	}
	estimates := newTestEstimator(t, cfg).Estimate(snapshots)

	proton, ok := estimates.Get(Proton)
	require.True(t, ok)
	assert.Equal(t, Skipped, proton.State)
	assert.Equal(t, 100, proton.Events)
	assert.NoError(t, proton.Err)
}

func TestEstimateHighMomentumIgnoresMinimumEvents(t *testing.T) {
	cfg := testRunConfig(1000, 2.9, false)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	offset := 0.5
	snapshots := map[Species]*EventDataset{
		Electron: tofDataset(t, normalSample(100, kin.PhotonTOF()+offset, 0.3, 5)),
		Proton:   tofDataset(t, normalSample(120, kin.MomentumToTOF(1000, Proton)+offset, 0.3, 6)),
	}
	estimates := newTestEstimator(t, cfg).Estimate(snapshots)

	proton, ok := estimates.Get(Proton)
	require.True(t, ok)
	require.NoError(t, proton.Err)
	assert.Equal(t, Estimated, proton.State)
	assert.InEpsilon(t, 1000, proton.Momentum, 0.15)
}

func TestSystematicTOFErrorFastPath(t *testing.T) {
	cfg := testRunConfig(500, 1.08, true)
	m := newTestEstimator(t, cfg)
	ds := tofDataset(t, []float64{1, 2, 3})

	// light complexity never throws
	tofErr, err := m.systematicTOFError(Proton, ds, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, tofErr)

	// without trigger scintillator channels the fitted width is used
	cfg.Complexity = FullComplexity
	m.systematics = NewSystematicTOFError(ReferenceResolutionModel(), ThrowSettings{Throws: 10})
	tofErr, err = m.systematicTOFError(Proton, ds, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, tofErr)
}

func TestEstimateStateString(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "estimated", Estimated.String())
	assert.Equal(t, "failed", Failed.String())
}
