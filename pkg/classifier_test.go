package beamana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classifierChannels = []string{"TOF00", "ACT1L", "ACT1R", "ACT2L", "ACT2R", "ACT3L", "ACT3R", "PbGlass"}

type classifierEvent struct {
	tof       float64
	act1      float64 // per ACT1 channel
	ds        float64 // per downstream ACT channel
	leadGlass float64
}

func classifierDataset(t *testing.T, events []classifierEvent) *EventDataset {
	t.Helper()
	return buildDataset(t, classifierChannels, []string{ColumnTOF, ColumnWindowIntPE}, len(events),
		func(channel, column string, row int) float64 {
			e := events[row]
			if column == ColumnTOF {
				return e.tof
			}
			switch channel {
			case "ACT1L", "ACT1R":
				return e.act1
			case "ACT2L", "ACT2R", "ACT3L", "ACT3R":
				return e.ds
			case "PbGlass":
				return e.leadGlass
			}
			return 0
		})
}

func TestClassifyLowMomentumWithACTBorder(t *testing.T) {
	cfg := testRunConfig(400, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	ds := classifierDataset(t, []classifierEvent{
		{tof: 3.7, act1: 1, ds: 5, leadGlass: 50},    // electron above the line
		{tof: 4.0, act1: 0, ds: 1, leadGlass: 50},    // muon
		{tof: 4.0, act1: 0, ds: 0.25, leadGlass: 50}, // pion
		{tof: 4.0, act1: 0, ds: 1, leadGlass: 200},   // muon with a lead glass signal
		{tof: 9.2, act1: 0, ds: 0, leadGlass: 50},    // proton
		{tof: 17.3, act1: 0, ds: 0, leadGlass: 50},   // deuteron
		{tof: 4.0, act1: 0, ds: 0.05, leadGlass: 50}, // below the ACT lower cut
		{tof: 12.7, act1: 0, ds: 0, leadGlass: 50},   // between proton and deuteron windows
		{tof: 3.8, act1: 8, ds: 1.5, leadGlass: 50},  // electron above the horizontal threshold
	})

	classifier := NewSpeciesClassifier(cfg, kin)
	require.NoError(t, ds.EnsureBranches(classifier.RequiredBranches()...))

	a, err := classifier.Classify(ds)
	require.NoError(t, err)

	assert.Equal(t, SelectionMask{true, false, false, false, false, false, false, false, true}, a.Mask(Electron))
	assert.Equal(t, SelectionMask{false, true, false, false, false, false, false, false, false}, a.Mask(Muon))
	assert.Equal(t, SelectionMask{false, false, true, false, false, false, false, false, false}, a.Mask(Pion))
	assert.Equal(t, SelectionMask{false, false, false, false, true, false, false, false, false}, a.Mask(Proton))
	assert.Equal(t, SelectionMask{false, false, false, false, false, true, false, false, false}, a.Mask(Deuterium))
	assert.Equal(t, 1, a.WeirdMask(Muon).Count())
	assert.Equal(t, 0, a.Overlaps())
	assert.False(t, a.UsesTOFBorder)
	assert.Equal(t, cfg.Cuts.PiMuBorderACT, a.PiMuBorder)
	assert.ElementsMatch(t, AllSpecies, a.ActiveSpecies())
}

func TestClassifyLowMomentumWithTOFBorder(t *testing.T) {
	cfg := testRunConfig(200, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	muonTOF := kin.MomentumToTOF(200, Muon)
	pionTOF := kin.MomentumToTOF(200, Pion)
	ds := classifierDataset(t, []classifierEvent{
		{tof: muonTOF, act1: 0, ds: 1, leadGlass: 50},
		{tof: pionTOF, act1: 0, ds: 1, leadGlass: 50},
	})

	classifier := NewSpeciesClassifier(cfg, kin)
	require.NoError(t, ds.EnsureBranches(classifier.RequiredBranches()...))
	a, err := classifier.Classify(ds)
	require.NoError(t, err)

	assert.True(t, a.UsesTOFBorder)
	assert.Equal(t, SelectionMask{true, false}, a.Mask(Muon))
	assert.Equal(t, SelectionMask{false, true}, a.Mask(Pion))
	assert.False(t, a.IsActive(Proton))
	assert.Equal(t, 0, a.Count(Proton))
}

func TestClassifyHighMomentum(t *testing.T) {
	cfg := testRunConfig(1000, 2.9, false)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	ds := tofDataset(t, []float64{9.7, 13.3, 20})

	classifier := NewSpeciesClassifier(cfg, kin)
	assert.Empty(t, classifier.RequiredBranches())

	a, err := classifier.Classify(ds)
	require.NoError(t, err)
	assert.Equal(t, SelectionMask{true, false, false}, a.Mask(Electron))
	assert.Equal(t, SelectionMask{false, true, false}, a.Mask(Proton))
	assert.Equal(t, []Species{Electron, Proton}, a.ActiveSpecies())
	assert.Equal(t, 0, a.Count(Muon))
}

func TestClassifyNeedsDerivedBranches(t *testing.T) {
	cfg := testRunConfig(400, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	ds := classifierDataset(t, []classifierEvent{{tof: 4}})

	_, err := NewSpeciesClassifier(cfg, kin).Classify(ds)
	var missing *MissingBranchError
	require.ErrorAs(t, err, &missing)
}

// fiveSpeciesEvents draws n events per species around the nominal TOFs of the
// run, with Cherenkov and lead glass charges typical of each species.
func fiveSpeciesEvents(kin *KinematicsModel, p float64, n int) ([]classifierEvent, []Species) {
	widths := map[Species]float64{Electron: 0.1, Muon: 0.15, Pion: 0.15, Proton: 0.3, Deuterium: 0.3}
	var events []classifierEvent
	var labels []Species
	for i, s := range AllSpecies {
		tofs := normalSample(n, kin.MomentumToTOF(p, s), widths[s], uint64(10+i))
		for _, tof := range tofs {
			e := classifierEvent{tof: tof, leadGlass: 50}
			switch s {
			case Electron:
				e.act1, e.ds = 1, 5
			case Muon:
				e.ds = 1
			case Pion:
				e.ds = 0.25
			}
			events = append(events, e)
			labels = append(labels, s)
		}
	}
	return events, labels
}

func labelMask(labels []Species, s Species) SelectionMask {
	m := NoRows(len(labels))
	for i, l := range labels {
		m[i] = l == s
	}
	return m
}

func TestClassifyFiveSpeciesPopulations(t *testing.T) {
	cfg := testRunConfig(400, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	events, labels := fiveSpeciesEvents(kin, cfg.Momentum, 200)
	require.Len(t, events, 1000)
	ds := classifierDataset(t, events)

	classifier := NewSpeciesClassifier(cfg, kin)
	require.NoError(t, ds.EnsureBranches(classifier.RequiredBranches()...))
	a, err := classifier.Classify(ds)
	require.NoError(t, err)
	require.NoError(t, a.ProtonWindowErr)

	for _, s := range AllSpecies {
		intended := labelMask(labels, s)
		assigned := a.Mask(s).And(intended).Count()
		assert.GreaterOrEqual(t, float64(assigned), 0.95*float64(intended.Count()), "%s", s)
		assert.Len(t, a.Mask(s), ds.Rows())
	}
	assert.Equal(t, 0, a.Overlaps())
}

func TestWeirdMaskCompletesCandidates(t *testing.T) {
	cfg := testRunConfig(400, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	events, labels := fiveSpeciesEvents(kin, cfg.Momentum, 50)
	for i := range events {
		if i%4 == 0 {
			events[i].leadGlass = 2 * cfg.Cuts.WeirdElectronLGCut
		}
	}
	ds := classifierDataset(t, events)

	classifier := NewSpeciesClassifier(cfg, kin)
	require.NoError(t, ds.EnsureBranches(classifier.RequiredBranches()...))
	a, err := classifier.Classify(ds)
	require.NoError(t, err)

	for _, s := range []Species{Muon, Pion} {
		candidates := labelMask(labels, s)
		assert.Equal(t, candidates, a.Mask(s).Or(a.WeirdMask(s)), "%s", s)
		assert.Equal(t, 0, a.Mask(s).And(a.WeirdMask(s)).Count(), "%s", s)
		assert.Greater(t, a.WeirdMask(s).Count(), 0, "%s", s)
	}
	for _, s := range []Species{Electron, Proton, Deuterium} {
		assert.Equal(t, 0, a.WeirdMask(s).Count(), "%s", s)
	}
}

func TestClassifyEmptyDataset(t *testing.T) {
	cfg := testRunConfig(400, 1.08, true)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	ds := classifierDataset(t, nil)

	classifier := NewSpeciesClassifier(cfg, kin)
	require.NoError(t, ds.EnsureBranches(classifier.RequiredBranches()...))
	a, err := classifier.Classify(ds)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Rows)
	for _, s := range AllSpecies {
		assert.Empty(t, a.Mask(s), "%s", s)
		assert.Empty(t, a.WeirdMask(s), "%s", s)
	}
}

func TestClassifyReportsProtonWindowMiss(t *testing.T) {
	cfg := testRunConfig(900, 1.08, false)
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)
	a, err := NewSpeciesClassifier(cfg, kin).Classify(tofDataset(t, []float64{3.7, 5.2}))
	require.NoError(t, err)

	var windowErr *SelectionWindowError
	require.ErrorAs(t, a.ProtonWindowErr, &windowErr)
	assert.Equal(t, Proton, windowErr.Species)
	assert.Equal(t, 900.0, windowErr.Momentum)
}
