package beamana

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotonTOF(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	assert.InDelta(t, 3.6025, kin.PhotonTOF(), 1e-4)
}

func TestMomentumTOFRoundTrip(t *testing.T) {
	kin := NewKinematicsModel(2.9, false)
	for _, s := range AllSpecies {
		for _, p := range []float64{150, 400, 1000} {
			tof := kin.MomentumToTOF(p, s)
			assert.Greater(t, tof, kin.PhotonTOF())
			back, err := kin.TOFToMomentum(tof, s)
			require.NoError(t, err)
			assert.InEpsilon(t, p, back, 1e-9, "%s at %v MeV/c", s, p)
		}
	}
	// only the magnitude of the momentum matters
	assert.Equal(t, kin.MomentumToTOF(500, Pion), kin.MomentumToTOF(-500, Pion))
}

func TestMomentumToTOFOrdering(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	for _, s := range AllSpecies {
		previous := math.Inf(1)
		for p := 100.0; p <= 1500; p += 50 {
			tof := kin.MomentumToTOF(p, s)
			assert.Less(t, tof, previous, "%s at %v MeV/c", s, p)
			previous = tof
		}
	}
	for _, p := range []float64{200, 500, 1200} {
		for i := 1; i < len(AllSpecies); i++ {
			lighter, heavier := AllSpecies[i-1], AllSpecies[i]
			assert.Less(t, kin.MomentumToTOF(p, lighter), kin.MomentumToTOF(p, heavier), "%s/%s at %v MeV/c", lighter, heavier, p)
		}
	}
}

func TestTOFBelowPhotonTOF(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	var domainErr *DomainError

	_, err := kin.TOFToMomentum(kin.PhotonTOF(), Proton)
	require.ErrorAs(t, err, &domainErr)

	_, err = kin.MomentumTOFDerivative(1.0, Proton)
	require.ErrorAs(t, err, &domainErr)

	_, err = kin.MomentumFlightLengthDerivative(1.0, Proton)
	require.ErrorAs(t, err, &domainErr)
}

func TestMomentumDerivatives(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	tof := kin.MomentumToTOF(500, Proton)
	h := 1e-5

	up, err := kin.TOFToMomentum(tof+h, Proton)
	require.NoError(t, err)
	down, err := kin.TOFToMomentum(tof-h, Proton)
	require.NoError(t, err)
	numeric := math.Abs(up-down) / (2 * h)

	dpdt, err := kin.MomentumTOFDerivative(tof, Proton)
	require.NoError(t, err)
	assert.InEpsilon(t, numeric, dpdt, 1e-5)

	// p = m tau / sqrt(t^2 - tau^2)
	tau := kin.PhotonTOF()
	p := func(tau float64) float64 { return ProtonMass * tau / math.Sqrt(tof*tof-tau*tau) }
	numeric = (p(tau+h) - p(tau-h)) / (2 * h)
	dpdtau, err := kin.MomentumFlightLengthDerivative(tof, Proton)
	require.NoError(t, err)
	assert.InEpsilon(t, numeric, dpdtau, 1e-5)
}

func TestSelectionBounds(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	p := 400.0

	protonLo, protonHi := kin.ProtonTOFSelectionBounds(p)
	deuteriumLo, deuteriumHi := kin.DeuteriumTOFSelectionBounds(p)
	tofProton := kin.MomentumToTOF(p, Proton)
	tofDeuterium := kin.MomentumToTOF(p, Deuterium)

	assert.Less(t, protonLo, tofProton)
	assert.Greater(t, protonHi, tofProton)
	assert.LessOrEqual(t, protonHi, deuteriumLo)
	assert.Less(t, deuteriumLo, tofDeuterium)
	assert.InDelta(t, tofDeuterium+DeuteriumWindowHalfWidth, deuteriumHi, 1e-12)
	assert.InDelta(t, tofProton-ProtonWindowHalfWidth, protonLo, 1e-12)

	// without the deuterium midpoint the window is symmetric
	high := NewKinematicsModel(1.08, false)
	_, hi := high.ProtonTOFSelectionBounds(p)
	assert.InDelta(t, tofProton+ProtonWindowHalfWidth, hi, 1e-12)
}

func TestProtonWindowBracketsNominalTOF(t *testing.T) {
	tests := []struct {
		name         string
		flightLength float64
		lowMomentum  bool
		maxMomentum  float64
	}{
		// at 1.08 m the pion margin reaches the proton TOF near 840 MeV/c
		{"short low momentum", 1.08, true, 830},
		{"short high momentum", 1.08, false, 830},
		{"long low momentum", 2.9, true, 1200},
		{"long high momentum", 2.9, false, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kin := NewKinematicsModel(tt.flightLength, tt.lowMomentum)
			for p := 200.0; p <= tt.maxMomentum; p += 10 {
				lo, hi := kin.ProtonTOFSelectionBounds(p)
				nominal := kin.MomentumToTOF(p, Proton)
				assert.Less(t, lo, hi, "p = %v", p)
				assert.Less(t, lo, nominal, "p = %v", p)
				assert.Greater(t, hi, nominal, "p = %v", p)
				assert.NoError(t, kin.CheckProtonTOFWindow(p), "p = %v", p)
			}
		})
	}
}

func TestProtonWindowMissesNominalTOF(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	for _, p := range []float64{850, 1000, 1200} {
		err := kin.CheckProtonTOFWindow(p)
		var windowErr *SelectionWindowError
		require.ErrorAs(t, err, &windowErr, "p = %v", p)
		assert.GreaterOrEqual(t, windowErr.Lower, windowErr.Nominal)
		assert.InDelta(t, kin.MomentumToTOF(p, Proton), windowErr.Nominal, 1e-12)
	}
}

func TestPiMuBorderTOF(t *testing.T) {
	kin := NewKinematicsModel(1.08, true)
	border := kin.PiMuBorderTOF(200)
	assert.Greater(t, border, kin.MomentumToTOF(200, Muon))
	assert.Less(t, border, kin.MomentumToTOF(200, Pion))
}

func TestKineticEnergy(t *testing.T) {
	assert.InDelta(t, math.Sqrt(500*500+ProtonMass*ProtonMass)-ProtonMass, KineticEnergy(500, Proton), 1e-9)
	assert.InDelta(t, KineticEnergy(300, Pion), KineticEnergy(-300, Pion), 1e-9)
	assert.InDelta(t, 0, KineticEnergy(0, Muon), 1e-12)
}
