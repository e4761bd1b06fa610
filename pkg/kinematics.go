package beamana

import (
	"math"

	"go-hep.org/x/hep/fmom"
)

// KinematicsModel converts between momentum and time of flight over a fixed
// flight length.
type KinematicsModel struct {
	FlightLength float64 // m
	LowMomentum  bool
}

func NewKinematicsModel(flightLength float64, lowMomentum bool) *KinematicsModel {
	return &KinematicsModel{FlightLength: flightLength, LowMomentum: lowMomentum}
}

// PhotonTOF is the time in ns light needs to cover the flight length.
func (k *KinematicsModel) PhotonTOF() float64 {
	return k.FlightLength / SpeedOfLight * NanosecondsPerSecond
}

// MomentumToTOF returns the TOF in ns of a particle of momentum p (MeV/c).
// Only |p| matters.
func (k *KinematicsModel) MomentumToTOF(p float64, s Species) float64 {
	m := s.Mass()
	return k.PhotonTOF() * math.Sqrt(m*m/(p*p)+1)
}

// TOFToMomentum inverts MomentumToTOF.
func (k *KinematicsModel) TOFToMomentum(tof float64, s Species) (float64, error) {
	ratio := tof / k.PhotonTOF()
	if !(ratio > 1) {
		return 0, &DomainError{TOF: tof, MinimumTOF: k.PhotonTOF()}
	}
	return s.Mass() / math.Sqrt(ratio*ratio-1), nil
}

// MomentumTOFDerivative is |dp/dt| in MeV/c per ns at the given TOF.
func (k *KinematicsModel) MomentumTOFDerivative(tof float64, s Species) (float64, error) {
	tau := k.PhotonTOF()
	d2 := tof*tof - tau*tau
	if !(d2 > 0) {
		return 0, &DomainError{TOF: tof, MinimumTOF: tau}
	}
	return s.Mass() * tau * tof / math.Pow(d2, 1.5), nil
}

// MomentumFlightLengthDerivative is |dp/dtau| where tau is the photon TOF.
func (k *KinematicsModel) MomentumFlightLengthDerivative(tof float64, s Species) (float64, error) {
	tau := k.PhotonTOF()
	d2 := tof*tof - tau*tau
	if !(d2 > 0) {
		return 0, &DomainError{TOF: tof, MinimumTOF: tau}
	}
	return s.Mass() * tof * tof / math.Pow(d2, 1.5), nil
}

// ProtonTOFSelectionBounds returns the [lower, upper] TOF window selecting protons.
func (k *KinematicsModel) ProtonTOFSelectionBounds(p float64) (float64, float64) {
	tofPion := k.MomentumToTOF(p, Pion)
	tofProton := k.MomentumToTOF(p, Proton)
	tofDeuterium := k.MomentumToTOF(p, Deuterium)

	lower := math.Max(tofPion+PionSigmaMargin*TOFResolution, tofProton-ProtonWindowHalfWidth)
	upper := tofProton + ProtonWindowHalfWidth
	if k.LowMomentum {
		midpoint := (tofDeuterium - DeuteriumWindowHalfWidth + tofProton + ProtonWindowHalfWidth) / 2
		upper = math.Min(upper, midpoint)
	}
	return lower, upper
}

// CheckProtonTOFWindow fails when the proton window does not contain the
// nominal proton TOF. At 1.08 m this happens from about 840 MeV/c, where the
// pion margin overtakes the proton TOF.
func (k *KinematicsModel) CheckProtonTOFWindow(p float64) error {
	lower, upper := k.ProtonTOFSelectionBounds(p)
	nominal := k.MomentumToTOF(p, Proton)
	if lower < nominal && nominal < upper {
		return nil
	}
	return &SelectionWindowError{Species: Proton, Momentum: p, Nominal: nominal, Lower: lower, Upper: upper}
}

// DeuteriumTOFSelectionBounds returns the (lower, upper) TOF window selecting deuterons.
func (k *KinematicsModel) DeuteriumTOFSelectionBounds(p float64) (float64, float64) {
	tofProton := k.MomentumToTOF(p, Proton)
	tofDeuterium := k.MomentumToTOF(p, Deuterium)

	midpoint := (tofDeuterium - DeuteriumWindowHalfWidth + tofProton + DeuteriumWindowHalfWidth) / 2
	lower := math.Max(midpoint, tofDeuterium-DeuteriumWindowHalfWidth)
	upper := tofDeuterium + DeuteriumWindowHalfWidth
	return lower, upper
}

// PiMuBorderTOF is halfway between the nominal muon and pion TOF.
func (k *KinematicsModel) PiMuBorderTOF(p float64) float64 {
	return (k.MomentumToTOF(p, Muon) + k.MomentumToTOF(p, Pion)) / 2
}

// KineticEnergy in MeV of a particle of momentum p along the beam axis.
func KineticEnergy(p float64, s Species) float64 {
	m := s.Mass()
	p4 := fmom.NewPxPyPzE(0, 0, p, math.Sqrt(p*p+m*m))
	return p4.E() - m
}
