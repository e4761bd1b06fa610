package beamana

import (
	"fmt"
	"math"
)

// EnergyLossCorrector estimates the kinetic energy lost by a particle in the
// material between the TOF counters.
type EnergyLossCorrector struct {
	tables          *StoppingPowerTables
	chargeSign      int
	fractionalError float64
}

// NewEnergyLossCorrector selects tables for the charge sign of the beam.
func NewEnergyLossCorrector(tables *StoppingPowerTables, chargeSign int, fractionalError float64) *EnergyLossCorrector {
	return &EnergyLossCorrector{
		tables:          tables,
		chargeSign:      chargeSign,
		fractionalError: fractionalError,
	}
}

// StoppingPower returns the energy lost in MeV, and its error, by a particle
// of kinetic energy keMeV crossing thicknessCm of material.
func (c *EnergyLossCorrector) StoppingPower(s Species, keMeV float64, material Material, thicknessCm float64) (float64, float64, error) {
	table, err := c.tables.Lookup(s, c.chargeSign, material)
	if err != nil {
		return 0, 0, err
	}
	perMetre, err := table.Interpolate(keMeV * 1e-3)
	if err != nil {
		return 0, 0, err
	}
	loss := perMetre * thicknessCm * 1e-2
	return loss, loss * c.fractionalError, nil
}

// TotalLossAlongPath walks the layers in order, lowering the kinetic energy
// after each one. Errors of the layers add linearly.
func (c *EnergyLossCorrector) TotalLossAlongPath(s Species, keMeV float64, path []Layer) (float64, float64, error) {
	losses := make([]float64, 0, len(path))
	errs := make([]float64, 0, len(path))
	ke := keMeV
	for _, layer := range path {
		loss, lossErr, err := c.StoppingPower(s, ke, layer.Material, layer.ThicknessCm)
		if err != nil {
			return 0, 0, fmt.Errorf("%s in %.3f cm of %s: %w", s, layer.ThicknessCm, layer.Material, err)
		}
		logger.Info(fmt.Sprintf("%s with %.2f MeV kinetic energy loses %.3f +/- %.3f MeV in %.3f cm of %s",
			s, ke, loss, lossErr, layer.ThicknessCm, layer.Material), "energyLoss")
		losses = append(losses, loss)
		errs = append(errs, lossErr)
		ke -= loss
	}
	var total float64
	for _, loss := range losses {
		total += loss
	}
	return total, LinearErrorSum(errs), nil
}

// LinearErrorSum adds fully correlated errors.
func LinearErrorSum(errs []float64) float64 {
	var sum float64
	for _, e := range errs {
		sum += e
	}
	return sum
}

// QuadratureErrorSum adds independent errors.
func QuadratureErrorSum(errs ...float64) float64 {
	var sum float64
	for _, e := range errs {
		sum += e * e
	}
	return math.Sqrt(sum)
}

// TriggerPath is the material between the two TOF counters: one trigger
// scintillator, the air gap and the beam window.
func TriggerPath(flightLength float64) []Layer {
	return []Layer{
		{Material: PlasticScintillator, ThicknessCm: TriggerScintillatorThickness},
		{Material: Air, ThicknessCm: math.Abs(flightLength) * 100},
		{Material: Mylar, ThicknessCm: BeamWindowThickness},
	}
}

// LeadGlassPath is the full material budget from the beam window to the lead
// glass: both trigger scintillators, air and the two aerogel detectors.
func LeadGlassPath(flightLength float64, distanceTOF1ToLeadGlassCm float64, downstreamRefractiveIndex float64) ([]Layer, error) {
	upstream, err := AerogelThickness(UpstreamAerogelIndex)
	if err != nil {
		return nil, err
	}
	downstream, err := AerogelThickness(downstreamRefractiveIndex)
	if err != nil {
		return nil, err
	}
	upstreamMaterial := AerogelMaterial(UpstreamAerogelIndex)
	downstreamMaterial := AerogelMaterial(downstreamRefractiveIndex)
	return []Layer{
		{Material: Mylar, ThicknessCm: BeamWindowThickness},
		{Material: PlasticScintillator, ThicknessCm: TriggerScintillatorThickness},
		{Material: Air, ThicknessCm: math.Abs(flightLength) * 100},
		{Material: PlasticScintillator, ThicknessCm: TriggerScintillatorThickness},
		{Material: Air, ThicknessCm: math.Abs(distanceTOF1ToLeadGlassCm) - (upstream + downstream)},
		{Material: upstreamMaterial, ThicknessCm: upstream / 2},
		{Material: upstreamMaterial, ThicknessCm: upstream / 2},
		{Material: downstreamMaterial, ThicknessCm: downstream / 2},
		{Material: downstreamMaterial, ThicknessCm: downstream / 2},
	}, nil
}
