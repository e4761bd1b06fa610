package beamana

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	elementaryCharge     = 1.60218e-19     // C
	vacuumPermittivity   = 8.8541878188e-12 // F/m
	electronMassKg       = 9.10938356e-31
	betheBlochMinKEGeV   = 1e-3
	betheBlochMaxKEGeV   = 20
	betheBlochTableSteps = 400
)

// BetheBloch returns the mean stopping power in MeV/m of a singly charged
// particle of the given kinetic energy (MeV). Non-physical negative values at
// very low velocity are clamped to zero.
func BetheBloch(s Species, keMeV float64, props MaterialProperties) float64 {
	m := s.Mass()
	gamma := 1 + keMeV/m
	beta2 := 1 - 1/(gamma*gamma)
	if beta2 <= 0 {
		return 0
	}
	v2 := beta2 * SpeedOfLight * SpeedOfLight
	e2 := elementaryCharge * elementaryCharge
	prefactor := props.ElectronDensity * e2 * e2 /
		(4 * math.Pi * vacuumPermittivity * vacuumPermittivity * electronMassKg * v2)
	excitation := props.MeanExcitationEV * elementaryCharge
	logTerm := math.Log(2*electronMassKg*v2/excitation) - math.Log(1-beta2) - beta2
	joulesPerMetre := prefactor * logTerm
	if joulesPerMetre < 0 {
		return 0
	}
	return joulesPerMetre / elementaryCharge * 1e-6
}

// NewBetheBlochTable tabulates BetheBloch on a logarithmic kinetic energy grid.
func NewBetheBlochTable(s Species, chargeSign int, material Material) (*StoppingPowerTable, error) {
	props, ok := PropertiesOf(material)
	if !ok {
		return nil, fmt.Errorf("unknown material %s", material)
	}
	energies := make([]float64, betheBlochTableSteps)
	floats.LogSpan(energies, betheBlochMinKEGeV, betheBlochMaxKEGeV)
	table := &StoppingPowerTable{
		Name:                 "BetheBloch/" + stoppingPowerFilename(tableParticle(s, chargeSign), material),
		KineticEnergyGeV:     energies,
		StoppingPowerMeVPerM: make([]float64, len(energies)),
	}
	for i, ke := range energies {
		table.StoppingPowerMeVPerM[i] = BetheBloch(s, ke*1e3, props)
	}
	return table, nil
}

// NewBetheBlochTables builds tables for every species, charge sign and known
// material. It stands in for the Geant4 tables when none are configured.
func NewBetheBlochTables() (*StoppingPowerTables, error) {
	tables := NewStoppingPowerTables()
	for _, s := range AllSpecies {
		for _, sign := range []int{-1, 1} {
			for _, material := range KnownMaterials() {
				table, err := NewBetheBlochTable(s, sign, material)
				if err != nil {
					return nil, err
				}
				tables.Add(tableParticle(s, sign), material, table)
			}
		}
	}
	return tables, nil
}
