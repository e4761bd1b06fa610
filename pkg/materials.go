package beamana

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Material names follow the stopping power table files,
// e.g. protonStoppingPowerPlasticScintillatorGeant4.csv.
type Material string

const (
	PlasticScintillator Material = "PlasticScintillator"
	Air                 Material = "Air"
	Mylar               Material = "Mylar"
)

const (
	TriggerScintillatorThickness = 0.635 // cm
	BeamWindowThickness          = 0.025 // cm
	UpstreamAerogelIndex         = 1.006
)

// Layer is a slab of material crossed by the beam.
type Layer struct {
	Material    Material
	ThicknessCm float64
}

// MaterialProperties feed the Bethe-Bloch formula.
type MaterialProperties struct {
	ElectronDensity  float64 // electrons/m^3
	MeanExcitationEV float64
}

const avogadro = 6.02214076e23

func electronDensity(densityGcm3 float64, zOverA float64) float64 {
	// electrons/cm^3 to electrons/m^3
	return densityGcm3 * avogadro * zOverA * 1e6
}

var materialProperties = map[Material]MaterialProperties{
	PlasticScintillator: {ElectronDensity: 3.33e29, MeanExcitationEV: 64.7},
	Air:                 {ElectronDensity: electronDensity(1.205e-3, 0.49919), MeanExcitationEV: 85.7},
	Mylar:               {ElectronDensity: electronDensity(1.40, 0.52037), MeanExcitationEV: 78.7},
}

// Summed thickness in cm of the two aerogel boxes for each refractive index.
var aerogelThicknesses = map[string]float64{
	"1.006": 16,
	"1.01":  12,
	"1.015": 12,
	"1.02":  12,
	"1.03":  10,
	"1.047": 16,
	"1.06":  10,
	"1.11":  4,
	"1.13":  4,
	"1.15":  4,
}

func aerogelKey(refractiveIndex float64) string {
	return strconv.FormatFloat(refractiveIndex, 'f', -1, 64)
}

// AerogelMaterial returns the material name for the aerogel of a given
// refractive index, e.g. Aerogel1p047.
func AerogelMaterial(refractiveIndex float64) Material {
	return Material("Aerogel" + strings.ReplaceAll(aerogelKey(refractiveIndex), ".", "p"))
}

func AerogelThickness(refractiveIndex float64) (float64, error) {
	thickness, ok := aerogelThicknesses[aerogelKey(refractiveIndex)]
	if !ok {
		return 0, fmt.Errorf("no aerogel with refractive index %v", refractiveIndex)
	}
	return thickness, nil
}

// Silica aerogel density follows n - 1 = 0.21 rho (rho in g/cm^3).
func aerogelProperties(refractiveIndex float64) MaterialProperties {
	density := (refractiveIndex - 1) / 0.21
	return MaterialProperties{
		ElectronDensity:  electronDensity(density, 0.49930),
		MeanExcitationEV: 139.2,
	}
}

// PropertiesOf knows the fixed materials and every aerogel in the thickness table.
func PropertiesOf(m Material) (MaterialProperties, bool) {
	if p, ok := materialProperties[m]; ok {
		return p, true
	}
	for key := range aerogelThicknesses {
		index, _ := strconv.ParseFloat(key, 64)
		if AerogelMaterial(index) == m {
			return aerogelProperties(index), true
		}
	}
	return MaterialProperties{}, false
}

// KnownMaterials lists every material with built-in properties.
func KnownMaterials() []Material {
	materials := []Material{PlasticScintillator, Air, Mylar}
	keys := maps.Keys(aerogelThicknesses)
	slices.Sort(keys)
	for _, key := range keys {
		index, _ := strconv.ParseFloat(key, 64)
		materials = append(materials, AerogelMaterial(index))
	}
	return materials
}
