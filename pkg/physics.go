package beamana

import "strings"

// Physical constants. Momenta and masses are in MeV/c and MeV/c^2, times in ns
// and lengths in m unless stated otherwise.
const (
	SpeedOfLight         = 2.99792458e8 // m/s
	NanosecondsPerSecond = 1e9

	ElectronMass  = 0.511
	MuonMass      = 105.658
	PionMass      = 139.6
	ProtonMass    = 938.3
	DeuteriumMass = 1876.0
)

// Analysis constants.
const (
	TOFResolution            = 0.35 // ns
	ProtonWindowHalfWidth    = 3.0  // ns
	DeuteriumWindowHalfWidth = 5.0  // ns
	PionSigmaMargin          = 5.0
	ProtonSigmaMargin        = 10.0

	// Below this momentum the pion/muon separation uses the TOF instead of
	// the downstream Cherenkov charge.
	PiMuTOFBorderMomentum = 250.0

	// Heavy species are only selected above this run momentum.
	HeavySpeciesMinMomentum = 300.0

	// The Monte Carlo TOF error is not computed for deuterium below this momentum.
	DeuteriumSystematicsMinMomentum = 700.0

	MomentumLossFractionalError = 0.15
	DefaultFlightLengthError    = 0.003 // m
	DefaultMinEventsToFitTOF    = 150

	// Row value used for channels absent from the input file.
	SentinelFlag = -9999.0
)

// Species is the closed set of particle hypotheses.
type Species int

const (
	Electron Species = iota
	Muon
	Pion
	Proton
	Deuterium
)

var AllSpecies = []Species{Electron, Muon, Pion, Proton, Deuterium}

var speciesNames = map[Species]string{
	Electron:  "electron",
	Muon:      "muon",
	Pion:      "pion",
	Proton:    "proton",
	Deuterium: "deuterium",
}

func (s Species) String() string {
	if name, ok := speciesNames[s]; ok {
		return name
	}
	return "unknown"
}

// Title is the capitalised name used in summary column names.
func (s Species) Title() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// Mass in MeV/c^2.
func (s Species) Mass() float64 {
	switch s {
	case Electron:
		return ElectronMass
	case Muon:
		return MuonMass
	case Pion:
		return PionMass
	case Proton:
		return ProtonMass
	case Deuterium:
		return DeuteriumMass
	}
	return 0
}

// ParseSpecies accepts the species names and the common aliases used in run
// configuration files.
func ParseSpecies(name string) (Species, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "electron", "electrons", "e", "positron":
		return Electron, nil
	case "muon", "muons", "mu":
		return Muon, nil
	case "pion", "pions", "pi":
		return Pion, nil
	case "proton", "protons", "p":
		return Proton, nil
	case "deuterium", "deuteron", "deuterons", "d":
		return Deuterium, nil
	}
	return 0, &WrongSpeciesNameError{Name: name}
}

// tableParticle names the stopping power table of a species for the sign of
// the beam charge.
func tableParticle(s Species, chargeSign int) string {
	negative := chargeSign < 0
	switch s {
	case Electron:
		if negative {
			return "electron"
		}
		return "positron"
	case Muon:
		if negative {
			return "muMinus"
		}
		return "muPlus"
	case Pion:
		if negative {
			return "piMinus"
		}
		return "piPlus"
	case Proton:
		return "proton"
	case Deuterium:
		return "deuteron"
	}
	return "unknown"
}
