package beamana

import (
	"errors"
	"fmt"
	"math"
)

type Complexity string

const (
	FullComplexity  Complexity = "full"
	LightComplexity Complexity = "light"
)

// SelectionCuts are the Cherenkov and lead glass cuts tuned per run.
type SelectionCuts struct {
	// Electron line on the (sumACT1, sumDownstreamACTs) plane: y = A*x + B.
	ACTLinearA float64 `json:"act_linear_a"`
	ACTLinearB float64 `json:"act_linear_b"`
	// Horizontal threshold replacing the line right of the crossing point.
	HorizontalElectron float64 `json:"horizontal_el"`
	ACTLowerCut        float64 `json:"act_lower_cut"`
	PiMuBorderACT      float64 `json:"pi_mu_border_act"`
	// Defaults to halfway between the nominal muon and pion TOF.
	PiMuBorderTOF      *float64 `json:"pi_mu_border_tof,omitempty"`
	WeirdElectronLGCut float64  `json:"weird_electron_lg_cut"`
}

// RunConfig describes one run. It is built once and only read afterwards.
type RunConfig struct {
	RunNumber       int
	ChannelNames    []string
	Momentum        float64 // MeV/c, signed by the beam charge
	RefractiveIndex float64
	LowMomentum     bool
	BerylliumTarget bool

	FlightLength            float64 // m
	FlightLengthError       float64 // m
	DistanceTOF1ToLeadGlass float64 // cm

	Cuts SelectionCuts

	// Optional base selections, nil when not applied.
	NCoincidence       *int
	TSWindow2ChargeCut *float64

	MinEventsToFitTOF          int
	TOFBinWidth                float64 // ns
	Complexity                 Complexity
	ProbabilityParticleInBunch float64

	ResolutionModel TOFResolutionModel
	Throws          ThrowSettings
}

// ChargeSign is the sign of the beam charge.
func (c *RunConfig) ChargeSign() int {
	if c.Momentum < 0 {
		return -1
	}
	return 1
}

// FlightLengthFractionalError is the relative uncertainty of the TOF0 to
// TOF1 distance.
func (c *RunConfig) FlightLengthFractionalError() float64 {
	return c.FlightLengthError / c.FlightLength
}

// ActiveSpecies lists the species looked for in the run.
func (c *RunConfig) ActiveSpecies() []Species {
	if !c.LowMomentum {
		return []Species{Electron, Proton}
	}
	if c.Momentum > HeavySpeciesMinMomentum {
		return []Species{Electron, Muon, Pion, Proton, Deuterium}
	}
	return []Species{Electron, Muon, Pion}
}

// UsePiMuBorderTOF selects the TOF border for pion/muon separation at low momentum.
func (c *RunConfig) UsePiMuBorderTOF() bool {
	return math.Abs(c.Momentum) < PiMuTOFBorderMomentum
}

// Validate checks the values the analysis cannot run without.
func (c *RunConfig) Validate() error {
	var errs []error
	if len(c.ChannelNames) == 0 {
		errs = append(errs, errors.New("no channel names"))
	}
	if c.Momentum == 0 {
		errs = append(errs, errors.New("run momentum is zero"))
	}
	if !(c.FlightLength > 0) {
		errs = append(errs, fmt.Errorf("flight length must be positive, got %v", c.FlightLength))
	}
	if c.FlightLengthError < 0 {
		errs = append(errs, fmt.Errorf("flight length error must not be negative, got %v", c.FlightLengthError))
	}
	if !(c.TOFBinWidth > 0) {
		errs = append(errs, fmt.Errorf("TOF bin width must be positive, got %v", c.TOFBinWidth))
	}
	if c.LowMomentum && c.Cuts.ACTLinearA == 0 {
		errs = append(errs, errors.New("act_linear_a must be non-zero in low momentum mode"))
	}
	switch c.Complexity {
	case FullComplexity, LightComplexity:
	default:
		errs = append(errs, fmt.Errorf("unknown complexity %q", c.Complexity))
	}
	if len(errs) > 0 {
		return fmt.Errorf("run %d: %w", c.RunNumber, errors.Join(errs...))
	}
	return nil
}
