package beamana

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunSettings are the per-run entries of the configuration file. Momentum
// and refractive index fall back to the run conditions when not given.
type RunSettings struct {
	RunNumber               int           `json:"run_number"`
	FileIn                  string        `json:"file_in"`
	Momentum                *float64      `json:"run_momentum,omitempty"`
	RefractiveIndex         *float64      `json:"run_refractive_index,omitempty"`
	LowMomentum             bool          `json:"is_low_momentum"`
	BerylliumTarget         bool          `json:"is_beryllium_target"`
	DistanceTOF1ToTOF0      float64       `json:"distance_tof1_to_tof0"`
	DistanceTOF1ToTOF0Error *float64      `json:"distance_tof1_to_tof0_error,omitempty"`
	DistanceTOF1ToLeadGlass *float64      `json:"distance_tof1_to_lg,omitempty"`
	NCoincidence            *int          `json:"n_coincidence,omitempty"`
	TSWindow2ChargeCut      *float64      `json:"ts_window2_total_charge_cut,omitempty"`
	ProbabilityInBunch      *float64      `json:"probability_particle_in_bunch,omitempty"`
	Cuts                    SelectionCuts `json:"cuts"`
}

type Configuration struct {
	Verbosity         int           `json:"verbosity"`
	FileOut           string        `json:"file_out"`
	FileOut2          string        `json:"file_out2"`
	FileOutLeadGlass  string        `json:"file_out_lead_glass"`
	StoppingPowerDir  string        `json:"stopping_power_dir"`
	ChannelNames      []string      `json:"channel_names"`
	Runs              []RunSettings `json:"runs"`
	NoDB              bool          `json:"no_db"`
	Host              string        `json:"host"`
	User              string        `json:"user"`
	Passwd            string        `json:"pass"`
	DBName            string        `json:"dbname"`
	NumWorkers        int           `json:"num_workers"`
	ThrowWorkers      int           `json:"throw_workers"`
	Throws            int           `json:"throws"`
	ThrowBins         int           `json:"throw_bins"`
	Seed              uint64        `json:"seed"`
	Complexity        Complexity    `json:"complexity"`
	TOFBinWidth       float64       `json:"tof_bin_width"`
	MinEventsToFitTOF int           `json:"min_events_to_fit_tof"`
	WriteData         bool          `json:"write_data"`
	LeadGlass         bool          `json:"lead_glass_calibration"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

// DefaultChannelNames is the channel order of the 2023 beam test files.
var DefaultChannelNames = []string{
	"ACT0L", "ACT0R", "ACT1L", "ACT1R", "ACT2L", "ACT2R", "ACT3L", "ACT3R",
	"TOF00", "TOF01", "TOF02", "TOF03", "TOF10", "TOF11", "TOF12", "TOF13",
	"Hole0", "Hole1", "PbGlass",
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.Verbosity = 0
	config.ChannelNames = DefaultChannelNames
	config.NoDB = true
	config.Host = "localhost"
	config.User = "wctereader"
	config.Passwd = "readonly"
	config.DBName = "WCTEBeamTest"
	config.NumWorkers = 1
	config.ThrowWorkers = 1
	config.Throws = DefaultThrows
	config.ThrowBins = DefaultThrowBins
	config.Seed = 1
	config.Complexity = FullComplexity
	config.TOFBinWidth = 0.1
	config.MinEventsToFitTOF = DefaultMinEventsToFitTOF
	config.WriteData = false
	config.LeadGlass = false

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &ErrOpenFile{Filename: filename, Err: err}
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("parsing %s: %w", filename, err)
	}
	config.Complexity = Complexity(strings.ToLower(string(config.Complexity)))
	return config, nil
}

// InputFile resolves the input file of a run, relative paths being taken
// from the directory of the configuration file.
func (r RunSettings) InputFile(configDir string) string {
	if r.FileIn == "" || filepath.IsAbs(r.FileIn) {
		return r.FileIn
	}
	return filepath.Join(configDir, r.FileIn)
}

// BuildRunConfig merges the global configuration, the run entry and the run
// conditions into the immutable description of one run.
func BuildRunConfig(config Configuration, run RunSettings, conditions RunConditionsSource) (*RunConfig, error) {
	cfg := &RunConfig{
		RunNumber:                  run.RunNumber,
		ChannelNames:               append([]string(nil), config.ChannelNames...),
		LowMomentum:                run.LowMomentum,
		BerylliumTarget:            run.BerylliumTarget,
		FlightLength:               run.DistanceTOF1ToTOF0,
		FlightLengthError:          DefaultFlightLengthError,
		Cuts:                       run.Cuts,
		NCoincidence:               run.NCoincidence,
		TSWindow2ChargeCut:         run.TSWindow2ChargeCut,
		MinEventsToFitTOF:          config.MinEventsToFitTOF,
		TOFBinWidth:                config.TOFBinWidth,
		Complexity:                 config.Complexity,
		ProbabilityParticleInBunch: 1,
		ResolutionModel:            ReferenceResolutionModel(),
		Throws: ThrowSettings{
			Throws:  config.Throws,
			Bins:    config.ThrowBins,
			Workers: config.ThrowWorkers,
			Seed:    config.Seed,
		},
	}
	if run.DistanceTOF1ToTOF0Error != nil {
		cfg.FlightLengthError = *run.DistanceTOF1ToTOF0Error
	}
	if run.ProbabilityInBunch != nil {
		cfg.ProbabilityParticleInBunch = *run.ProbabilityInBunch
	}

	if run.Momentum == nil || run.RefractiveIndex == nil {
		if conditions == nil {
			return nil, fmt.Errorf("run %d: momentum and refractive index not configured and no run conditions available", run.RunNumber)
		}
		cond, err := conditions.RunConditions(run.RunNumber)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run.RunNumber, err)
		}
		cfg.Momentum = cond.Momentum
		cfg.RefractiveIndex = cond.RefractiveIndex
	}
	if run.Momentum != nil {
		cfg.Momentum = *run.Momentum
	}
	if run.RefractiveIndex != nil {
		cfg.RefractiveIndex = *run.RefractiveIndex
	}

	switch {
	case run.DistanceTOF1ToLeadGlass != nil:
		cfg.DistanceTOF1ToLeadGlass = *run.DistanceTOF1ToLeadGlass
	case run.LowMomentum:
		cfg.DistanceTOF1ToLeadGlass = DefaultDistanceTOF1ToLeadGlassLowMomentum
	default:
		cfg.DistanceTOF1ToLeadGlass = DefaultDistanceTOF1ToLeadGlass
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the global settings shared by all runs.
func (c Configuration) Validate() error {
	var errs []error
	if len(c.Runs) == 0 {
		errs = append(errs, errors.New("no runs configured"))
	}
	if c.FileOut == "" {
		errs = append(errs, errors.New("file_out is empty"))
	}
	if c.NumWorkers < 1 {
		errs = append(errs, fmt.Errorf("num_workers must be at least 1, got %d", c.NumWorkers))
	}
	seen := make(map[int]bool, len(c.Runs))
	for _, r := range c.Runs {
		if seen[r.RunNumber] {
			errs = append(errs, fmt.Errorf("run %d configured twice", r.RunNumber))
		}
		seen[r.RunNumber] = true
		if r.FileIn == "" {
			errs = append(errs, fmt.Errorf("run %d: file_in is empty", r.RunNumber))
		}
	}
	return errors.Join(errs...)
}
