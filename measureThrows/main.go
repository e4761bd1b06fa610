package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	beamana "github.com/wcte/beamana_go/pkg"
	"gonum.org/v1/gonum/stat"
)

var configuration beamana.Configuration

var logger beamana.SlogLogger

func init() {
	logger = beamana.NewSlogLogger(os.Stdout, os.Stderr)
}

// measureThrows times the Monte Carlo TOF systematic of every species of a
// run for several worker counts, checking the estimate does not change.
func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	runNumber := flag.Int("run", 0, "Run to use, the first configured run by default")
	workerList := flag.String("workers", "1,2,4,8", "Comma separated throw worker counts")
	throws := flag.Int("throws", 0, "Number of throws, overrides the configuration")
	profileMode := flag.String("profile", "", "Profile to record: cpu or mem")
	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "":
	default:
		logger.Error(fmt.Sprintf("Unknown profile %q", *profileMode))
		os.Exit(1)
	}

	var err error
	configuration, err = beamana.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *throws > 0 {
		configuration.Throws = *throws
	}
	// the measurement replaces the systematic of the pipeline
	configuration.Complexity = beamana.LightComplexity
	beamana.SetConfiguration(configuration)
	beamana.SetLogger(logger)
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}

	workerCounts, err := parseWorkerCounts(*workerList)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	run, err := findRun(configuration, *runNumber)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	conditions, closeConditions, err := beamana.OpenRunConditions(configuration)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	cfg, err := beamana.BuildRunConfig(configuration, run, conditions)
	closeConditions()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	tables, err := beamana.NewBetheBlochTables()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	ds, err := beamana.LoadEventDataset(run.InputFile(filepath.Dir(*configFilename)), cfg.ChannelNames)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	result, err := beamana.ProcessRun(cfg, ds, tables, false)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	start := time.Now()
	for _, s := range result.Assignment.ActiveSpecies() {
		measureSpecies(cfg, s, result.Snapshots[s], workerCounts)
	}
	duration := time.Since(start)
	fmt.Printf("Total time: %d ms\n", duration.Milliseconds())
}

func measureSpecies(cfg *beamana.RunConfig, s beamana.Species, snapshot *beamana.EventDataset, workerCounts []int) {
	if snapshot == nil || snapshot.Rows() == 0 {
		return
	}
	tof, err := snapshot.ReferenceColumn(beamana.ColumnTOF)
	if err != nil {
		logger.Error(fmt.Sprintf("%s: %v", s, err))
		return
	}
	charges, err := snapshot.ReferenceColumn(beamana.BranchSumTSWindow2)
	if err != nil {
		logger.Error(fmt.Sprintf("%s: %v", s, err))
		return
	}
	mean := stat.Mean(tof, nil)

	var reference float64
	haveReference := false
	for _, workers := range workerCounts {
		settings := cfg.Throws
		settings.Workers = workers
		systematics := beamana.NewSystematicTOFError(cfg.ResolutionModel, settings)

		start := time.Now()
		value, err := systematics.Estimate(charges, mean)
		duration := time.Since(start)
		if err != nil {
			logger.Error(fmt.Sprintf("(%s, %d workers) %v", s, workers, err))
			continue
		}
		if !haveReference {
			reference, haveReference = value, true
		}
		fmt.Printf("(%s, %d events, %d workers) Time: %d ms, TOF error %.5f ns\n",
			s, len(charges), workers, duration.Milliseconds(), value)
		if value != reference {
			logger.Error(fmt.Sprintf("%s: estimate with %d workers differs: %v != %v", s, workers, value, reference))
		}
	}
}
