package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	beamana "github.com/wcte/beamana_go/pkg"
)

var configuration beamana.Configuration

var (
	logger         beamana.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = beamana.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	numWorkers := flag.Int("workers", 0, "Number of runs processed in parallel, overrides num_workers")
	flag.Parse()

	var err error
	configuration, err = beamana.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *numWorkers > 0 {
		configuration.NumWorkers = *numWorkers
	}
	beamana.SetConfiguration(configuration)
	beamana.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}
	if err := configuration.Validate(); err != nil {
		logger.Error(fmt.Errorf("Invalid configuration: %w", err).Error())
		os.Exit(1)
	}

	conditions, closeConditions, err := beamana.OpenRunConditions(configuration)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer closeConditions()

	tables, err := loadStoppingPowerTables(configuration.StoppingPowerDir)
	if err != nil {
		logger.Error(fmt.Errorf("Error loading stopping power tables: %w", err).Error())
		os.Exit(1)
	}

	start := time.Now()
	configDir := filepath.Dir(*configFilename)
	jobs := buildJobs(configuration, conditions)
	outcomes := beamana.RunWorkers(configuration.NumWorkers, jobs, newRunProcessor(configDir, tables))

	failed, err := writeOutcomes(outcomes)
	if err != nil {
		logger.Error(fmt.Errorf("Error writing results: %w", err).Error())
		os.Exit(1)
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("%d runs processed, %d failed, in %d ms", len(outcomes), failed, duration.Milliseconds()), "main")
	if failed+len(configuration.Runs)-len(jobs) > 0 {
		os.Exit(2)
	}
}

func loadStoppingPowerTables(dir string) (*beamana.StoppingPowerTables, error) {
	if dir == "" {
		if VerbosityLevel > 0 {
			logger.Info("No stopping power directory, using Bethe-Bloch tables", "main")
		}
		return beamana.NewBetheBlochTables()
	}
	return beamana.LoadStoppingPowerTables(dir)
}
