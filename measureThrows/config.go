package main

import (
	"fmt"
	"strconv"
	"strings"

	beamana "github.com/wcte/beamana_go/pkg"
)

func printConfiguration(config beamana.Configuration, logger beamana.Logger) {
	logger.Info(fmt.Sprintf("Runs: %d", len(config.Runs)), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Throws: %d", config.Throws), "config")
	logger.Info(fmt.Sprintf("Throw bins: %d", config.ThrowBins), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Seed), "config")
	logger.Info(fmt.Sprintf("TOF bin width: %.3f ns", config.TOFBinWidth), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}

// parseWorkerCounts reads a comma separated list of positive integers.
func parseWorkerCounts(list string) ([]int, error) {
	fields := strings.Split(list, ",")
	counts := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("worker count %q: %w", field, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("worker count must be positive, got %d", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func findRun(config beamana.Configuration, runNumber int) (beamana.RunSettings, error) {
	if runNumber == 0 && len(config.Runs) > 0 {
		return config.Runs[0], nil
	}
	for _, run := range config.Runs {
		if run.RunNumber == runNumber {
			return run, nil
		}
	}
	return beamana.RunSettings{}, fmt.Errorf("run %d not in configuration", runNumber)
}
