package main

import (
	"fmt"

	beamana "github.com/wcte/beamana_go/pkg"
)

func printConfiguration(config beamana.Configuration, logger beamana.Logger) {
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("File out2: %s", config.FileOut2), "config")
	logger.Info(fmt.Sprintf("File out lead glass: %s", config.FileOutLeadGlass), "config")
	logger.Info(fmt.Sprintf("Stopping power dir: %s", config.StoppingPowerDir), "config")
	logger.Info(fmt.Sprintf("Channels: %v", config.ChannelNames), "config")
	logger.Info(fmt.Sprintf("Runs: %d", len(config.Runs)), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Throw workers: %d", config.ThrowWorkers), "config")
	logger.Info(fmt.Sprintf("Throws: %d", config.Throws), "config")
	logger.Info(fmt.Sprintf("Throw bins: %d", config.ThrowBins), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Seed), "config")
	logger.Info(fmt.Sprintf("Complexity: %s", config.Complexity), "config")
	logger.Info(fmt.Sprintf("TOF bin width: %.3f ns", config.TOFBinWidth), "config")
	logger.Info(fmt.Sprintf("Min events to fit TOF: %d", config.MinEventsToFitTOF), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Lead glass calibration: %t", config.LeadGlass), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
