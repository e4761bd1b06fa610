package main

import (
	"errors"
	"fmt"
	"strings"

	beamana "github.com/wcte/beamana_go/pkg"
)

// buildJobs turns the configured runs into jobs. Runs whose configuration
// cannot be completed are reported and left out.
func buildJobs(config beamana.Configuration, conditions beamana.RunConditionsSource) []beamana.RunJob {
	jobs := make([]beamana.RunJob, 0, len(config.Runs))
	for _, run := range config.Runs {
		cfg, err := beamana.BuildRunConfig(config, run, conditions)
		if err != nil {
			logger.Error(fmt.Errorf("skipping run %d: %w", run.RunNumber, err).Error())
			continue
		}
		jobs = append(jobs, beamana.RunJob{Settings: run, Config: cfg})
	}
	return jobs
}

func newRunProcessor(configDir string, tables *beamana.StoppingPowerTables) beamana.RunProcessor {
	return func(job beamana.RunJob) (*beamana.RunResult, error) {
		filename := job.Settings.InputFile(configDir)
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Run %d: reading %s", job.Config.RunNumber, filename), "runReader")
		}
		ds, err := beamana.LoadEventDataset(filename, job.Config.ChannelNames)
		if err != nil {
			return nil, err
		}
		return beamana.ProcessRun(job.Config, ds, tables, configuration.LeadGlass)
	}
}

// runOutputFilename substitutes the run number into names holding a %d verb.
func runOutputFilename(pattern string, runNumber int) string {
	if strings.Contains(pattern, "%d") {
		return fmt.Sprintf(pattern, runNumber)
	}
	return pattern
}

// writeOutcomes appends every successful run to the outputs and returns the
// number of failed runs.
func writeOutcomes(outcomes []beamana.RunOutcome) (int, error) {
	summary, err := beamana.NewSummaryCSVWriter(configuration.FileOut)
	if err != nil {
		return 0, err
	}
	var leadGlass *beamana.CSVWriter
	if configuration.LeadGlass && configuration.FileOutLeadGlass != "" {
		if leadGlass, err = beamana.NewCSVWriter(configuration.FileOutLeadGlass, beamana.LeadGlassColumns()); err != nil {
			return 0, errors.Join(err, summary.Close())
		}
	}

	failed := 0
	var errs []error
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			logger.Error(fmt.Errorf("run %d failed: %w", outcome.RunNumber, outcome.Err).Error())
			continue
		}
		result := outcome.Result
		if err := summary.Write(result.Summary.Values()); err != nil {
			errs = append(errs, err)
			break
		}
		if leadGlass != nil && result.LeadGlass != nil {
			if err := leadGlass.Write(beamana.LeadGlassValues(result.LeadGlass, result.Estimates)); err != nil {
				errs = append(errs, err)
				break
			}
		}
		if configuration.WriteData && configuration.FileOut2 != "" {
			if err := writeRunFile(runOutputFilename(configuration.FileOut2, outcome.RunNumber), result); err != nil {
				logger.Error(fmt.Errorf("run %d: %w", outcome.RunNumber, err).Error())
			}
		}
	}

	if err := summary.Close(); err != nil {
		errs = append(errs, err)
	}
	if leadGlass != nil {
		if err := leadGlass.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return failed, errors.Join(errs...)
}

func writeRunFile(filename string, result *beamana.RunResult) error {
	writer, err := beamana.NewWriter(filename)
	if err != nil {
		return err
	}
	err = writer.WriteRunResult(result)
	return errors.Join(err, writer.Close())
}
