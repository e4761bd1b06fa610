package beamana

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// optionalBranches are built when their input columns exist.
var optionalBranches = []string{
	BranchSumTS,
	BranchSumTSWindow2,
	BranchSumACT0,
	BranchSumACT1Window2,
	BranchSumDownstreamACTsWindow2,
}

// RunResult exposes the intermediate products of a run next to its summary.
type RunResult struct {
	Config              *RunConfig
	TotalEvents         int
	TotalSpills         Optional[int]
	BaseSelectionEvents int
	Assignment          *SpeciesAssignment
	Snapshots           map[Species]*EventDataset
	Estimates           *RunEstimates
	Summary             *RunSummaryRecord
	LeadGlass           *LeadGlassCalibration
	LeadGlassErr        error
}

// ProcessRun runs the full analysis of one run. The dataset is filtered in
// place by the base selections. Errors that affect a single species are kept
// in the estimates; only dataset-wide problems are returned.
func ProcessRun(cfg *RunConfig, ds *EventDataset, tables *StoppingPowerTables, calibrateLeadGlass bool) (*RunResult, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	result := &RunResult{
		Config:      cfg,
		TotalEvents: ds.Rows(),
		TotalSpills: totalSpills(ds),
	}
	kin := NewKinematicsModel(cfg.FlightLength, cfg.LowMomentum)

	var err error
	if result.BaseSelectionEvents, err = ApplyBaseSelections(ds, cfg, kin); err != nil {
		return nil, fmt.Errorf("run %d: base selections: %w", cfg.RunNumber, err)
	}

	classifier := NewSpeciesClassifier(cfg, kin)
	if err := ds.EnsureBranches(classifier.RequiredBranches()...); err != nil {
		return nil, fmt.Errorf("run %d: %w", cfg.RunNumber, err)
	}
	for _, name := range optionalBranches {
		if err := ds.EnsureBranch(name); err != nil {
			var missing *MissingBranchError
			if !errors.As(err, &missing) {
				return nil, fmt.Errorf("run %d: %w", cfg.RunNumber, err)
			}
			if configuration.Verbosity > 1 {
				logger.Info(fmt.Sprintf("Run %d: %s not built: %v", cfg.RunNumber, name, err), "pipeline")
			}
		}
	}

	if result.Assignment, err = classifier.Classify(ds); err != nil {
		return nil, fmt.Errorf("run %d: %w", cfg.RunNumber, err)
	}

	result.Snapshots = make(map[Species]*EventDataset)
	for _, s := range result.Assignment.ActiveSpecies() {
		snapshot, err := ds.Snapshot(result.Assignment.Mask(s))
		if err != nil {
			return nil, fmt.Errorf("run %d: %s snapshot: %w", cfg.RunNumber, s, err)
		}
		result.Snapshots[s] = snapshot
	}

	corrector := NewEnergyLossCorrector(tables, cfg.ChargeSign(), MomentumLossFractionalError)
	var systematics *SystematicTOFError
	if cfg.Complexity == FullComplexity {
		systematics = NewSystematicTOFError(cfg.ResolutionModel, cfg.Throws)
	}
	estimator := NewMomentumEstimator(cfg, kin, corrector, systematics)
	result.Estimates = estimator.Estimate(result.Snapshots)

	result.Summary = NewRunSummaryRecord(cfg, result.TotalEvents, result.TotalSpills,
		result.BaseSelectionEvents, result.Assignment, result.Estimates)

	if calibrateLeadGlass && cfg.LowMomentum {
		result.LeadGlass, result.LeadGlassErr = CalibrateLeadGlass(cfg, corrector, result.Snapshots[Electron], result.Estimates)
		if result.LeadGlassErr != nil {
			logger.Error(fmt.Sprintf("run %d: lead glass calibration: %v", cfg.RunNumber, result.LeadGlassErr))
		}
	}

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Run %d processed in %d ms", cfg.RunNumber, time.Since(start).Milliseconds()), "pipeline")
	}
	return result, nil
}

// totalSpills is the largest spill number of the run.
func totalSpills(ds *EventDataset) Optional[int] {
	spills, err := ds.ReferenceColumn(ColumnSpillNumber)
	if err != nil || len(spills) == 0 {
		return Optional[int]{}
	}
	return Some(int(floats.Max(spills)))
}
