package beamana

import "fmt"

// NCoincidenceSelection keeps events with exactly n coincident trigger hits.
// Datasets without the nCoincidence column are left untouched.
func NCoincidenceSelection(ds *EventDataset, n int) (SelectionMask, error) {
	values, err := ds.ReferenceColumn(ColumnNCoincidence)
	if err != nil {
		logger.Info(fmt.Sprintf("No %s column, coincidence selection skipped", ColumnNCoincidence), "selection")
		return AllRows(ds.Rows()), nil
	}
	return Compare(values, Equal, float64(n)), nil
}

// TSTotalChargeSelection rejects slow events that deposit more than cut PE in
// the trigger scintillators during the second window. Fast events always pass.
func TSTotalChargeSelection(ds *EventDataset, cut float64, protonLowerTOF float64) (SelectionMask, error) {
	if err := ds.EnsureBranch(BranchSumTSWindow2); err != nil {
		return nil, err
	}
	charge, err := ds.ReferenceColumn(BranchSumTSWindow2)
	if err != nil {
		return nil, err
	}
	tof, err := ds.ReferenceColumn(ColumnTOF)
	if err != nil {
		return nil, err
	}
	lowCharge := Compare(charge, LessEqual, cut)
	isFast := Compare(tof, GreaterEqual, protonLowerTOF)
	return lowCharge.Or(isFast), nil
}

// ApplyBaseSelections applies the configured optional selections in place and
// returns the number of events left.
func ApplyBaseSelections(ds *EventDataset, cfg *RunConfig, kin *KinematicsModel) (int, error) {
	if cfg.NCoincidence != nil {
		mask, err := NCoincidenceSelection(ds, *cfg.NCoincidence)
		if err != nil {
			return 0, err
		}
		if err := ds.Apply(mask); err != nil {
			return 0, err
		}
		logger.Info(fmt.Sprintf("Run %d: %d events with %d coincidences", cfg.RunNumber, ds.Rows(), *cfg.NCoincidence), "selection")
	}
	if cfg.TSWindow2ChargeCut != nil {
		protonLo, _ := kin.ProtonTOFSelectionBounds(cfg.Momentum)
		mask, err := TSTotalChargeSelection(ds, *cfg.TSWindow2ChargeCut, protonLo)
		if err != nil {
			return 0, err
		}
		if err := ds.Apply(mask); err != nil {
			return 0, err
		}
		logger.Info(fmt.Sprintf("Run %d: %d events pass the trigger scintillator charge cut at %.1f PE",
			cfg.RunNumber, ds.Rows(), *cfg.TSWindow2ChargeCut), "selection")
	}
	return ds.Rows(), nil
}
