package beamana

import (
	"fmt"
	"math"
)

const (
	leadGlassBins = 100
	// Below this |p| the electron momentum is taken between the pion and muon ones.
	leadGlassLightSpeciesMomentum = 440

	DefaultDistanceTOF1ToLeadGlassLowMomentum = 108.0 // cm
	DefaultDistanceTOF1ToLeadGlass            = 387.7 // cm
)

// LeadGlassCalibration pairs the lead glass response to electrons with the
// electron momentum reaching the lead glass.
type LeadGlassCalibration struct {
	RunNumber       int
	Momentum        float64
	RefractiveIndex float64
	BerylliumTarget bool

	Window1          FitResult
	Window1MeanError float64
	Window2          FitResult
	Window2MeanError float64

	ElectronMomentum      float64
	ElectronMomentumError float64
}

// FitLeadGlassCharge fits a Gaussian to the lead glass charge of the given
// events in fixed 100 bins.
func FitLeadGlassCharge(ds *EventDataset, column string) (FitResult, float64, error) {
	charges, err := ds.Column(LeadGlassChannelName, column)
	if err != nil {
		return FitResult{}, 0, err
	}
	h, err := histogramInBins(charges, leadGlassBins)
	if err != nil {
		return FitResult{}, 0, err
	}
	centres, counts := histogramPoints(h)
	fitted, err := FitHistogramCounts(centres, counts, SeedFromCounts(centres, counts))
	if err != nil {
		return FitResult{}, 0, fmt.Errorf("lead glass %s: %w", column, err)
	}
	fitted.Entries = len(charges)
	fitted.BinWidth = h.Binning.Bins[0].XWidth()
	return fitted, fitted.Std / math.Sqrt(float64(len(charges))), nil
}

// ElectronMomentumAtLeadGlass starts from the momentum measured for the heavier
// species and removes the losses in all the material up to the lead glass.
func ElectronMomentumAtLeadGlass(cfg *RunConfig, corrector *EnergyLossCorrector, estimates *RunEstimates) (float64, float64, error) {
	measured := func(s Species) (float64, float64, error) {
		est, ok := estimates.Get(s)
		if !ok || !est.HasMomentum {
			return 0, 0, fmt.Errorf("electron momentum at lead glass needs the %s momentum", s)
		}
		return est.Momentum, est.TotalError, nil
	}

	var p, pErr float64
	switch {
	case math.Abs(cfg.Momentum) < leadGlassLightSpeciesMomentum:
		pion, pionErr, err := measured(Pion)
		if err != nil {
			return 0, 0, err
		}
		muon, muonErr, err := measured(Muon)
		if err != nil {
			return 0, 0, err
		}
		p, pErr = (pion+muon)/2, QuadratureErrorSum(pionErr, muonErr)
	case cfg.Momentum < -leadGlassLightSpeciesMomentum:
		var err error
		if p, pErr, err = measured(Pion); err != nil {
			return 0, 0, err
		}
	default:
		var err error
		if p, pErr, err = measured(Proton); err != nil {
			return 0, 0, err
		}
	}

	path, err := LeadGlassPath(cfg.FlightLength, cfg.DistanceTOF1ToLeadGlass, cfg.RefractiveIndex)
	if err != nil {
		return 0, 0, err
	}
	loss, lossErr, err := corrector.TotalLossAlongPath(Electron, KineticEnergy(p, Electron), path)
	if err != nil {
		return 0, 0, err
	}
	return p - loss, QuadratureErrorSum(lossErr, pErr), nil
}

// CalibrateLeadGlass is only defined for low momentum runs.
func CalibrateLeadGlass(cfg *RunConfig, corrector *EnergyLossCorrector, electrons *EventDataset, estimates *RunEstimates) (*LeadGlassCalibration, error) {
	if !cfg.LowMomentum {
		return nil, fmt.Errorf("run %d: lead glass calibration needs a low momentum run", cfg.RunNumber)
	}
	if electrons == nil || electrons.Rows() == 0 {
		return nil, &InsufficientDataError{Have: 0, Need: 1, What: "electron events"}
	}
	cal := &LeadGlassCalibration{
		RunNumber:       cfg.RunNumber,
		Momentum:        cfg.Momentum,
		RefractiveIndex: cfg.RefractiveIndex,
		BerylliumTarget: cfg.BerylliumTarget,
	}
	var err error
	if cal.Window1, cal.Window1MeanError, err = FitLeadGlassCharge(electrons, ColumnWindowIntPE); err != nil {
		return nil, err
	}
	if cal.Window2, cal.Window2MeanError, err = FitLeadGlassCharge(electrons, ColumnWindow2IntPE); err != nil {
		return nil, err
	}
	if cal.ElectronMomentum, cal.ElectronMomentumError, err = ElectronMomentumAtLeadGlass(cfg, corrector, estimates); err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Run %d: lead glass electron peak %.3f +/- %.3f PE at %.2f +/- %.2f MeV/c",
		cfg.RunNumber, cal.Window1.Mean, cal.Window1MeanError, cal.ElectronMomentum, cal.ElectronMomentumError), "leadGlass")
	return cal, nil
}
