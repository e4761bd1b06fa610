package beamana

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

type EstimateState int

const (
	Skipped EstimateState = iota
	Estimated
	Failed
)

func (s EstimateState) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Estimated:
		return "estimated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// SpeciesEstimate is the outcome of the TOF fit and momentum reconstruction
// of one species. Momentum fields are only meaningful when HasMomentum is set.
type SpeciesEstimate struct {
	Species Species
	State   EstimateState
	Events  int
	Err     error

	Fit              FitResult
	MeanTOF          float64 // corrected for the electron offset
	StdTOF           float64
	FittedPeakEvents float64

	HasMomentum        bool
	Momentum           float64
	StatError          float64
	TotalError         float64
	EnergyLoss         float64
	EnergyLossError    float64
	SystematicTOFError float64
}

// RunEstimates collects the species estimates of a run.
type RunEstimates struct {
	ElectronOffset    float64
	ElectronOffsetErr error
	bySpecies         map[Species]*SpeciesEstimate
}

func (r *RunEstimates) Get(s Species) (*SpeciesEstimate, bool) {
	e, ok := r.bySpecies[s]
	return e, ok
}

// MomentumEstimator turns species snapshots into momentum estimates.
type MomentumEstimator struct {
	cfg         *RunConfig
	kin         *KinematicsModel
	corrector   *EnergyLossCorrector
	systematics *SystematicTOFError
}

func NewMomentumEstimator(cfg *RunConfig, kin *KinematicsModel, corrector *EnergyLossCorrector, systematics *SystematicTOFError) *MomentumEstimator {
	return &MomentumEstimator{cfg: cfg, kin: kin, corrector: corrector, systematics: systematics}
}

// Estimate processes the active species in order, electrons first since
// their TOF sets the offset applied to every other species.
func (m *MomentumEstimator) Estimate(snapshots map[Species]*EventDataset) *RunEstimates {
	estimates := &RunEstimates{bySpecies: make(map[Species]*SpeciesEstimate)}

	var electronFit *FitResult
	electrons := snapshots[Electron]
	if electrons != nil {
		est := m.estimateElectron(electrons)
		estimates.bySpecies[Electron] = est
		if est.State == Estimated {
			electronFit = &est.Fit
		}
	}
	if electronFit == nil {
		fitted, err := m.fitElectronTOF(electrons)
		if err != nil {
			estimates.ElectronOffsetErr = fmt.Errorf("%w: %w", ErrNoElectronOffset, err)
		} else {
			electronFit = &fitted
		}
	}
	if electronFit != nil {
		estimates.ElectronOffset = electronFit.Mean - m.kin.PhotonTOF()
		logger.Info(fmt.Sprintf("Run %d: electron TOF offset %.3f ns", m.cfg.RunNumber, estimates.ElectronOffset), "momentum")
	}

	for _, s := range m.cfg.ActiveSpecies() {
		if s == Electron {
			continue
		}
		ds, ok := snapshots[s]
		if !ok {
			continue
		}
		est := m.estimateSpecies(s, ds, estimates)
		if est.State == Failed {
			logger.Error(fmt.Sprintf("run %d: %v", m.cfg.RunNumber, est.Err))
		}
		estimates.bySpecies[s] = est
	}
	return estimates
}

func (m *MomentumEstimator) tooFewEvents(n int) bool {
	return m.cfg.LowMomentum && n < m.cfg.MinEventsToFitTOF
}

func (m *MomentumEstimator) fitElectronTOF(ds *EventDataset) (FitResult, error) {
	if ds == nil {
		return FitResult{}, &InsufficientDataError{Have: 0, Need: 1, What: "electron events"}
	}
	tof, err := ds.ReferenceColumn(ColumnTOF)
	if err != nil {
		return FitResult{}, err
	}
	return HistogramAndFit(tof, m.cfg.TOFBinWidth)
}

func (m *MomentumEstimator) estimateElectron(ds *EventDataset) *SpeciesEstimate {
	est := &SpeciesEstimate{Species: Electron, Events: ds.Rows()}
	if m.tooFewEvents(est.Events) {
		est.State = Skipped
		return est
	}
	fitted, err := m.fitElectronTOF(ds)
	if err != nil {
		return failed(est, err)
	}
	est.State = Estimated
	est.Fit = fitted
	est.MeanTOF = fitted.Mean
	est.StdTOF = fitted.Std
	est.FittedPeakEvents = PeakPopulationInWindow(fitted)
	return est
}

func failed(est *SpeciesEstimate, err error) *SpeciesEstimate {
	est.State = Failed
	est.Err = &SpeciesError{Species: est.Species, Err: err}
	est.HasMomentum = false
	return est
}

func (m *MomentumEstimator) estimateSpecies(s Species, ds *EventDataset, run *RunEstimates) *SpeciesEstimate {
	est := &SpeciesEstimate{Species: s, Events: ds.Rows()}
	if m.tooFewEvents(est.Events) {
		est.State = Skipped
		logger.Info(fmt.Sprintf("Run %d: %d %s events, need %d to fit the TOF",
			m.cfg.RunNumber, est.Events, s, m.cfg.MinEventsToFitTOF), "momentum")
		return est
	}

	tof, err := ds.ReferenceColumn(ColumnTOF)
	if err != nil {
		return failed(est, err)
	}
	fitted, err := HistogramAndFit(tof, m.cfg.TOFBinWidth)
	if err != nil {
		return failed(est, err)
	}
	est.Fit = fitted
	est.StdTOF = fitted.Std

	if run.ElectronOffsetErr != nil {
		return failed(est, run.ElectronOffsetErr)
	}
	est.MeanTOF = fitted.Mean - run.ElectronOffset

	momentum, err := m.kin.TOFToMomentum(est.MeanTOF, s)
	if err != nil {
		return failed(est, err)
	}

	// losses are evaluated at the nominal beam momentum
	ke := KineticEnergy(m.cfg.Momentum, s)
	loss, lossErr, err := m.corrector.TotalLossAlongPath(s, ke, TriggerPath(m.cfg.FlightLength))
	if err != nil {
		return failed(est, err)
	}
	est.EnergyLoss, est.EnergyLossError = loss, lossErr
	est.Momentum = momentum + loss

	nPeak := PeakPopulationInWindow(fitted)
	if !(nPeak > 0) {
		return failed(est, &InsufficientDataError{Have: 0, Need: 1, What: "events under the fitted peak"})
	}
	est.FittedPeakEvents = nPeak

	dpdt, err := m.kin.MomentumTOFDerivative(est.MeanTOF, s)
	if err != nil {
		return failed(est, err)
	}
	est.StatError = dpdt * est.StdTOF / math.Sqrt(nPeak)

	tofErr, err := m.systematicTOFError(s, ds, tof)
	if err != nil {
		return failed(est, err)
	}
	est.SystematicTOFError = tofErr

	dpdtau, err := m.kin.MomentumFlightLengthDerivative(est.MeanTOF, s)
	if err != nil {
		return failed(est, err)
	}
	flightTimeErr := m.cfg.FlightLengthError / SpeedOfLight * NanosecondsPerSecond
	est.TotalError = QuadratureErrorSum(
		dpdt*math.Max(tofErr, est.StdTOF),
		dpdtau*flightTimeErr,
		lossErr,
	) / math.Sqrt(nPeak)

	est.State = Estimated
	est.HasMomentum = true
	logger.Info(fmt.Sprintf("Run %d: %s momentum %.2f +/- %.2f (stat) +/- %.2f (total) MeV/c, nominal %.0f MeV/c",
		m.cfg.RunNumber, s, est.Momentum, est.StatError, est.TotalError, m.cfg.Momentum), "momentum")
	return est
}

// systematicTOFError returns the Monte Carlo TOF error when it applies, the
// fitted width otherwise.
func (m *MomentumEstimator) systematicTOFError(s Species, ds *EventDataset, tof []float64) (float64, error) {
	fast := !m.cfg.LowMomentum || m.cfg.Complexity != FullComplexity || m.systematics == nil
	if s == Deuterium && m.cfg.Momentum < DeuteriumSystematicsMinMomentum {
		fast = true
	}
	if fast {
		return 0, nil
	}
	if err := ds.EnsureBranch(BranchSumTSWindow2); err != nil {
		var missing *MissingBranchError
		if errors.As(err, &missing) {
			logger.Error(fmt.Sprintf("run %d: %s: no second window charge, using the fitted TOF width: %v", m.cfg.RunNumber, s, err))
			return 0, nil
		}
		return 0, err
	}
	charges, err := ds.ReferenceColumn(BranchSumTSWindow2)
	if err != nil {
		return 0, err
	}
	return m.systematics.Estimate(charges, stat.Mean(tof, nil))
}
