package beamana

import (
	"fmt"
	"math"
	"strconv"
)

// NotAvailable is written in place of missing values.
const NotAvailable = "NA"

type Number interface {
	~int | ~float64
}

// Optional is a value that may be absent from the summary.
type Optional[T Number] struct {
	Value T
	Valid bool
}

func Some[T Number](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

func (o Optional[T]) String() string {
	if !o.Valid {
		return NotAvailable
	}
	switch v := any(o.Value).(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(o.Value)
}

// SpeciesSummary is the per-species part of a RunSummaryRecord.
type SpeciesSummary struct {
	State              EstimateState
	SelectedEvents     Optional[int]
	MeanTOF            Optional[float64]
	StdTOF             Optional[float64]
	Momentum           Optional[float64]
	MomentumStatError  Optional[float64]
	MomentumTotalError Optional[float64]
	FittedEvents       Optional[float64]
}

// RunSummaryRecord is one output row per run.
type RunSummaryRecord struct {
	RunNumber                  int
	Momentum                   float64
	RefractiveIndex            float64
	TotalSpills                Optional[int]
	ProbabilityParticleInBunch float64
	TotalEvents                int
	BaseSelectionEvents        int
	Species                    map[Species]SpeciesSummary
}

// NewRunSummaryRecord gathers counts and estimates of a processed run.
func NewRunSummaryRecord(cfg *RunConfig, totalEvents int, totalSpills Optional[int], baseSelectionEvents int,
	assignment *SpeciesAssignment, estimates *RunEstimates) *RunSummaryRecord {
	r := &RunSummaryRecord{
		RunNumber:                  cfg.RunNumber,
		Momentum:                   cfg.Momentum,
		RefractiveIndex:            cfg.RefractiveIndex,
		TotalSpills:                totalSpills,
		ProbabilityParticleInBunch: cfg.ProbabilityParticleInBunch,
		TotalEvents:                totalEvents,
		BaseSelectionEvents:        baseSelectionEvents,
		Species:                    make(map[Species]SpeciesSummary, len(AllSpecies)),
	}
	for _, s := range AllSpecies {
		var summary SpeciesSummary
		if assignment != nil && assignment.IsActive(s) {
			summary.SelectedEvents = Some(assignment.Count(s))
		}
		if estimates != nil {
			if est, ok := estimates.Get(s); ok {
				summary.State = est.State
				if est.State == Estimated {
					summary.MeanTOF = Some(est.MeanTOF)
					summary.StdTOF = Some(est.StdTOF)
					summary.FittedEvents = Some(est.FittedPeakEvents)
				}
				if est.HasMomentum {
					summary.Momentum = Some(est.Momentum)
					summary.MomentumStatError = Some(est.StatError)
					summary.MomentumTotalError = Some(est.TotalError)
				}
			}
		}
		r.Species[s] = summary
	}
	return r
}

var momentumSpecies = []Species{Muon, Pion, Proton, Deuterium}

// SummaryColumns is the column order of the summary table.
func SummaryColumns() []string {
	columns := []string{
		"runNumber",
		"runMomentum",
		"runRefractiveIndex",
		"totalNumberSpills",
		"probabilityToHaveParticleInBunch",
		"totalNumberOfEvents",
		"numberOfEventsPassingBaseSelections",
	}
	for _, s := range AllSpecies {
		columns = append(columns, fmt.Sprintf("numberOfEventsPassing%sSelection", s.Title()))
	}
	for _, s := range AllSpecies {
		columns = append(columns, "meanTOF"+s.String())
	}
	for _, s := range AllSpecies {
		columns = append(columns, "stdTOF"+s.String())
	}
	for _, s := range momentumSpecies {
		columns = append(columns, "meanMomentum"+s.Title())
	}
	for _, s := range momentumSpecies {
		columns = append(columns, "meanMomentumStatErr"+s.Title())
	}
	for _, s := range momentumSpecies {
		columns = append(columns, "meanMomentumTotalErr"+s.Title())
	}
	for _, s := range AllSpecies {
		columns = append(columns, "numberOfTOFfitted"+s.Title())
	}
	return columns
}

// Values renders the record in SummaryColumns order.
func (r *RunSummaryRecord) Values() []string {
	values := []string{
		strconv.Itoa(r.RunNumber),
		strconv.FormatFloat(r.Momentum, 'f', -1, 64),
		strconv.FormatFloat(r.RefractiveIndex, 'f', -1, 64),
		r.TotalSpills.String(),
		strconv.FormatFloat(r.ProbabilityParticleInBunch, 'f', -1, 64),
		strconv.Itoa(r.TotalEvents),
		strconv.Itoa(r.BaseSelectionEvents),
	}
	for _, s := range AllSpecies {
		values = append(values, r.Species[s].SelectedEvents.String())
	}
	for _, s := range AllSpecies {
		values = append(values, r.Species[s].MeanTOF.String())
	}
	for _, s := range AllSpecies {
		values = append(values, r.Species[s].StdTOF.String())
	}
	for _, s := range momentumSpecies {
		values = append(values, r.Species[s].Momentum.String())
	}
	for _, s := range momentumSpecies {
		values = append(values, r.Species[s].MomentumStatError.String())
	}
	for _, s := range momentumSpecies {
		values = append(values, r.Species[s].MomentumTotalError.String())
	}
	for _, s := range AllSpecies {
		values = append(values, r.Species[s].FittedEvents.String())
	}
	return values
}

// Float64Values is the numeric form of Values, with missing entries set to NaN.
func (r *RunSummaryRecord) Float64Values() []float64 {
	values := r.Values()
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}
