package beamana

import (
	"fmt"
	"math"
	"sync"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultThrows        = 900
	DefaultThrowBins     = 50
	maxFailedThrowsShare = 0.1
)

// TOFResolutionModel describes the TOF resolution of an event as
// sigma^2 = A/q + B, where q is the summed trigger scintillator charge in the
// second window. The parameters are known with the given covariance.
type TOFResolutionModel struct {
	MeanA      float64 // ns^2 PE
	MeanB      float64 // ns^2
	Covariance [2][2]float64
}

// ReferenceResolutionModel was measured with run 393, which has the widest
// trigger scintillator charge range.
func ReferenceResolutionModel() TOFResolutionModel {
	return TOFResolutionModel{
		MeanA: 14.46,
		MeanB: 0.069,
		Covariance: [2][2]float64{
			{6.15153704, -1.25257584e-02},
			{-1.25257584e-02, 2.69301669e-05},
		},
	}
}

// Sigma is the TOF resolution for an event of charge q.
func (m TOFResolutionModel) Sigma(a, b, q float64) float64 {
	return math.Sqrt(a/q + b)
}

type ThrowSettings struct {
	Throws  int
	Bins    int
	Workers int
	Seed    uint64
}

func DefaultThrowSettings() ThrowSettings {
	return ThrowSettings{Throws: DefaultThrows, Bins: DefaultThrowBins, Workers: 1, Seed: 1}
}

// SystematicTOFError estimates the TOF uncertainty of a species from throws of
// the resolution model parameters.
type SystematicTOFError struct {
	model    TOFResolutionModel
	settings ThrowSettings
}

func NewSystematicTOFError(model TOFResolutionModel, settings ThrowSettings) *SystematicTOFError {
	if settings.Throws <= 0 {
		settings.Throws = DefaultThrows
	}
	if settings.Bins <= 0 {
		settings.Bins = DefaultThrowBins
	}
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	return &SystematicTOFError{model: model, settings: settings}
}

type throwJob struct {
	index int
	a, b  float64
}

type throwResult struct {
	index int
	std   float64
	err   error
}

// Estimate throws (A, B) pairs, simulates one TOF per event around tofMean for
// each pair, fits the simulated TOF distribution and combines the fitted
// widths as sqrt(mean^2 + std^2) of their own Gaussian fit. Events with
// non-positive charge are ignored.
func (s *SystematicTOFError) Estimate(charges []float64, tofMean float64) (float64, error) {
	valid := make([]float64, 0, len(charges))
	for _, q := range charges {
		if q > 0 {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return 0, &InsufficientDataError{Have: 0, Need: 1, What: "events with positive trigger scintillator charge"}
	}

	params, err := s.drawParameters()
	if err != nil {
		return 0, err
	}

	jobs := make(chan throwJob, len(params))
	results := make(chan throwResult, len(params))

	var wg sync.WaitGroup
	for w := 1; w <= s.settings.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.throwWorker(id, valid, tofMean, jobs, results)
		}(w)
	}
	for i, p := range params {
		jobs <- throwJob{index: i, a: p[0], b: p[1]}
	}
	close(jobs)
	wg.Wait()
	close(results)

	stds := make([]float64, len(params))
	ok := make([]bool, len(params))
	failed := 0
	var lastErr error
	for r := range results {
		if r.err != nil {
			failed++
			lastErr = r.err
			continue
		}
		stds[r.index] = r.std
		ok[r.index] = true
	}
	if float64(failed) > maxFailedThrowsShare*float64(len(params)) {
		return 0, &FitConvergenceError{
			Reason: fmt.Sprintf("%d of %d throw fits failed", failed, len(params)),
			Err:    lastErr,
		}
	}

	// keep throw order so the result does not depend on scheduling
	widths := make([]float64, 0, len(params))
	for i, std := range stds {
		if ok[i] {
			widths = append(widths, std)
		}
	}

	h, err := histogramInBins(widths, s.settings.Bins)
	if err != nil {
		return 0, err
	}
	centres, counts := histogramPoints(h)
	mean, std := stat.MeanStdDev(widths, nil)
	seed := SeedFromCounts(centres, counts)
	seed[1], seed[2] = mean, std
	res, err := FitHistogramCounts(centres, counts, seed)
	if err != nil {
		return 0, fmt.Errorf("fitting distribution of throw widths: %w", err)
	}
	return math.Hypot(res.Mean, res.Std), nil
}

func (s *SystematicTOFError) drawParameters() ([][2]float64, error) {
	cov := mat.NewSymDense(2, []float64{
		s.model.Covariance[0][0], s.model.Covariance[0][1],
		s.model.Covariance[1][0], s.model.Covariance[1][1],
	})
	normal, ok := distmv.NewNormal([]float64{s.model.MeanA, s.model.MeanB}, cov, rand.NewSource(s.settings.Seed))
	if !ok {
		return nil, fmt.Errorf("resolution model covariance is not positive definite")
	}
	params := make([][2]float64, s.settings.Throws)
	x := make([]float64, 2)
	for i := range params {
		normal.Rand(x)
		params[i] = [2]float64{x[0], x[1]}
	}
	return params, nil
}

func (s *SystematicTOFError) throwWorker(id int, charges []float64, tofMean float64, jobs <-chan throwJob, results chan<- throwResult) {
	for job := range jobs {
		results <- s.runThrow(id, job, charges, tofMean)
	}
}

func (s *SystematicTOFError) runThrow(id int, job throwJob, charges []float64, tofMean float64) (result throwResult) {
	result.index = job.index
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("throw worker %d recovered from panic on throw %d: %v", id, job.index, r)
		}
	}()

	// each throw has its own stream
	src := rand.NewSource(s.settings.Seed + uint64(job.index) + 1)
	tofs := make([]float64, len(charges))
	var sigmaSum float64
	for i, q := range charges {
		sigma := s.model.Sigma(job.a, job.b, q)
		if math.IsNaN(sigma) {
			result.err = fmt.Errorf("throw %d: negative variance for charge %v", job.index, q)
			return result
		}
		sigmaSum += sigma
		tofs[i] = distuv.Normal{Mu: tofMean, Sigma: sigma, Src: src}.Rand()
	}

	h, err := histogramInBins(tofs, s.settings.Bins)
	if err != nil {
		result.err = err
		return result
	}
	centres, counts := histogramPoints(h)
	seed := [3]float64{float64(len(tofs)), tofMean, sigmaSum / float64(len(tofs))}
	fitted, err := FitHistogramCounts(centres, counts, seed)
	if err != nil {
		result.err = err
		return result
	}
	result.std = fitted.Std
	return result
}

func histogramInBins(values []float64, nBins int) (*hbook.H1D, error) {
	if len(values) == 0 {
		return nil, &InsufficientDataError{Have: 0, Need: 1, What: "entries"}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	width := (hi - lo) / float64(nBins)
	if !(width > 0) {
		return nil, &InsufficientDataError{Have: 1, Need: minNonEmptyBins, What: "distinct values"}
	}
	// widen the last edge so the maximum is not in the overflow
	h := hbook.NewH1D(nBins, lo, hi+width*1e-9)
	for _, v := range values {
		h.Fill(v, 1)
	}
	return h, nil
}
