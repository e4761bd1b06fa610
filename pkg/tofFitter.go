package beamana

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fit"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	minNonEmptyBins   = 5
	peakWindowLow     = 0.0  // ns
	peakWindowHigh    = 50.0 // ns
	peakIntegralNodes = 200
	fitRestarts       = 2
)

// FitResult holds the parameters of a Gaussian A*exp(-0.5*((x-mu)/sigma)^2)
// fitted to a histogram.
type FitResult struct {
	Amplitude    float64
	Mean         float64
	Std          float64
	Covariance   *mat.SymDense // nil when the Jacobian is singular
	BinWidth     float64
	Entries      int
	NonEmptyBins int
}

// MeanError is the fit uncertainty on the mean, NaN without a covariance.
func (f FitResult) MeanError() float64 {
	if f.Covariance == nil {
		return math.NaN()
	}
	return math.Sqrt(f.Covariance.At(1, 1))
}

func (f FitResult) StdError() float64 {
	if f.Covariance == nil {
		return math.NaN()
	}
	return math.Sqrt(f.Covariance.At(2, 2))
}

// Eval returns the fitted Gaussian at x.
func (f FitResult) Eval(x float64) float64 {
	return gaussian(x, []float64{f.Amplitude, f.Mean, f.Std})
}

func gaussian(x float64, ps []float64) float64 {
	z := (x - ps[1]) / ps[2]
	return ps[0] * math.Exp(-0.5*z*z)
}

// Histogram bins values in bins of width binWidth starting at the smallest
// value. One extra bin is added when needed so the largest value is not in
// the overflow.
func Histogram(values []float64, binWidth float64) (*hbook.H1D, error) {
	if len(values) == 0 {
		return nil, &InsufficientDataError{Have: 0, Need: 1, What: "entries"}
	}
	if !(binWidth > 0) {
		return nil, fmt.Errorf("bin width must be positive, got %v", binWidth)
	}
	lo, hi := floats.Min(values), floats.Max(values)
	nBins := int(math.Ceil((hi - lo) / binWidth))
	if nBins < 1 {
		nBins = 1
	}
	if lo+float64(nBins)*binWidth <= hi {
		nBins++
	}
	h := hbook.NewH1D(nBins, lo, lo+float64(nBins)*binWidth)
	for _, v := range values {
		h.Fill(v, 1)
	}
	return h, nil
}

// HistogramAndFit histograms values and fits a Gaussian seeded at the most
// populated bin.
func HistogramAndFit(values []float64, binWidth float64) (FitResult, error) {
	h, err := Histogram(values, binWidth)
	if err != nil {
		return FitResult{}, err
	}
	centres, counts := histogramPoints(h)
	result, err := FitHistogramCounts(centres, counts, SeedFromCounts(centres, counts))
	if err != nil {
		return FitResult{}, err
	}
	result.BinWidth = binWidth
	result.Entries = len(values)
	return result, nil
}

func histogramPoints(h *hbook.H1D) ([]float64, []float64) {
	bins := h.Binning.Bins
	centres := make([]float64, len(bins))
	counts := make([]float64, len(bins))
	for i, b := range bins {
		centres[i] = b.XMid()
		counts[i] = b.SumW()
	}
	return centres, counts
}

// SeedFromCounts is the starting point (max count, centre of max bin, 1 ns).
func SeedFromCounts(centres, counts []float64) [3]float64 {
	if len(counts) == 0 {
		return [3]float64{0, 0, 1}
	}
	imax := floats.MaxIdx(counts)
	return [3]float64{counts[imax], centres[imax], 1}
}

// FitHistogramCounts fits a Gaussian to pre-binned data by least squares.
func FitHistogramCounts(centres, counts []float64, seed [3]float64) (FitResult, error) {
	nonEmpty := 0
	for _, c := range counts {
		if c > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < minNonEmptyBins {
		return FitResult{}, &InsufficientDataError{Have: nonEmpty, Need: minNonEmptyBins, What: "non-empty bins"}
	}

	ps := seed[:]
	for i := 0; i < fitRestarts; i++ {
		res, err := fit.Curve1D(
			fit.Func1D{
				F:  gaussian,
				X:  centres,
				Y:  counts,
				Ps: append([]float64(nil), ps...),
			},
			nil, &optimize.NelderMead{},
		)
		if err != nil {
			return FitResult{}, &FitConvergenceError{Reason: "minimizer failed", Err: err}
		}
		if err := res.Status.Err(); err != nil {
			return FitResult{}, &FitConvergenceError{Reason: res.Status.String(), Err: err}
		}
		ps = res.X
	}

	result := FitResult{
		Amplitude:    ps[0],
		Mean:         ps[1],
		Std:          math.Abs(ps[2]),
		NonEmptyBins: nonEmpty,
	}
	if !isFinite(result.Amplitude) || !isFinite(result.Mean) || !isFinite(result.Std) || result.Std == 0 {
		return FitResult{}, &FitConvergenceError{
			Reason: fmt.Sprintf("non-finite parameters A=%v mu=%v sigma=%v", result.Amplitude, result.Mean, result.Std),
		}
	}
	result.Covariance = fitCovariance(centres, counts, []float64{result.Amplitude, result.Mean, result.Std})
	return result, nil
}

// fitCovariance estimates s^2 (J^T J)^-1 from the residual Jacobian at the minimum.
func fitCovariance(x, y []float64, ps []float64) *mat.SymDense {
	n, k := len(x), len(ps)
	if n <= k {
		return nil
	}
	residuals := func(dst, p []float64) {
		for i := range x {
			dst[i] = gaussian(x[i], p) - y[i]
		}
	}
	jac := mat.NewDense(n, k, nil)
	fd.Jacobian(jac, residuals, ps, &fd.JacobianSettings{Formula: fd.Central})

	r := make([]float64, n)
	residuals(r, ps)
	s2 := floats.Dot(r, r) / float64(n-k)

	var jtj, inv mat.Dense
	jtj.Mul(jac.T(), jac)
	if err := inv.Inverse(&jtj); err != nil {
		return nil
	}
	cov := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cov.SetSym(i, j, s2*(inv.At(i, j)+inv.At(j, i))/2)
		}
	}
	return cov
}

// PeakPopulation is the number of events under the fitted Gaussian between lo
// and hi, in units of entries.
func PeakPopulation(f FitResult, lo, hi float64) float64 {
	if !(f.BinWidth > 0) {
		return 0
	}
	// the Gaussian is negligible beyond 12 sigma
	a := math.Max(lo, f.Mean-12*f.Std)
	b := math.Min(hi, f.Mean+12*f.Std)
	if !(b > a) {
		return 0
	}
	integral := quad.Fixed(f.Eval, a, b, peakIntegralNodes, nil, 0)
	return integral / f.BinWidth
}

// PeakPopulationInWindow integrates over the 0 to 50 ns TOF window.
func PeakPopulationInWindow(f FitResult) float64 {
	return PeakPopulation(f, peakWindowLow, peakWindowHigh)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
