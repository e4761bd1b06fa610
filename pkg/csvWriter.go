package beamana

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CSVWriter appends rows to a CSV file, writing the header only when the file
// is new or empty.
type CSVWriter struct {
	Filename string
	file     *os.File
	writer   *csv.Writer
	columns  int
}

func NewCSVWriter(filename string, header []string) (*CSVWriter, error) {
	writeHeader := true
	if info, err := os.Stat(filename); err == nil && info.Size() > 0 {
		existing, err := readCSVHeader(filename)
		if err != nil {
			return nil, err
		}
		if strings.Join(existing, ",") != strings.Join(header, ",") {
			return nil, fmt.Errorf("%s: existing header does not match, has %d columns, want %d", filename, len(existing), len(header))
		}
		writeHeader = false
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	w := &CSVWriter{Filename: filename, file: file, writer: csv.NewWriter(file), columns: len(header)}
	if writeHeader {
		if err := w.writer.Write(header); err != nil {
			return nil, errors.Join(err, file.Close())
		}
	}
	return w, nil
}

func readCSVHeader(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	header, err := csv.NewReader(bufio.NewReader(file)).Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", filename, err)
	}
	return header, nil
}

func (w *CSVWriter) Write(values []string) error {
	if len(values) != w.columns {
		return fmt.Errorf("%s: row has %d values, header has %d", w.Filename, len(values), w.columns)
	}
	if err := w.writer.Write(values); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *CSVWriter) Close() error {
	var errs []error
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		errs = append(errs, fmt.Errorf("error flushing %s: %w", w.Filename, err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing %s: %w", w.Filename, err))
	}
	return errors.Join(errs...)
}

// NewSummaryCSVWriter opens the run summary table.
func NewSummaryCSVWriter(filename string) (*CSVWriter, error) {
	return NewCSVWriter(filename, SummaryColumns())
}

// LeadGlassColumns is the column order of the lead glass calibration table.
func LeadGlassColumns() []string {
	columns := []string{
		"runNumber", "runMomentum", "runRefractiveIndex", "isBerylliumTarget",
		"matchedHit0_WindowIntPE_mean", "matchedHit0_WindowIntPE_std", "matchedHit0_WindowIntPE_errmean",
		"matchedHit0_Window2IntPE_mean", "matchedHit0_Window2IntPE_std", "matchedHit0_Window2IntPE_errmean",
		"electronMomentumAtLG", "electronMomentumErrorAtLG",
	}
	for _, s := range momentumSpecies {
		columns = append(columns, s.String()+"MomentumMean", s.String()+"MomentumError")
	}
	return columns
}

// LeadGlassValues renders a calibration row; species without a momentum are NA.
func LeadGlassValues(cal *LeadGlassCalibration, estimates *RunEstimates) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	values := []string{
		strconv.Itoa(cal.RunNumber),
		strconv.FormatFloat(cal.Momentum, 'f', -1, 64),
		strconv.FormatFloat(cal.RefractiveIndex, 'f', -1, 64),
		strconv.FormatBool(cal.BerylliumTarget),
		f(cal.Window1.Mean), f(cal.Window1.Std), f(cal.Window1MeanError),
		f(cal.Window2.Mean), f(cal.Window2.Std), f(cal.Window2MeanError),
		f(cal.ElectronMomentum), f(cal.ElectronMomentumError),
	}
	for _, s := range momentumSpecies {
		est, ok := estimates.Get(s)
		if !ok || !est.HasMomentum {
			values = append(values, NotAvailable, NotAvailable)
			continue
		}
		values = append(values, f(est.Momentum), f(est.TotalError))
	}
	return values
}
