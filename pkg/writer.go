package beamana

import (
	"errors"
	"fmt"
	"math"

	"github.com/jmbenlloch/go-hdf5"
)

type SummaryEntryHDF5 struct {
	column [STRLEN]byte
	value  float64
}

type TOFFitHDF5 struct {
	species      [STRLEN]byte
	state        int32
	events       int32
	amplitude    float64
	mean         float64
	std          float64
	meanError    float64
	stdError     float64
	fittedEvents float64
}

type SpeciesEventHDF5 struct {
	tof          float64
	sumTSwindow2 float64
}

// Writer stores the detailed results of one run: the summary as
// column/value pairs, the TOF fits and the TOF of every selected event.
type Writer struct {
	File          *hdf5.File
	Filename      string
	RunGroup      *hdf5.Group
	SpeciesGroup  *hdf5.Group
	SummaryTable  *hdf5.Dataset
	FitsTable     *hdf5.Dataset
	SpeciesTables map[Species]*hdf5.Dataset
}

func NewWriter(filename string) (*Writer, error) {
	hdf5.SetStringLength(STRLEN)

	writer := &Writer{Filename: filename, SpeciesTables: make(map[Species]*hdf5.Dataset)}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file %s", filename), "hdf5Writer")
	}
	var err error
	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if writer.RunGroup, err = createGroup(writer.File, "Run"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.SpeciesGroup, err = createGroup(writer.File, "Species"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.SummaryTable, err = createTable(writer.RunGroup, "summary", SummaryEntryHDF5{}); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.FitsTable, err = createTable(writer.RunGroup, "tofFits", TOFFitHDF5{}); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	return writer, nil
}

func (w *Writer) WriteSummary(record *RunSummaryRecord) error {
	columns := SummaryColumns()
	values := record.Float64Values()
	entries := make([]SummaryEntryHDF5, len(columns))
	for i, column := range columns {
		entries[i] = SummaryEntryHDF5{column: convertToHdf5String(column), value: values[i]}
	}
	return writeArrayToTable(w.SummaryTable, &entries, 0)
}

func (w *Writer) WriteFits(estimates *RunEstimates) error {
	fits := make([]TOFFitHDF5, 0, len(AllSpecies))
	for _, s := range AllSpecies {
		est, ok := estimates.Get(s)
		if !ok {
			continue
		}
		row := TOFFitHDF5{
			species:      convertToHdf5String(s.String()),
			state:        int32(est.State),
			events:       int32(est.Events),
			amplitude:    math.NaN(),
			mean:         math.NaN(),
			std:          math.NaN(),
			meanError:    math.NaN(),
			stdError:     math.NaN(),
			fittedEvents: math.NaN(),
		}
		if est.Fit.Std > 0 {
			row.amplitude = est.Fit.Amplitude
			row.mean = est.Fit.Mean
			row.std = est.Fit.Std
			row.meanError = est.Fit.MeanError()
			row.stdError = est.Fit.StdError()
			row.fittedEvents = est.FittedPeakEvents
		}
		fits = append(fits, row)
	}
	return writeArrayToTable(w.FitsTable, &fits, 0)
}

// WriteSpecies stores the TOF and second window trigger charge of the events
// of one species.
func (w *Writer) WriteSpecies(s Species, ds *EventDataset) error {
	tof, err := ds.ReferenceColumn(ColumnTOF)
	if err != nil {
		return err
	}
	charge, err := ds.ReferenceColumn(BranchSumTSWindow2)
	if err != nil {
		charge = nil
	}

	table, err := createTable(w.SpeciesGroup, s.String(), SpeciesEventHDF5{})
	if err != nil {
		return err
	}
	w.SpeciesTables[s] = table

	rows := make([]SpeciesEventHDF5, len(tof))
	for i, t := range tof {
		rows[i] = SpeciesEventHDF5{tof: t, sumTSwindow2: math.NaN()}
		if charge != nil {
			rows[i].sumTSwindow2 = charge[i]
		}
	}
	return writeArrayToTable(table, &rows, 0)
}

func (w *Writer) Close() error {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "hdf5Writer")
	}
	var errs []error

	for s, table := range w.SpeciesTables {
		if err := table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s table: %w", s, err))
		}
	}
	if w.SummaryTable != nil {
		if err := w.SummaryTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing summary table: %w", err))
		}
	}
	if w.FitsTable != nil {
		if err := w.FitsTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing fits table: %w", err))
		}
	}
	if w.SpeciesGroup != nil {
		if err := w.SpeciesGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing species group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WriteRunResult writes everything the writer holds for a processed run.
func (w *Writer) WriteRunResult(result *RunResult) error {
	if err := w.WriteSummary(result.Summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := w.WriteFits(result.Estimates); err != nil {
		return fmt.Errorf("writing TOF fits: %w", err)
	}
	for _, s := range result.Assignment.ActiveSpecies() {
		snapshot, ok := result.Snapshots[s]
		if !ok {
			continue
		}
		if err := w.WriteSpecies(s, snapshot); err != nil {
			return fmt.Errorf("writing %s events: %w", s, err)
		}
	}
	return nil
}

// WriteEventDataset stores a dataset in the layout LoadEventDataset reads,
// one group per channel and one dataset per column. Sentinel channels are
// not written.
func WriteEventDataset(filename string, ds *EventDataset) error {
	hdf5Lock.Lock()
	defer hdf5Lock.Unlock()

	f, err := openFile(filename)
	if err != nil {
		return err
	}
	var errs []error
	for _, channel := range ds.Channels() {
		if ds.IsMissing(channel.Name) {
			continue
		}
		if err := writeChannelGroup(f, ds.TableAt(channel.Index)); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}

func writeChannelGroup(f *hdf5.File, table *EventTable) error {
	g, err := createGroup(f, table.Channel)
	if err != nil {
		return err
	}
	defer g.Close()

	for _, name := range table.Columns() {
		values, _ := table.Column(name)
		space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(values))}, nil)
		if err != nil {
			return &ErrCreateTable{TableName: table.Channel + "/" + name, Err: err}
		}
		dset, err := g.CreateDataset(name, hdf5.T_NATIVE_DOUBLE, space)
		if err != nil {
			space.Close()
			return &ErrCreateTable{TableName: table.Channel + "/" + name, Err: err}
		}
		if len(values) > 0 {
			err = dset.Write(&values)
		}
		dset.Close()
		space.Close()
		if err != nil {
			return fmt.Errorf("writing %s/%s: %w", table.Channel, name, err)
		}
	}
	return nil
}
