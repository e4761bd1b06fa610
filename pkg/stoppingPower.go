package beamana

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	kineticEnergyColumn = "#Kinetic_energy [GeV]"
	stoppingPowerColumn = "Total_st_pw [MeV/m]"
)

// StoppingPowerTable holds total stopping power in MeV/m tabulated against
// kinetic energy in GeV. Energies are strictly increasing.
type StoppingPowerTable struct {
	Name                 string
	KineticEnergyGeV     []float64
	StoppingPowerMeVPerM []float64
}

// ReadStoppingPowerCSV parses a table with the Geant4 column names.
func ReadStoppingPowerCSV(name string, r io.Reader) (*StoppingPowerTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header of table %s: %w", name, err)
	}
	keIdx, spIdx := -1, -1
	for i, column := range header {
		switch strings.TrimSpace(column) {
		case kineticEnergyColumn:
			keIdx = i
		case stoppingPowerColumn:
			spIdx = i
		}
	}
	if keIdx < 0 || spIdx < 0 {
		return nil, fmt.Errorf("table %s: missing %q or %q column", name, kineticEnergyColumn, stoppingPowerColumn)
	}

	table := &StoppingPowerTable{Name: name}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("table %s line %d: %w", name, line, err)
		}
		if len(record) <= keIdx || len(record) <= spIdx {
			return nil, fmt.Errorf("table %s line %d: short record", name, line)
		}
		ke, err := strconv.ParseFloat(strings.TrimSpace(record[keIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("table %s line %d: %w", name, line, err)
		}
		sp, err := strconv.ParseFloat(strings.TrimSpace(record[spIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("table %s line %d: %w", name, line, err)
		}
		table.KineticEnergyGeV = append(table.KineticEnergyGeV, ke)
		table.StoppingPowerMeVPerM = append(table.StoppingPowerMeVPerM, sp)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (t *StoppingPowerTable) validate() error {
	if len(t.KineticEnergyGeV) < 2 {
		return fmt.Errorf("table %s: need at least two rows, got %d", t.Name, len(t.KineticEnergyGeV))
	}
	for i := 1; i < len(t.KineticEnergyGeV); i++ {
		if !(t.KineticEnergyGeV[i] > t.KineticEnergyGeV[i-1]) {
			return fmt.Errorf("table %s: kinetic energies not strictly increasing at row %d", t.Name, i)
		}
	}
	return nil
}

// Interpolate returns the stopping power in MeV/m at keGeV, linearly
// interpolated between the enclosing rows.
func (t *StoppingPowerTable) Interpolate(keGeV float64) (float64, error) {
	n := len(t.KineticEnergyGeV)
	if n == 0 || !(keGeV >= t.KineticEnergyGeV[0]) || keGeV > t.KineticEnergyGeV[n-1] {
		lookupErr := &TableLookupError{Table: t.Name, KineticEnergyGeV: keGeV}
		if n > 0 {
			lookupErr.MinGeV = t.KineticEnergyGeV[0]
			lookupErr.MaxGeV = t.KineticEnergyGeV[n-1]
		}
		return 0, lookupErr
	}
	// first row strictly above keGeV
	i := sort.SearchFloat64s(t.KineticEnergyGeV, keGeV)
	if i < n && t.KineticEnergyGeV[i] == keGeV {
		return t.StoppingPowerMeVPerM[i], nil
	}
	x0, x1 := t.KineticEnergyGeV[i-1], t.KineticEnergyGeV[i]
	y0, y1 := t.StoppingPowerMeVPerM[i-1], t.StoppingPowerMeVPerM[i]
	return y0 + (y1-y0)/(x1-x0)*(keGeV-x0), nil
}

type tableKey struct {
	particle string
	material Material
}

// StoppingPowerTables is read-only once loaded and can be shared by runs
// processed in parallel.
type StoppingPowerTables struct {
	tables map[tableKey]*StoppingPowerTable
}

func NewStoppingPowerTables() *StoppingPowerTables {
	return &StoppingPowerTables{tables: make(map[tableKey]*StoppingPowerTable)}
}

func (s *StoppingPowerTables) Add(particle string, material Material, table *StoppingPowerTable) {
	s.tables[tableKey{particle: particle, material: material}] = table
}

// Lookup finds the table for a species crossing a material with a beam of the
// given charge sign.
func (s *StoppingPowerTables) Lookup(species Species, chargeSign int, material Material) (*StoppingPowerTable, error) {
	particle := tableParticle(species, chargeSign)
	table, ok := s.tables[tableKey{particle: particle, material: material}]
	if !ok {
		return nil, fmt.Errorf("no stopping power table for %s in %s", particle, material)
	}
	return table, nil
}

func (s *StoppingPowerTables) Len() int {
	return len(s.tables)
}

func stoppingPowerFilename(particle string, material Material) string {
	return fmt.Sprintf("%sStoppingPower%sGeant4.csv", particle, material)
}

var tableParticles = []string{
	"electron", "positron", "muMinus", "muPlus", "piMinus", "piPlus", "proton", "deuteron",
}

// LoadStoppingPowerTables reads every table of the known particles and materials
// found in dir. Missing files are skipped.
func LoadStoppingPowerTables(dir string) (*StoppingPowerTables, error) {
	tables := NewStoppingPowerTables()
	for _, particle := range tableParticles {
		for _, material := range KnownMaterials() {
			filename := filepath.Join(dir, stoppingPowerFilename(particle, material))
			file, err := os.Open(filename)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, &ErrOpenFile{Filename: filename, Err: err}
			}
			table, err := ReadStoppingPowerCSV(filepath.Base(filename), file)
			file.Close()
			if err != nil {
				return nil, err
			}
			tables.Add(particle, material, table)
		}
	}
	if tables.Len() == 0 {
		return nil, fmt.Errorf("no stopping power tables found in %s", dir)
	}
	logger.Info(fmt.Sprintf("Loaded %d stopping power tables from %s", tables.Len(), dir), "energyLoss")
	return tables, nil
}
