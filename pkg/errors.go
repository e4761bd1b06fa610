package beamana

import (
	"errors"
	"fmt"
)

var (
	ErrBranchExists       = errors.New("branch already exists")
	ErrMisalignedRows     = errors.New("channel tables have different number of rows")
	ErrOverlappingSpecies = errors.New("event assigned to more than one species")
	ErrNoElectronOffset   = errors.New("electron TOF offset unavailable")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// DomainError is returned when a TOF is not larger than the time light
// needs to cover the flight length.
type DomainError struct {
	TOF        float64
	MinimumTOF float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("TOF %.4f ns is not above the photon TOF %.4f ns", e.TOF, e.MinimumTOF)
}

// SelectionWindowError is returned when a species TOF window does not contain
// the nominal TOF of that species.
type SelectionWindowError struct {
	Species  Species
	Momentum float64
	Nominal  float64
	Lower    float64
	Upper    float64
}

func (e *SelectionWindowError) Error() string {
	return fmt.Sprintf("%s TOF window [%.3f, %.3f] ns at %.0f MeV/c misses the nominal TOF %.3f ns",
		e.Species, e.Lower, e.Upper, e.Momentum, e.Nominal)
}

// TableLookupError is returned when a kinetic energy is outside a stopping power table.
type TableLookupError struct {
	Table            string
	KineticEnergyGeV float64
	MinGeV           float64
	MaxGeV           float64
}

func (e *TableLookupError) Error() string {
	return fmt.Sprintf("kinetic energy %g GeV outside table %s range [%g, %g] GeV",
		e.KineticEnergyGeV, e.Table, e.MinGeV, e.MaxGeV)
}

type MissingBranchError struct {
	Channel string
	Branch  string
}

func (e *MissingBranchError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("branch %q not present in dataset", e.Branch)
	}
	return fmt.Sprintf("branch %q not present for channel %q", e.Branch, e.Channel)
}

type FitConvergenceError struct {
	Reason string
	Err    error
}

func (e *FitConvergenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gaussian fit did not converge: %s", e.Reason)
	}
	return fmt.Sprintf("gaussian fit did not converge: %s: %v", e.Reason, e.Err)
}

func (e *FitConvergenceError) Unwrap() error { return e.Err }

type InsufficientDataError struct {
	Have int
	Need int
	What string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d %s, need at least %d", e.Have, e.What, e.Need)
}

type WrongSpeciesNameError struct {
	Name string
}

func (e *WrongSpeciesNameError) Error() string {
	return fmt.Sprintf("unknown particle species %q", e.Name)
}

// SpeciesError attaches the species name to a failure in its estimation chain.
type SpeciesError struct {
	Species Species
	Err     error
}

func (e *SpeciesError) Error() string {
	return fmt.Sprintf("%s: %v", e.Species, e.Err)
}

func (e *SpeciesError) Unwrap() error { return e.Err }
