package beamana

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// SpeciesAssignment holds the per-species selection masks over the rows of
// the dataset that was classified.
type SpeciesAssignment struct {
	Rows   int
	active []Species
	main   map[Species]SelectionMask
	weird  map[Species]SelectionMask

	ProtonTOFWindow    [2]float64
	DeuteriumTOFWindow [2]float64
	// Pion/muon border, either in ns (UsesTOFBorder) or in PE of sumDownstreamACTs.
	PiMuBorder    float64
	UsesTOFBorder bool

	// Set when the proton window misses the nominal proton TOF of the run.
	ProtonWindowErr error
}

func newSpeciesAssignment(rows int, active []Species) *SpeciesAssignment {
	a := &SpeciesAssignment{
		Rows:   rows,
		active: append([]Species(nil), active...),
		main:   make(map[Species]SelectionMask),
		weird:  make(map[Species]SelectionMask),
	}
	for _, s := range AllSpecies {
		a.main[s] = NoRows(rows)
		a.weird[s] = NoRows(rows)
	}
	return a
}

func (a *SpeciesAssignment) Mask(s Species) SelectionMask {
	return a.main[s]
}

// WeirdMask flags candidates of s rejected by the lead glass cut.
func (a *SpeciesAssignment) WeirdMask(s Species) SelectionMask {
	return a.weird[s]
}

func (a *SpeciesAssignment) Count(s Species) int {
	return a.main[s].Count()
}

func (a *SpeciesAssignment) IsActive(s Species) bool {
	return slices.Contains(a.active, s)
}

func (a *SpeciesAssignment) ActiveSpecies() []Species {
	return append([]Species(nil), a.active...)
}

// Overlaps counts rows selected by more than one species main mask.
func (a *SpeciesAssignment) Overlaps() int {
	overlaps := 0
	for i := 0; i < a.Rows; i++ {
		n := 0
		for _, s := range AllSpecies {
			if a.main[s][i] {
				n++
			}
		}
		if n > 1 {
			overlaps++
		}
	}
	return overlaps
}

// SpeciesClassifier applies the TOF and Cherenkov cuts of a run.
type SpeciesClassifier struct {
	cfg *RunConfig
	kin *KinematicsModel
}

func NewSpeciesClassifier(cfg *RunConfig, kin *KinematicsModel) *SpeciesClassifier {
	return &SpeciesClassifier{cfg: cfg, kin: kin}
}

// RequiredBranches lists the derived branches Classify reads.
func (c *SpeciesClassifier) RequiredBranches() []string {
	if !c.cfg.LowMomentum {
		return nil
	}
	return []string{BranchSumACT1, BranchSumDownstreamACTs}
}

// Classify assigns every row to at most one species. The dataset is not modified.
func (c *SpeciesClassifier) Classify(ds *EventDataset) (*SpeciesAssignment, error) {
	if err := ds.RequireBranches(c.RequiredBranches()...); err != nil {
		return nil, err
	}
	tof, err := ds.ReferenceColumn(ColumnTOF)
	if err != nil {
		return nil, err
	}

	a := newSpeciesAssignment(ds.Rows(), c.cfg.ActiveSpecies())
	protonLo, protonHi := c.kin.ProtonTOFSelectionBounds(c.cfg.Momentum)
	deuteriumLo, deuteriumHi := c.kin.DeuteriumTOFSelectionBounds(c.cfg.Momentum)
	a.ProtonTOFWindow = [2]float64{protonLo, protonHi}
	a.DeuteriumTOFWindow = [2]float64{deuteriumLo, deuteriumHi}

	slow := Compare(tof, Less, protonLo)

	if c.cfg.LowMomentum {
		if err := c.classifyLightSpecies(ds, a, tof, slow); err != nil {
			return nil, err
		}
	} else {
		a.main[Electron] = slow
	}

	if a.IsActive(Proton) {
		if err := c.kin.CheckProtonTOFWindow(c.cfg.Momentum); err != nil {
			a.ProtonWindowErr = err
			logger.Error(fmt.Sprintf("run %d: %v", c.cfg.RunNumber, err))
		}
		a.main[Proton] = InWindow(tof, protonLo, protonHi, false)
	}
	if a.IsActive(Deuterium) {
		a.main[Deuterium] = InWindow(tof, deuteriumLo, deuteriumHi, true)
	}

	if n := a.Overlaps(); n > 0 {
		return nil, fmt.Errorf("%w: %d rows", ErrOverlappingSpecies, n)
	}
	for _, s := range a.active {
		logger.Info(fmt.Sprintf("Run %d: %d %s candidates, %d rejected by lead glass",
			c.cfg.RunNumber, a.Count(s), s, a.weird[s].Count()), "classifier")
	}
	return a, nil
}

func (c *SpeciesClassifier) classifyLightSpecies(ds *EventDataset, a *SpeciesAssignment, tof []float64, slow SelectionMask) error {
	cuts := c.cfg.Cuts
	sumACT1, err := ds.ReferenceColumn(BranchSumACT1)
	if err != nil {
		return err
	}
	sumDS, err := ds.ReferenceColumn(BranchSumDownstreamACTs)
	if err != nil {
		return err
	}
	leadGlass, err := ds.Column(LeadGlassChannelName, ColumnWindowIntPE)
	if err != nil {
		return err
	}

	// the electron line meets the horizontal threshold at sumACT1 = crossing
	crossing := (cuts.HorizontalElectron - cuts.ACTLinearB) / cuts.ACTLinearA
	left := Compare(sumACT1, Less, crossing)
	right := Compare(sumACT1, Greater, crossing)
	aboveLine := AboveLine(sumACT1, sumDS, cuts.ACTLinearA, cuts.ACTLinearB)
	aboveHorizontal := Compare(sumDS, Greater, cuts.HorizontalElectron)
	electronRegion := aboveLine.And(left).Or(aboveHorizontal.And(right))

	a.main[Electron] = electronRegion.And(slow)

	var muonSide, pionSide SelectionMask
	if c.cfg.UsePiMuBorderTOF() {
		border := c.kin.PiMuBorderTOF(c.cfg.Momentum)
		if cuts.PiMuBorderTOF != nil {
			border = *cuts.PiMuBorderTOF
		}
		a.PiMuBorder, a.UsesTOFBorder = border, true
		muonSide = Compare(tof, Less, border)
		pionSide = Compare(tof, GreaterEqual, border)
	} else {
		a.PiMuBorder = cuts.PiMuBorderACT
		muonSide = Compare(sumDS, GreaterEqual, cuts.PiMuBorderACT)
		pionSide = Compare(sumDS, Less, cuts.PiMuBorderACT)
	}

	notElectron := electronRegion.Not()
	goodLeadGlass := Compare(leadGlass, Less, cuts.WeirdElectronLGCut)
	badLeadGlass := goodLeadGlass.Not()

	muonCandidate := slow.And(muonSide).And(notElectron)
	pionCandidate := slow.And(pionSide).And(notElectron).And(Compare(sumDS, GreaterEqual, cuts.ACTLowerCut))

	a.main[Muon] = muonCandidate.And(goodLeadGlass)
	a.weird[Muon] = muonCandidate.And(badLeadGlass)
	a.main[Pion] = pionCandidate.And(goodLeadGlass)
	a.weird[Pion] = pionCandidate.And(badLeadGlass)
	return nil
}
