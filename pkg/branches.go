package beamana

import "fmt"

// Derived branch names.
const (
	BranchSumTS                    = "sumTS"
	BranchSumTSWindow2             = "sumTSwindow2"
	BranchSumACT0                  = "sumACT0"
	BranchSumACT1                  = "sumACT1"
	BranchSumACT1Window2           = "sumACT1window2"
	BranchSumDownstreamACTs        = "sumDownstreamACTs"
	BranchSumDownstreamACTsWindow2 = "sumDownstreamACTsWindow2"
)

var (
	triggerScintillatorChannels = []string{"TOF00", "TOF01", "TOF02", "TOF03", "TOF10", "TOF11", "TOF12", "TOF13"}
	act0Channels                = []string{"ACT0L", "ACT0R"}
	act1Channels                = []string{"ACT1L", "ACT1R"}
	downstreamACTChannels       = []string{"ACT2L", "ACT2R", "ACT3L", "ACT3R"}
)

// branchDefinition sums one column over a group of channels.
type branchDefinition struct {
	channels []string
	column   string
}

var derivedBranches = map[string]branchDefinition{
	BranchSumTS:                    {channels: triggerScintillatorChannels, column: ColumnWindowIntPE},
	BranchSumTSWindow2:             {channels: triggerScintillatorChannels, column: ColumnWindow2IntPE},
	BranchSumACT0:                  {channels: act0Channels, column: ColumnWindowIntPE},
	BranchSumACT1:                  {channels: act1Channels, column: ColumnWindowIntPE},
	BranchSumACT1Window2:           {channels: act1Channels, column: ColumnWindow2IntPE},
	BranchSumDownstreamACTs:        {channels: downstreamACTChannels, column: ColumnWindowIntPE},
	BranchSumDownstreamACTsWindow2: {channels: downstreamACTChannels, column: ColumnWindow2IntPE},
}

// EnsureBranch computes a derived branch unless it is already present.
// Channels filled with sentinel values do not contribute to the sum.
func (d *EventDataset) EnsureBranch(name string) error {
	if d.HasBranch(name) {
		return nil
	}
	def, ok := derivedBranches[name]
	if !ok {
		return &MissingBranchError{Branch: name}
	}

	sum := make([]float64, d.Rows())
	for _, channel := range def.channels {
		if _, ok := d.ChannelIndex(channel); !ok {
			return fmt.Errorf("cannot build %s: %w", name, &MissingBranchError{Channel: channel, Branch: def.column})
		}
		if d.IsMissing(channel) {
			logger.Info(fmt.Sprintf("Channel %s missing from input, left out of %s", channel, name), "dataset")
			continue
		}
		values, err := d.Column(channel, def.column)
		if err != nil {
			return fmt.Errorf("cannot build %s: %w", name, err)
		}
		for i, v := range values {
			sum[i] += v
		}
	}
	return d.AddBranch(name, sum)
}

func (d *EventDataset) EnsureBranches(names ...string) error {
	for _, name := range names {
		if err := d.EnsureBranch(name); err != nil {
			return err
		}
	}
	return nil
}

// RequireBranches fails with a MissingBranchError for the first branch not
// yet present, without computing anything.
func (d *EventDataset) RequireBranches(names ...string) error {
	for _, name := range names {
		if !d.HasBranch(name) {
			return &MissingBranchError{Branch: name}
		}
	}
	return nil
}
