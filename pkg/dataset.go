package beamana

import (
	"fmt"
)

// Per-hit columns written by the waveform analysis.
const (
	ColumnWindowIntPE    = "matchedHit0_WindowIntPE"
	ColumnWindow2IntPE   = "matchedHit0_Window2IntPE"
	ColumnTOF            = "matchedHit0_TOF"
	ColumnWindowCentralT = "matchedHit0_WindowCentralTimeCorrected"
	ColumnPeakIntPE      = "peakHit0_IntPE"
	ColumnSignalTime     = "peakHit0_SignalTimeCorrected"
	ColumnNCoincidence   = "nCoincidence"
	ColumnSpillNumber    = "spillNumber"
	LeadGlassChannelName = "PbGlass"
)

type Channel struct {
	Name  string
	Index int
}

// EventTable stores one channel's columns. Columns are never modified in
// place; a derived branch shares one slice between all channels.
type EventTable struct {
	Channel string
	names   []string
	columns map[string][]float64
	rows    int
}

func NewEventTable(channel string) *EventTable {
	return &EventTable{
		Channel: channel,
		columns: make(map[string][]float64),
		rows:    -1,
	}
}

// AddColumn appends a column. The first column fixes the number of rows.
func (t *EventTable) AddColumn(name string, values []float64) error {
	if _, ok := t.columns[name]; ok {
		return fmt.Errorf("%w: %s in channel %s", ErrBranchExists, name, t.Channel)
	}
	if t.rows >= 0 && len(values) != t.rows {
		return fmt.Errorf("%w: column %s of channel %s has %d rows, table has %d",
			ErrMisalignedRows, name, t.Channel, len(values), t.rows)
	}
	t.rows = len(values)
	t.names = append(t.names, name)
	t.columns[name] = values
	return nil
}

func (t *EventTable) Column(name string) ([]float64, bool) {
	values, ok := t.columns[name]
	return values, ok
}

func (t *EventTable) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Columns returns column names in insertion order.
func (t *EventTable) Columns() []string {
	return append([]string(nil), t.names...)
}

func (t *EventTable) Rows() int {
	if t.rows < 0 {
		return 0
	}
	return t.rows
}

func (t *EventTable) filter(mask SelectionMask) *EventTable {
	out := NewEventTable(t.Channel)
	n := mask.Count()
	for _, name := range t.names {
		values := t.columns[name]
		kept := make([]float64, 0, n)
		for i, keep := range mask {
			if keep {
				kept = append(kept, values[i])
			}
		}
		out.names = append(out.names, name)
		out.columns[name] = kept
	}
	out.rows = n
	return out
}

func (t *EventTable) clone() *EventTable {
	out := NewEventTable(t.Channel)
	for _, name := range t.names {
		out.names = append(out.names, name)
		out.columns[name] = append([]float64(nil), t.columns[name]...)
	}
	out.rows = t.rows
	return out
}

// sentinelTable has the columns and row count of like, every value set to SentinelFlag.
func sentinelTable(channel string, like *EventTable) *EventTable {
	out := NewEventTable(channel)
	for _, name := range like.names {
		values := make([]float64, like.Rows())
		for i := range values {
			values[i] = SentinelFlag
		}
		out.names = append(out.names, name)
		out.columns[name] = values
	}
	out.rows = like.Rows()
	return out
}

// EventDataset holds one table per channel of a run, all with the same rows in
// the same order.
type EventDataset struct {
	channels []Channel
	tables   []*EventTable
	missing  map[string]bool
}

// NewEventDataset orders tables by channelNames. Channels without a table are
// replaced by sentinel tables shaped like the first available one.
func NewEventDataset(channelNames []string, tables map[string]*EventTable) (*EventDataset, error) {
	var reference *EventTable
	for _, name := range channelNames {
		if t, ok := tables[name]; ok {
			reference = t
			break
		}
	}
	if reference == nil {
		return nil, fmt.Errorf("none of the %d configured channels is present", len(channelNames))
	}

	ds := &EventDataset{missing: make(map[string]bool)}
	for i, name := range channelNames {
		table, ok := tables[name]
		if !ok {
			logger.Info(fmt.Sprintf("Channel %s not in input, filling with %v", name, SentinelFlag), "dataset")
			table = sentinelTable(name, reference)
			ds.missing[name] = true
		}
		if table.Rows() != reference.Rows() {
			return nil, fmt.Errorf("%w: channel %s has %d rows, channel %s has %d",
				ErrMisalignedRows, name, table.Rows(), reference.Channel, reference.Rows())
		}
		table.Channel = name
		ds.channels = append(ds.channels, Channel{Name: name, Index: i})
		ds.tables = append(ds.tables, table)
	}
	return ds, nil
}

func (d *EventDataset) Channels() []Channel {
	return append([]Channel(nil), d.channels...)
}

func (d *EventDataset) ChannelIndex(name string) (int, bool) {
	for _, c := range d.channels {
		if c.Name == name {
			return c.Index, true
		}
	}
	return 0, false
}

// IsMissing reports whether the channel was filled with sentinel values.
func (d *EventDataset) IsMissing(name string) bool {
	return d.missing[name]
}

func (d *EventDataset) Rows() int {
	if len(d.tables) == 0 {
		return 0
	}
	return d.tables[0].Rows()
}

func (d *EventDataset) Table(name string) (*EventTable, error) {
	idx, ok := d.ChannelIndex(name)
	if !ok {
		return nil, fmt.Errorf("channel %q not in dataset", name)
	}
	return d.tables[idx], nil
}

// TableAt returns the table of the channel with the given index.
func (d *EventDataset) TableAt(index int) *EventTable {
	return d.tables[index]
}

// Column returns a column of a channel.
func (d *EventDataset) Column(channel string, branch string) ([]float64, error) {
	table, err := d.Table(channel)
	if err != nil {
		return nil, &MissingBranchError{Channel: channel, Branch: branch}
	}
	values, ok := table.Column(branch)
	if !ok {
		return nil, &MissingBranchError{Channel: channel, Branch: branch}
	}
	return values, nil
}

// ReferenceChannel is the first channel read from the input. It carries the
// TOF and the derived branches; sentinel tables never do.
func (d *EventDataset) ReferenceChannel() (string, bool) {
	for _, c := range d.channels {
		if !d.missing[c.Name] {
			return c.Name, true
		}
	}
	return "", false
}

// ReferenceColumn reads a column from the reference channel.
func (d *EventDataset) ReferenceColumn(branch string) ([]float64, error) {
	channel, ok := d.ReferenceChannel()
	if !ok {
		return nil, &MissingBranchError{Branch: branch}
	}
	return d.Column(channel, branch)
}

// HasBranch reports whether every channel table has the column.
func (d *EventDataset) HasBranch(name string) bool {
	if len(d.tables) == 0 {
		return false
	}
	for _, t := range d.tables {
		if !t.HasColumn(name) {
			return false
		}
	}
	return true
}

// AddBranch adds the same values under name to every channel table.
func (d *EventDataset) AddBranch(name string, values []float64) error {
	if len(values) != d.Rows() {
		return fmt.Errorf("%w: branch %s has %d rows, dataset has %d", ErrMisalignedRows, name, len(values), d.Rows())
	}
	for _, t := range d.tables {
		if t.HasColumn(name) {
			return fmt.Errorf("%w: %s", ErrBranchExists, name)
		}
	}
	for _, t := range d.tables {
		if err := t.AddColumn(name, values); err != nil {
			return err
		}
	}
	return nil
}

// Apply keeps the rows selected by mask in every table.
func (d *EventDataset) Apply(mask SelectionMask) error {
	if len(mask) != d.Rows() {
		return fmt.Errorf("%w: mask has %d rows, dataset has %d", ErrMisalignedRows, len(mask), d.Rows())
	}
	filtered := make([]*EventTable, len(d.tables))
	for i, t := range d.tables {
		filtered[i] = t.filter(mask)
	}
	d.tables = filtered
	return nil
}

// Snapshot returns an independent dataset with the rows selected by mask.
func (d *EventDataset) Snapshot(mask SelectionMask) (*EventDataset, error) {
	out := d.Clone()
	if err := out.Apply(mask); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone deep-copies every table.
func (d *EventDataset) Clone() *EventDataset {
	out := &EventDataset{
		channels: append([]Channel(nil), d.channels...),
		tables:   make([]*EventTable, len(d.tables)),
		missing:  make(map[string]bool, len(d.missing)),
	}
	for i, t := range d.tables {
		out.tables[i] = t.clone()
	}
	for k, v := range d.missing {
		out.missing[k] = v
	}
	return out
}
