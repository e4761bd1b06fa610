package beamana

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

// LoadEventDataset reads /<channel>/<column> datasets for every configured
// channel. Channels without a group in the file are sentinel filled.
func LoadEventDataset(filename string, channelNames []string) (*EventDataset, error) {
	hdf5Lock.Lock()
	defer hdf5Lock.Unlock()

	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading %d channels from %s", len(channelNames), filename), "hdf5Reader")
	}

	tables := make(map[string]*EventTable, len(channelNames))
	for _, name := range channelNames {
		if !f.LinkExists(name) {
			continue
		}
		table, err := readChannelGroup(f, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		tables[name] = table
	}
	return NewEventDataset(channelNames, tables)
}

func readChannelGroup(f *hdf5.File, name string) (*EventTable, error) {
	g, err := f.OpenGroup(name)
	if err != nil {
		return nil, fmt.Errorf("opening group %s: %w", name, err)
	}
	defer g.Close()

	nObjects, err := g.NumObjects()
	if err != nil {
		return nil, fmt.Errorf("listing group %s: %w", name, err)
	}

	table := NewEventTable(name)
	for i := uint(0); i < nObjects; i++ {
		objType, err := g.ObjectTypeByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("group %s object %d: %w", name, i, err)
		}
		if objType != hdf5.H5G_DATASET {
			continue
		}
		column, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("group %s object %d: %w", name, i, err)
		}
		values, err := readColumn(g, column)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", name, column, err)
		}
		if values == nil {
			continue
		}
		if err := table.AddColumn(column, values); err != nil {
			return nil, err
		}
	}
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Channel %s: %d columns, %d rows", name, len(table.Columns()), table.Rows()), "hdf5Reader")
	}
	return table, nil
}

// readColumn returns nil for datasets that are not one dimensional.
func readColumn(g *hdf5.Group, name string) ([]float64, error) {
	dset, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		logger.Info(fmt.Sprintf("Skipping %s: %d dimensions", name, len(dims)), "hdf5Reader")
		return nil, nil
	}

	values := make([]float64, dims[0])
	if len(values) == 0 {
		return values, nil
	}
	if err := dset.Read(&values); err != nil {
		return nil, err
	}
	return values, nil
}
