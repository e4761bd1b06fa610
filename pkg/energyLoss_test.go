package beamana

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linearTableCSV = `#Kinetic_energy [GeV],Total_st_pw [MeV/m]
0.0,0
0.5,500
1.0,1000
`

func TestReadStoppingPowerCSV(t *testing.T) {
	table, err := ReadStoppingPowerCSV("linear", strings.NewReader(linearTableCSV))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, table.KineticEnergyGeV)

	_, err = ReadStoppingPowerCSV("bad", strings.NewReader("energy,power\n1,2\n2,3\n"))
	assert.Error(t, err)

	_, err = ReadStoppingPowerCSV("decreasing", strings.NewReader(
		"#Kinetic_energy [GeV],Total_st_pw [MeV/m]\n1,2\n0.5,3\n"))
	assert.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	table, err := ReadStoppingPowerCSV("linear", strings.NewReader(linearTableCSV))
	require.NoError(t, err)

	v, err := table.Interpolate(0.5)
	require.NoError(t, err)
	assert.Equal(t, 500.0, v)

	v, err = table.Interpolate(0.25)
	require.NoError(t, err)
	assert.InDelta(t, 250, v, 1e-9)

	v, err = table.Interpolate(1.0)
	require.NoError(t, err)
	assert.InDelta(t, 1000, v, 1e-9)

	_, err = table.Interpolate(1.5)
	var lookup *TableLookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, 1.0, lookup.MaxGeV)

	_, err = table.Interpolate(-0.1)
	require.ErrorAs(t, err, &lookup)
}

func TestLoadStoppingPowerTables(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, stoppingPowerFilename("proton", Air))
	require.NoError(t, os.WriteFile(filename, []byte(linearTableCSV), 0o644))

	tables, err := LoadStoppingPowerTables(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, tables.Len())

	_, err = tables.Lookup(Proton, -1, Air)
	assert.NoError(t, err)
	_, err = tables.Lookup(Pion, 1, Air)
	assert.Error(t, err)

	_, err = LoadStoppingPowerTables(t.TempDir())
	assert.Error(t, err)
}

func linearCorrector(t *testing.T) *EnergyLossCorrector {
	t.Helper()
	table, err := ReadStoppingPowerCSV("linear", strings.NewReader(linearTableCSV))
	require.NoError(t, err)
	tables := NewStoppingPowerTables()
	tables.Add("proton", Air, table)
	tables.Add("proton", Mylar, table)
	return NewEnergyLossCorrector(tables, 1, MomentumLossFractionalError)
}

func TestStoppingPower(t *testing.T) {
	c := linearCorrector(t)

	// 100 MeV reads 100 MeV/m from the table
	loss, lossErr, err := c.StoppingPower(Proton, 100, Air, 10)
	require.NoError(t, err)
	assert.InDelta(t, 10, loss, 1e-9)
	assert.InDelta(t, 1.5, lossErr, 1e-9)

	_, _, err = c.StoppingPower(Proton, 100, PlasticScintillator, 10)
	assert.Error(t, err)
}

func TestTotalLossAlongPath(t *testing.T) {
	c := linearCorrector(t)
	path := []Layer{
		{Material: Air, ThicknessCm: 10},
		{Material: Mylar, ThicknessCm: 10},
	}

	total, totalErr, err := c.TotalLossAlongPath(Proton, 100, path)
	require.NoError(t, err)
	// the second layer sees 90 MeV
	assert.InDelta(t, 19, total, 1e-9)
	assert.InDelta(t, 0.15*19, totalErr, 1e-9)

	_, _, err = c.TotalLossAlongPath(Proton, 2000, path)
	var lookup *TableLookupError
	assert.ErrorAs(t, err, &lookup)
}

func TestTotalLossAlongEmptyPath(t *testing.T) {
	c := linearCorrector(t)
	for _, path := range [][]Layer{nil, {}} {
		total, totalErr, err := c.TotalLossAlongPath(Electron, 100, path)
		require.NoError(t, err)
		assert.Equal(t, 0.0, total)
		assert.Equal(t, 0.0, totalErr)
	}
}

func TestErrorSums(t *testing.T) {
	assert.Equal(t, 6.0, LinearErrorSum([]float64{1, 2, 3}))
	assert.InDelta(t, 5, QuadratureErrorSum(3, 4), 1e-12)
	assert.Equal(t, 0.0, QuadratureErrorSum())
}

func TestPaths(t *testing.T) {
	trigger := TriggerPath(1.08)
	require.Len(t, trigger, 3)
	assert.InDelta(t, 108, trigger[1].ThicknessCm, 1e-9)

	path, err := LeadGlassPath(1.08, 108, 1.047)
	require.NoError(t, err)
	require.Len(t, path, 9)
	// 16 cm of aerogel upstream and downstream
	assert.InDelta(t, 108-32, path[4].ThicknessCm, 1e-9)
	assert.Equal(t, AerogelMaterial(1.047), path[8].Material)

	_, err = LeadGlassPath(1.08, 108, 1.5)
	assert.Error(t, err)
}

func TestAerogel(t *testing.T) {
	assert.Equal(t, Material("Aerogel1p047"), AerogelMaterial(1.047))
	thickness, err := AerogelThickness(1.11)
	require.NoError(t, err)
	assert.Equal(t, 4.0, thickness)

	_, ok := PropertiesOf(AerogelMaterial(1.006))
	assert.True(t, ok)
	_, ok = PropertiesOf("Lead")
	assert.False(t, ok)
	assert.Len(t, KnownMaterials(), 3+len(aerogelThicknesses))
}

func TestBetheBloch(t *testing.T) {
	props, ok := PropertiesOf(PlasticScintillator)
	require.True(t, ok)

	// about 7.3 MeV cm2/g for 100 MeV protons in polystyrene
	sp := BetheBloch(Proton, 100, props)
	assert.Greater(t, sp, 500.0)
	assert.Less(t, sp, 1000.0)
	assert.Greater(t, BetheBloch(Proton, 50, props), BetheBloch(Proton, 200, props))
	assert.Equal(t, 0.0, BetheBloch(Proton, 0, props))

	tables, err := NewBetheBlochTables()
	require.NoError(t, err)
	for _, s := range AllSpecies {
		for _, sign := range []int{-1, 1} {
			for _, m := range KnownMaterials() {
				_, err := tables.Lookup(s, sign, m)
				assert.NoError(t, err, "%s %d %s", s, sign, m)
			}
		}
	}
}
