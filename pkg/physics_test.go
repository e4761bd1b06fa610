package beamana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecies(t *testing.T) {
	tests := []struct {
		name string
		want Species
	}{
		{"electron", Electron},
		{"Positron", Electron},
		{"mu", Muon},
		{"pions", Pion},
		{" proton ", Proton},
		{"deuteron", Deuterium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSpecies(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}

	_, err := ParseSpecies("kaon")
	var wrongName *WrongSpeciesNameError
	require.ErrorAs(t, err, &wrongName)
	assert.Equal(t, "kaon", wrongName.Name)
}

func TestSpeciesNames(t *testing.T) {
	assert.Equal(t, "deuterium", Deuterium.String())
	assert.Equal(t, "Deuterium", Deuterium.Title())
	assert.Equal(t, "unknown", Species(42).String())
	assert.Equal(t, ProtonMass, Proton.Mass())
}

func TestTableParticle(t *testing.T) {
	assert.Equal(t, "piMinus", tableParticle(Pion, -1))
	assert.Equal(t, "piPlus", tableParticle(Pion, 1))
	assert.Equal(t, "electron", tableParticle(Electron, -1))
	assert.Equal(t, "positron", tableParticle(Electron, 1))
	assert.Equal(t, "proton", tableParticle(Proton, -1))
}
