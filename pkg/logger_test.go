package beamana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewSlogLogger(&info, &errs)

	l.Info("electron TOF offset 0.400 ns", "momentum")
	assert.Regexp(t, `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[momentum\] electron TOF offset 0.400 ns\n$`, info.String())

	l.Error("run 12: bad file")
	var record map[string]any
	require.NoError(t, json.Unmarshal(errs.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "run 12: bad file", record["msg"])
}

func TestSetLogger(t *testing.T) {
	previous := logger
	defer SetLogger(previous)

	var info bytes.Buffer
	SetLogger(NewSlogLogger(&info, &info))
	_, err := NewEventDataset([]string{"TOF00", "TOF01"}, map[string]*EventTable{"TOF00": tofDataset(t, []float64{1}).TableAt(0)})
	require.NoError(t, err)
	assert.Contains(t, info.String(), "[dataset] Channel TOF01 not in input")
}
