package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meritDataset() Dataset {
	return Dataset{
		Title:   "Merit List",
		Headers: []string{"Rank", "Name", "Average", "Grade"},
		Rows: [][]string{
			{"1", "Amina Otieno", "82.50", "A"},
			{"2", "Brian Kamau", "70.00", "B"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(meritDataset())
	require.NoError(t, err)
	assert.Equal(t, "Rank,Name,Average,Grade\n1,Amina Otieno,82.50,A\n2,Brian Kamau,70.00,B\n", string(out))
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := meritDataset()
	data.Rows = append(data.Rows, []string{"3"})

	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := meritDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, []string{"3", "Student", "50.00", "C"})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
