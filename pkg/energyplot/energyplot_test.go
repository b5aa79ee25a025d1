package energyplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/td-monitor/pkg/qcfractal"
)

func TestEnergies1D_WritesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mol_d1.pdf")
	energies := map[qcfractal.GridID]float64{
		"[-90]": -76.0267891,
		"[0]":   -76.0301234,
		"[90]":  -76.0213456,
	}

	require.NoError(t, Energies1D(energies, path, "mol_d1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestEnergies1D_EmptyEnergiesSkipsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mol_d1.pdf")

	// 空のエネルギーは例外にせず、ファイルも作らない
	require.NoError(t, Energies1D(nil, path, "mol_d1"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
