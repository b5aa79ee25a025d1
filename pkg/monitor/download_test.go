package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/td-monitor/pkg/models"
	"github.com/jinford/td-monitor/pkg/qcfractal"
)

func completeProcedure(id string) *qcfractal.ProcedureRecord {
	water := qcfractal.Molecule{
		Symbols: []string{"O", "H", "H"},
		// Bohr単位のフラット配列
		Geometry: []float64{
			0.0, 0.0, 0.2217,
			0.0, 1.4309, -0.8867,
			0.0, -1.4309, -0.8867,
		},
	}
	gradient := qcfractal.ResultRecord{
		ID:     id,
		Driver: "gradient",
		ReturnResult: []float64{
			0.0, 0.0, 0.0012,
			0.0, 0.0034, -0.0006,
			0.0, -0.0034, -0.0006,
		},
	}
	return &qcfractal.ProcedureRecord{
		ID:                  id,
		Status:              models.StatusComplete,
		OptimizationHistory: gridHistory(2),
		FinalEnergies: map[qcfractal.GridID]float64{
			"[90]":  -76.0213456,
			"[-90]": -76.0267891,
		},
		FinalMolecules: map[qcfractal.GridID]qcfractal.Molecule{
			"[90]":  water,
			"[-90]": water,
		},
		FinalResults: map[qcfractal.GridID]qcfractal.ResultRecord{
			"[90]":  gradient,
			"[-90]": gradient,
		},
	}
}

func TestDownloadComplete_Scenario(t *testing.T) {
	outFolder := t.TempDir()
	jobs := []*models.Job{
		{Name: "mol_d1", MolName: "mol", ID: "1", Status: models.StatusComplete},
		{Name: "mol_d2", MolName: "mol", ID: "2", Status: models.StatusComplete},
	}
	client := &fakeClient{
		procedures: map[string]*qcfractal.ProcedureRecord{
			"1": completeProcedure("1"),
			"2": completeProcedure("2"),
		},
	}

	mon := New(jobs, client, outFolder, "errors.json", nil)
	require.NoError(t, mon.DownloadComplete(context.Background()))

	for _, job := range jobs {
		assert.Equal(t, models.StatusDownloaded, job.Status)
		assert.NotEmpty(t, job.SavedFile)

		for _, ext := range []string{".xyz", ".pdf", ".gradxyz"} {
			path := filepath.Join(outFolder, "mol", job.Name+ext)
			_, err := os.Stat(path)
			assert.NoError(t, err, "ファイル %s が存在するはず", path)
		}
	}

	// 台帳には両ジョブのスナップショットが記録される
	ledger, err := LoadLedger(filepath.Join(outFolder, "downloaded.json"))
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, "1", ledger[0].ID)
	assert.Equal(t, "2", ledger[1].ID)
	for _, entry := range ledger {
		assert.Equal(t, models.StatusDownloaded, entry.Status)
	}
}

func TestDownloadComplete_XYZFormat(t *testing.T) {
	outFolder := t.TempDir()
	jobs := []*models.Job{
		{Name: "mol_d1", MolName: "mol", ID: "1", Status: models.StatusComplete},
	}
	client := &fakeClient{
		procedures: map[string]*qcfractal.ProcedureRecord{"1": completeProcedure("1")},
	}

	mon := New(jobs, client, outFolder, "errors.json", nil)
	require.NoError(t, mon.DownloadComplete(context.Background()))

	data, err := os.ReadFile(filepath.Join(outFolder, "mol", "mol_d1.xyz"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	// グリッドポイントごとに 原子数行 + タイトル行 + 3原子行
	require.Len(t, lines, 10)
	assert.Equal(t, "3", lines[0])
	assert.Contains(t, lines[1], "mol_d1 [-90] energy =")

	// 昇順: [-90] のブロックが [90] より先
	assert.Contains(t, lines[6], "mol_d1 [90] energy =")

	// 座標はBohrからÅに換算される（0.2217 * 0.529177 ≈ 0.1173185）
	assert.Contains(t, lines[2], "0.1173185")
}

func TestDownloadComplete_TypeMismatchAborts(t *testing.T) {
	outFolder := t.TempDir()
	jobs := []*models.Job{
		{Name: "mol_d1", MolName: "mol", ID: "1", Status: models.StatusComplete},
	}

	record := completeProcedure("1")
	energy := record.FinalResults["[90]"]
	energy.Driver = "energy"
	record.FinalResults["[90]"] = energy
	client := &fakeClient{
		procedures: map[string]*qcfractal.ProcedureRecord{"1": record},
	}

	mon := New(jobs, client, outFolder, "errors.json", nil)
	err := mon.DownloadComplete(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gradient")

	// 不正な勾配ファイルは書かれない
	_, statErr := os.Stat(filepath.Join(outFolder, "mol", "mol_d1.gradxyz"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadComplete_NoCompleteJobsRewritesLedger(t *testing.T) {
	outFolder := t.TempDir()
	jobs := []*models.Job{
		{Name: "mol_d1", MolName: "mol", ID: "1", Status: models.StatusDownloaded, Progress: 24},
	}
	client := &fakeClient{}

	mon := New(jobs, client, outFolder, "errors.json", nil)
	require.NoError(t, mon.DownloadComplete(context.Background()))

	// ダウンロード対象が無くても台帳は現状のスナップショットで書き直される
	ledger, err := LoadLedger(filepath.Join(outFolder, "downloaded.json"))
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "1", ledger[0].ID)
	assert.Empty(t, client.procedureCalls)
}
