package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/td-monitor/pkg/models"
)

func TestPrintProgress_AllZeroProgress(t *testing.T) {
	jobs := []*models.Job{
		{Name: "mol_d1", Status: models.StatusIncomplete, Progress: 0},
		{Name: "mol_d2", Status: models.StatusIncomplete, Progress: 0},
	}
	mon := New(jobs, &fakeClient{}, t.TempDir(), "errors.json", nil)

	// ビン幅は常に1以上で、ゼロ除算は起きない
	assert.NotPanics(t, func() {
		mon.PrintProgress()
	})
}

func TestPrintProgress_SingleJob(t *testing.T) {
	jobs := []*models.Job{
		{Name: "mol_d1", Status: models.StatusComplete, Progress: 24},
	}
	mon := New(jobs, &fakeClient{}, t.TempDir(), "errors.json", nil)

	assert.NotPanics(t, func() {
		mon.PrintProgress()
	})
}

func TestPrintProgress_NoJobs(t *testing.T) {
	mon := New(nil, &fakeClient{}, t.TempDir(), "errors.json", nil)

	assert.NotPanics(t, func() {
		mon.PrintProgress()
	})
}

func TestPrintStatus_UnknownStatusIncluded(t *testing.T) {
	jobs := []*models.Job{
		{Name: "mol_d1", Status: models.StatusComplete},
		{Name: "mol_d2", Status: "VALIDATION"}, // サーバ側の未知の語彙
	}
	mon := New(jobs, &fakeClient{}, t.TempDir(), "errors.json", nil)

	assert.NotPanics(t, func() {
		mon.PrintStatus()
	})
}

func TestLogErrors_WritesErrorJobs(t *testing.T) {
	errorLog := filepath.Join(t.TempDir(), "monitor_error_jobs.json")
	payload := json.RawMessage(`{"error_message":"geometry optimization diverged"}`)
	jobs := []*models.Job{
		{Name: "mol_d1", MolName: "mol", ID: "1", Status: models.StatusError, Error: payload},
		{Name: "mol_d2", MolName: "mol", ID: "2", Status: models.StatusComplete},
	}
	mon := New(jobs, &fakeClient{}, t.TempDir(), errorLog, nil)

	require.NoError(t, mon.LogErrors())

	data, err := os.ReadFile(errorLog)
	require.NoError(t, err)

	var logged []*models.Job
	require.NoError(t, json.Unmarshal(data, &logged))
	require.Len(t, logged, 1)
	assert.Equal(t, "mol_d1", logged[0].Name)
	assert.JSONEq(t, string(payload), string(logged[0].Error))
}

func TestLogErrors_NoErrorJobsIsNoop(t *testing.T) {
	errorLog := filepath.Join(t.TempDir(), "monitor_error_jobs.json")
	jobs := []*models.Job{
		{Name: "mol_d1", Status: models.StatusComplete},
	}
	mon := New(jobs, &fakeClient{}, t.TempDir(), errorLog, nil)

	require.NoError(t, mon.LogErrors())

	_, err := os.Stat(errorLog)
	assert.True(t, os.IsNotExist(err))
}

func TestOrderedStatuses(t *testing.T) {
	counts := map[string]int{
		models.StatusDownloaded: 3,
		models.StatusIncomplete: 5,
		"VALIDATION":            1,
		"AWAITING":              2,
	}

	ordered := orderedStatuses(counts)

	// 既知ステータスは定義順、未知は末尾にアルファベット順
	assert.Equal(t, []string{
		models.StatusIncomplete,
		models.StatusDownloaded,
		"AWAITING",
		"VALIDATION",
	}, ordered)
}
