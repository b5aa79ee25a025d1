// Package monitor はトーションドライブジョブの状態照合と結果取得を担います。
// ジョブリストと出力フォルダを1つの Monitor が所有し、照合・レポート・
// ダウンロードをそれぞれ独立に実行できる。
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/jinford/td-monitor/pkg/models"
	"github.com/jinford/td-monitor/pkg/qcfractal"
)

// Monitor はひとつの実行単位のプロセス状態を保持します
type Monitor struct {
	jobs      []*models.Job
	client    qcfractal.Client
	outFolder string
	errorLog  string
	logger    *slog.Logger
}

// New は Monitor を構築します
func New(jobs []*models.Job, client qcfractal.Client, outFolder, errorLogPath string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		jobs:      jobs,
		client:    client,
		outFolder: outFolder,
		errorLog:  errorLogPath,
		logger:    logger,
	}
}

// Jobs は管理下のジョブリストを返します
func (m *Monitor) Jobs() []*models.Job {
	return m.jobs
}

func (m *Monitor) ledgerPath() string {
	return filepath.Join(m.outFolder, ledgerFileName)
}

// Reconcile は全ジョブの status / progress / error を3つの情報源から更新します。
// 適用順は厳密で、後段の情報源は前段で解決済みのジョブに触れない:
//  1. ダウンロード台帳（ローカル）: 一致したジョブを DOWNLOADED に確定
//  2. プロシージャ一括問い合わせ: DOWNLOADED 以外のジョブを更新
//  3. サービス一括問い合わせ: ステップ2で INCOMPLETE だったジョブのみ更新。
//     トランスポート障害時は該当ジョブを今回未更新のまま継続する（非致命）。
func (m *Monitor) Reconcile(ctx context.Context) error {
	byID := models.ByID(m.jobs)
	m.logger.Info("ジョブステータスをIDで更新します", "jobs", len(byID))

	ledger, err := LoadLedger(m.ledgerPath())
	if err != nil {
		return err
	}
	for _, entry := range ledger {
		job, ok := byID[entry.ID]
		if !ok {
			continue
		}
		// 台帳は権威であり、以降のリモート問い合わせで上書きしない
		job.Status = models.StatusDownloaded
		job.Progress = entry.Progress
	}

	queryIDs := selectIDs(byID, func(job *models.Job) bool {
		return job.Status != models.StatusDownloaded
	})
	if len(queryIDs) > 0 {
		records, err := m.client.QueryProcedures(ctx, queryIDs)
		if err != nil {
			return fmt.Errorf("プロシージャの一括取得に失敗: %w", err)
		}
		for _, record := range records {
			job, ok := byID[record.ID]
			if !ok {
				m.logger.Warn("未知のプロシージャレコードをスキップします", "id", record.ID)
				continue
			}
			job.Status = record.Status
			job.Progress = record.Progress()
		}
	}

	incompleteIDs := selectIDs(byID, func(job *models.Job) bool {
		return job.Status == models.StatusIncomplete
	})
	if len(incompleteIDs) == 0 {
		return nil
	}

	projection := []string{"procedure_id", "status", "optimization_history", "error"}
	records, err := m.client.QueryServices(ctx, incompleteIDs, projection)
	if err != nil {
		// INCOMPLETEジョブの詳細が取れなくても実行全体は継続する
		m.logger.Warn("INCOMPLETEジョブの情報取得に失敗したため今回は更新を見送ります",
			"jobs", len(incompleteIDs), "error", err)
		return nil
	}
	for _, record := range records {
		job, ok := byID[record.ProcedureID]
		if !ok {
			m.logger.Warn("未知のサービスレコードをスキップします", "procedure_id", record.ProcedureID)
			continue
		}
		job.Status = record.Status
		job.Progress = record.Progress()
		if job.Status == models.StatusError {
			job.Error = record.Error
		}
	}

	return nil
}

// SyncFromDataset はデータセットとして投入されたジョブの id / status を
// サーバ上の名前付きコレクションから取り込みます。照合は
// canonical_torsion_label で行う。
func (m *Monitor) SyncFromDataset(ctx context.Context, datasetName, qmSpec string) error {
	m.logger.Info("データセットからジョブステータスを取得します", "dataset", datasetName, "spec", qmSpec)

	ds, err := m.client.GetCollection(ctx, "TorsionDriveDataset", datasetName)
	if err != nil {
		return fmt.Errorf("データセット %s の取得に失敗: %w", datasetName, err)
	}
	if ds.Status != "" {
		fmt.Printf("データセットステータス:\n%s\n", ds.Status)
	}

	matched := 0
	for _, job := range m.jobs {
		if job.CanonicalTorsionLabel == "" {
			continue
		}
		entry, ok := ds.Records[job.CanonicalTorsionLabel]
		if !ok {
			continue
		}
		job.ID = entry.ID
		job.Status = entry.Status
		matched++
	}
	m.logger.Info("データセットとの照合が完了しました", "matched", matched)

	return nil
}

// selectIDs は条件を満たすジョブのIDを決定的な順序で返します
func selectIDs(byID map[string]*models.Job, keep func(*models.Job) bool) []string {
	ids := make([]string, 0, len(byID))
	for id, job := range byID {
		if keep(job) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
