package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinford/td-monitor/pkg/energyplot"
	"github.com/jinford/td-monitor/pkg/models"
	"github.com/jinford/td-monitor/pkg/qcfractal"
	"github.com/jinford/td-monitor/pkg/xyz"
)

// DownloadComplete は COMPLETE なジョブの結果を取得してファイルに保存し、
// ステータスを DOWNLOADED に更新します。処理後、DOWNLOADED な全ジョブの
// スナップショットでダウンロード台帳を書き直す。
func (m *Monitor) DownloadComplete(ctx context.Context) error {
	if err := os.MkdirAll(m.outFolder, 0755); err != nil {
		return fmt.Errorf("出力フォルダの作成に失敗: %w", err)
	}

	completeByID := make(map[string]*models.Job)
	for _, job := range m.jobs {
		if job.Status == models.StatusComplete && job.ID != "" {
			completeByID[job.ID] = job
		}
	}

	n := len(completeByID)
	m.logger.Info("完了ジョブの結果をダウンロードします", "jobs", n)

	if n > 0 {
		ids := selectIDs(completeByID, func(*models.Job) bool { return true })
		records, err := m.client.QueryProcedures(ctx, ids)
		if err != nil {
			return fmt.Errorf("完了ジョブの結果取得に失敗: %w", err)
		}

		for i, record := range records {
			job, ok := completeByID[record.ID]
			if !ok {
				m.logger.Warn("未知のプロシージャレコードをスキップします", "id", record.ID)
				continue
			}
			fmt.Printf("%3d/%-3d ジョブ %s の結果をダウンロードしています\n", i+1, n, job.Name)
			if err := m.materialize(record, job); err != nil {
				return fmt.Errorf("ジョブ %s の結果保存に失敗: %w", job.Name, err)
			}
		}
	}

	var downloaded []*models.Job
	for _, job := range m.jobs {
		if job.Status == models.StatusDownloaded {
			downloaded = append(downloaded, job)
		}
	}
	return SaveLedger(m.ledgerPath(), downloaded)
}

// materialize はひとつの完了ジョブの座標・プロット・勾配ファイルを書き出します
func (m *Monitor) materialize(record *qcfractal.ProcedureRecord, job *models.Job) error {
	folder := filepath.Join(m.outFolder, job.MolName)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("分子フォルダの作成に失敗: %w", err)
	}

	gridIDs := qcfractal.SortedGridIDs(record.FinalEnergies)

	xyzPath := filepath.Join(folder, job.Name+".xyz")
	var coordBuf strings.Builder
	for _, gid := range gridIDs {
		mol := record.FinalMolecules[gid]
		title := fmt.Sprintf("%s %s energy = %15.7f", job.Name, gid, record.FinalEnergies[gid])
		frame, err := xyz.CoordinateFrame(mol.Symbols, mol.Geometry, title)
		if err != nil {
			return fmt.Errorf("グリッドポイント %s の座標整形に失敗: %w", gid, err)
		}
		coordBuf.WriteString(frame)
	}
	if err := os.WriteFile(xyzPath, []byte(coordBuf.String()), 0644); err != nil {
		return fmt.Errorf("座標ファイルの書き込みに失敗: %w", err)
	}

	plotPath := filepath.Join(folder, job.Name+".pdf")
	if err := energyplot.Energies1D(record.FinalEnergies, plotPath, job.Name); err != nil {
		return err
	}

	gradPath := filepath.Join(folder, job.Name+".gradxyz")
	var gradBuf strings.Builder
	for _, gid := range gridIDs {
		result := record.FinalResults[gid]
		if result.Driver != "gradient" {
			return fmt.Errorf("ジョブ種別 %q が不正です（gradient であるべき）", result.Driver)
		}
		mol := record.FinalMolecules[gid]
		title := fmt.Sprintf("Gradients for %s %s energy = %15.7f", job.Name, gid, record.FinalEnergies[gid])
		frame, err := xyz.GradientFrame(mol.Symbols, result.ReturnResult, title)
		if err != nil {
			return fmt.Errorf("グリッドポイント %s の勾配整形に失敗: %w", gid, err)
		}
		gradBuf.WriteString(frame)
	}
	if err := os.WriteFile(gradPath, []byte(gradBuf.String()), 0644); err != nil {
		return fmt.Errorf("勾配ファイルの書き込みに失敗: %w", err)
	}

	job.Status = models.StatusDownloaded
	job.SavedFile = relativeTo(xyzPath)
	return nil
}

// relativeTo はカレントディレクトリからの相対パスを返します（不可能なら原形）
func relativeTo(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}
