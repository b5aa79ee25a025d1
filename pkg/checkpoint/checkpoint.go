// Package checkpoint は投入ツールが書き出すチェックポイントファイルを読み書きします。
// ファイルは分子ソースファイル名をキーとし、各分子の二面角スキャン定義を持つ
// JSONマップ。予約キー scan_conf はスキャン設定のメタデータで、ジョブ展開の
// 対象外。
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jinford/td-monitor/pkg/models"
)

// 予約キー。スキャン設定が入っており、分子エントリではない。
const scanConfKey = "scan_conf"

// DihedralEntry はチェックポイント内のひとつの二面角スキャン定義。
// ファイルは投入ツールが所有するため、モニタが関知しないフィールド
// （dihedral 原子インデックスや grid_spacing など）もそのまま保持し、
// 書き戻し時に失わない。
type DihedralEntry struct {
	Status                string
	JobID                 string
	CanonicalTorsionLabel string

	extra map[string]json.RawMessage
}

// UnmarshalJSON は既知フィールドを取り出し、残りを extra に退避します。
// jobid は投入ツールによって文字列でも数値でも書かれうるため両方を受ける。
func (e *DihedralEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["status"]; ok {
		if err := json.Unmarshal(v, &e.Status); err != nil {
			return fmt.Errorf("status のパースに失敗: %w", err)
		}
		delete(raw, "status")
	}
	if v, ok := raw["jobid"]; ok {
		if err := json.Unmarshal(v, &e.JobID); err != nil {
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("jobid のパースに失敗: %w", err)
			}
			e.JobID = n.String()
		}
		delete(raw, "jobid")
	}
	if v, ok := raw["canonical_torsion_label"]; ok {
		if err := json.Unmarshal(v, &e.CanonicalTorsionLabel); err != nil {
			return fmt.Errorf("canonical_torsion_label のパースに失敗: %w", err)
		}
		delete(raw, "canonical_torsion_label")
	}
	if len(raw) > 0 {
		e.extra = raw
	}

	return nil
}

// MarshalJSON は extra に退避した未知フィールドを既知フィールドとマージして
// 書き戻します
func (e *DihedralEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.extra)+3)
	for k, v := range e.extra {
		out[k] = v
	}

	status, err := json.Marshal(e.Status)
	if err != nil {
		return nil, err
	}
	out["status"] = status
	if e.JobID != "" {
		id, err := json.Marshal(e.JobID)
		if err != nil {
			return nil, err
		}
		out["jobid"] = id
	}
	if e.CanonicalTorsionLabel != "" {
		label, err := json.Marshal(e.CanonicalTorsionLabel)
		if err != nil {
			return nil, err
		}
		out["canonical_torsion_label"] = label
	}

	return json.Marshal(out)
}

// MoleculeEntry はひとつの分子ソースファイルに属するスキャン定義の集合。
// DihedralEntry と同じく未知フィールドを保持する。
type MoleculeEntry struct {
	Dihedrals map[string]*DihedralEntry

	extra map[string]json.RawMessage
}

func (m *MoleculeEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["dihedrals"]; ok {
		if err := json.Unmarshal(v, &m.Dihedrals); err != nil {
			return fmt.Errorf("dihedrals のパースに失敗: %w", err)
		}
		delete(raw, "dihedrals")
	}
	if len(raw) > 0 {
		m.extra = raw
	}

	return nil
}

func (m *MoleculeEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.extra)+1)
	for k, v := range m.extra {
		out[k] = v
	}

	dihedrals, err := json.Marshal(m.Dihedrals)
	if err != nil {
		return nil, err
	}
	out["dihedrals"] = dihedrals

	return json.Marshal(out)
}

// State はチェックポイントファイル全体の構造
type State struct {
	// Molecules は分子ソースファイル名 → スキャン定義の集合
	Molecules map[string]*MoleculeEntry

	// ScanConf は予約キー scan_conf の内容（そのまま保持して書き戻す）
	ScanConf json.RawMessage
}

// Load はチェックポイントファイルをパースします
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("チェックポイントファイルの読み込みに失敗: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("チェックポイントファイルのパースに失敗: %w", err)
	}

	state := &State{Molecules: make(map[string]*MoleculeEntry)}
	for fname, entry := range raw {
		if fname == scanConfKey {
			state.ScanConf = entry
			continue
		}
		var mol MoleculeEntry
		if err := json.Unmarshal(entry, &mol); err != nil {
			return nil, fmt.Errorf("分子エントリ %s のパースに失敗: %w", fname, err)
		}
		state.Molecules[fname] = &mol
	}

	return state, nil
}

// Save はチェックポイントファイルを書き戻します
func Save(path string, state *State) error {
	raw := make(map[string]json.RawMessage, len(state.Molecules)+1)
	for fname, mol := range state.Molecules {
		data, err := json.Marshal(mol)
		if err != nil {
			return fmt.Errorf("分子エントリ %s のエンコードに失敗: %w", fname, err)
		}
		raw[fname] = data
	}
	if state.ScanConf != nil {
		raw[scanConfKey] = state.ScanConf
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("チェックポイントのエンコードに失敗: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("チェックポイントの書き込みに失敗: %w", err)
	}
	return nil
}

// Jobs は全ての (分子, 二面角) ペアをフラットなジョブレコードに展開します。
// ジョブ名は分子名と二面角キーの連結。分子名はソースファイル名から拡張子を
// 除いたもの。
func (s *State) Jobs() []*models.Job {
	fnames := make([]string, 0, len(s.Molecules))
	for fname := range s.Molecules {
		fnames = append(fnames, fname)
	}
	sort.Strings(fnames)

	var jobs []*models.Job
	for _, fname := range fnames {
		molName := MolName(fname)
		mol := s.Molecules[fname]

		dkeys := make([]string, 0, len(mol.Dihedrals))
		for d := range mol.Dihedrals {
			dkeys = append(dkeys, d)
		}
		sort.Strings(dkeys)

		for _, d := range dkeys {
			entry := mol.Dihedrals[d]
			jobs = append(jobs, &models.Job{
				Name:                  molName + "_" + d,
				MolName:               molName,
				ID:                    entry.JobID,
				Status:                entry.Status,
				CanonicalTorsionLabel: entry.CanonicalTorsionLabel,
			})
		}
	}
	return jobs
}

// ApplyJobs はメモリ上のジョブレコードの id / status を対応する二面角
// エントリへ書き戻します。データセット同期後のチェックポイント更新に使用。
func (s *State) ApplyJobs(jobs []*models.Job) {
	byName := make(map[string]*models.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name] = job
	}

	for fname, mol := range s.Molecules {
		molName := MolName(fname)
		for d, entry := range mol.Dihedrals {
			job, ok := byName[molName+"_"+d]
			if !ok {
				continue
			}
			entry.JobID = job.ID
			entry.Status = job.Status
		}
	}
}

// MolName はソースファイル名から分子名を導出します（basename から拡張子を除去）
func MolName(fname string) string {
	base := filepath.Base(fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
