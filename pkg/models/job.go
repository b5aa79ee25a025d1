package models

import "encoding/json"

// ジョブステータスはサーバ側の開かれた文字列列挙に、ローカルで定義する
// 終端ステータス DOWNLOADED を加えたもの。サーバの語彙は完全には既知で
// ないため、閉じた enum にはしない。
const (
	StatusIncomplete = "INCOMPLETE"
	StatusRunning    = "RUNNING"
	StatusComplete   = "COMPLETE"
	StatusError      = "ERROR"
	StatusDownloaded = "DOWNLOADED"
)

// Job はひとつのトーションドライブジョブのローカル状態を保持します
type Job struct {
	// Name は分子名と二面角キーを連結した一意な識別子
	Name string `json:"name"`

	// MolName はジョブが属する分子の識別子
	MolName string `json:"mol_name"`

	// ID はサーバ側のジョブID（未投入のジョブでは空）
	ID string `json:"id,omitempty"`

	// Status は現在のジョブステータス
	Status string `json:"status"`

	// Progress は完了した最適化ステップ数
	Progress int `json:"progress"`

	// Error は Status == ERROR のときのみ存在する診断情報
	Error json.RawMessage `json:"error,omitempty"`

	// SavedFile はダウンロード済み座標ファイルへの相対パス
	SavedFile string `json:"saved_file,omitempty"`

	// CanonicalTorsionLabel はデータセット投入ジョブの照合用ラベル
	CanonicalTorsionLabel string `json:"canonical_torsion_label,omitempty"`
}

// CountByStatus はジョブリストをステータスごとに集計します
func CountByStatus(jobs []*Job) map[string]int {
	counts := make(map[string]int)
	for _, job := range jobs {
		counts[job.Status]++
	}
	return counts
}

// ByID はサーバIDを持つジョブをIDで引けるようにインデックス化します
func ByID(jobs []*Job) map[string]*Job {
	indexed := make(map[string]*Job)
	for _, job := range jobs {
		if job.ID != "" {
			indexed[job.ID] = job
		}
	}
	return indexed
}
