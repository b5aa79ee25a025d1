// Package qcfractal はQCFractalサーバへの問い合わせクライアントを提供します。
// モニタ本体はこのパッケージの Client インターフェースのみに依存し、テストでは
// 缶詰レコードを返すダブルで置き換えられる。
package qcfractal

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Client はサーバへの問い合わせ能力を表すインターフェース
type Client interface {
	// GetCollection は名前付きコレクション（データセット）を型と名前で取得する
	GetCollection(ctx context.Context, collectionType, name string) (*Dataset, error)

	// QueryProcedures はプロシージャレコードをIDリストで一括取得する
	QueryProcedures(ctx context.Context, ids []string) ([]*ProcedureRecord, error)

	// QueryServices はサービスレコードをプロシージャIDリストと射影指定で
	// 一括取得する。トランスポート障害で失敗しうる。
	QueryServices(ctx context.Context, procedureIDs []string, projection []string) ([]*ServiceRecord, error)
}

// GridID はトーションスキャンのグリッドポイント識別子。ワイヤ上は
// "[-120]" のような角度タプルの文字列表現。
type GridID string

// Angles はグリッドIDを角度成分のリストにパースします
func (g GridID) Angles() []int {
	s := strings.Trim(string(g), "[]() ")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	angles := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			// "(120,)" のようなタプル表記の末尾カンマ
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		angles = append(angles, v)
	}
	if len(angles) == 0 {
		return nil
	}
	return angles
}

// Angle は最初の（主要な）角度成分を返します。1次元スキャンでは二面角そのもの。
func (g GridID) Angle() int {
	angles := g.Angles()
	if len(angles) == 0 {
		return 0
	}
	return angles[0]
}

// SortGridIDs はグリッドIDを角度成分の昇順（第一成分優先）に整列します
func SortGridIDs(ids []GridID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i].Angles(), ids[j].Angles()
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return ids[i] < ids[j]
	})
}

// SortedGridIDs はマップのキーを昇順に整列して返します
func SortedGridIDs[V any](m map[GridID]V) []GridID {
	ids := make([]GridID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	SortGridIDs(ids)
	return ids
}

// Molecule は最終構造。Geometry は原子座標のフラットな配列（Bohr単位、3N要素）。
type Molecule struct {
	Symbols  []string  `json:"symbols"`
	Geometry []float64 `json:"geometry"`
}

// ResultRecord はひとつのグリッドポイントの最終計算結果
type ResultRecord struct {
	ID           string    `json:"id"`
	Driver       string    `json:"driver"`
	ReturnResult []float64 `json:"return_result"`
}

// ProcedureRecord はトーションドライブのプロシージャ表現。完了・エラーの
// ジョブはこのレコード型で追跡される。
type ProcedureRecord struct {
	ID                  string                  `json:"id"`
	Status              string                  `json:"status"`
	OptimizationHistory map[GridID][]string     `json:"optimization_history"`
	FinalEnergies       map[GridID]float64      `json:"final_energies"`
	FinalMolecules      map[GridID]Molecule     `json:"final_molecules"`
	FinalResults        map[GridID]ResultRecord `json:"final_results"`
}

// Progress は記録済み最適化ステップ数（埋まったグリッドポイント数）を返します
func (r *ProcedureRecord) Progress() int {
	return len(r.OptimizationHistory)
}

// ServiceRecord は実行中ジョブのサービス表現。INCOMPLETE なジョブは
// プロシージャとは別のレコード型で追跡される。
type ServiceRecord struct {
	ProcedureID         string              `json:"procedure_id"`
	Status              string              `json:"status"`
	OptimizationHistory map[GridID][]string `json:"optimization_history"`
	Error               json.RawMessage     `json:"error,omitempty"`
}

// Progress は埋まったグリッドポイント数を返します
func (r *ServiceRecord) Progress() int {
	return len(r.OptimizationHistory)
}

// DatasetEntry はデータセット内のひとつのレコードハンドル
type DatasetEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Dataset は名前付きコレクションのステータスと、ラベル→レコードの表
type Dataset struct {
	Name    string                  `json:"name"`
	Status  string                  `json:"status"`
	Records map[string]DatasetEntry `json:"records"`
}
