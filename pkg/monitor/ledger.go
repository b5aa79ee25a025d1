package monitor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jinford/td-monitor/pkg/models"
)

// ダウンロード台帳のファイル名（出力フォルダ直下）
const ledgerFileName = "downloaded.json"

// LoadLedger はダウンロード台帳を読み込みます。ファイルが無い場合は
// 空の台帳として扱う。
func LoadLedger(path string) ([]*models.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ダウンロード台帳の読み込みに失敗: %w", err)
	}

	var entries []*models.Job
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ダウンロード台帳のパースに失敗: %w", err)
	}
	return entries, nil
}

// SaveLedger はダウンロード台帳を全量書き直します（追記ではない）
func SaveLedger(path string, entries []*models.Job) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("ダウンロード台帳のエンコードに失敗: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ダウンロード台帳の書き込みに失敗: %w", err)
	}
	return nil
}
