// Package config はモニタの実行時設定を環境変数から読み込みます。
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// OutFolder は結果ファイルを書き出すルートフォルダ
	OutFolder string

	// ErrorLogFile はエラージョブのスナップショットを書き出すファイル名
	ErrorLogFile string

	// LogLevel はログレベル ("debug" / "info" / "warn" / "error")
	LogLevel string

	// LogFormat はログ形式 ("json" / "text")
	LogFormat string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
			}
		}
	}

	cfg := &Config{
		OutFolder:    getEnv("TDMON_OUT_FOLDER", "td_results"),
		ErrorLogFile: getEnv("TDMON_ERROR_LOG", "monitor_error_jobs.json"),
		LogLevel:     getEnv("TDMON_LOG_LEVEL", "info"),
		LogFormat:    getEnv("TDMON_LOG_FORMAT", "text"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
