package commands

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jinford/td-monitor/internal/platform/config"
	"github.com/jinford/td-monitor/internal/platform/logger"
	"github.com/jinford/td-monitor/pkg/checkpoint"
	"github.com/jinford/td-monitor/pkg/models"
	"github.com/jinford/td-monitor/pkg/monitor"
	"github.com/jinford/td-monitor/pkg/qcfractal"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config *config.Config
	Client qcfractal.Client
	Logger *slog.Logger
	RunID  string
}

// NewAppContext は設定とクライアント設定を読み込み AppContext を作成する
func NewAppContext(envFile, clientConfigFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	runID := uuid.NewString()
	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	}).With("run_id", runID)

	client, err := qcfractal.FromFile(clientConfigFile)
	if err != nil {
		return nil, err
	}

	return &AppContext{
		Config: cfg,
		Client: client,
		Logger: appLogger,
		RunID:  runID,
	}, nil
}

// loadMonitor はチェックポイントを読み込み、ジョブリストを所有する
// Monitor を構築する。読み込んだ件数と初期ステータス分布を表示する。
func (ac *AppContext) loadMonitor(checkpointFile string) (*monitor.Monitor, *checkpoint.State, error) {
	state, err := checkpoint.Load(checkpointFile)
	if err != nil {
		return nil, nil, err
	}

	jobs := state.Jobs()
	fmt.Printf("%d 件のジョブを %s から読み込みました\n", len(jobs), checkpointFile)

	mon := monitor.New(jobs, ac.Client, ac.Config.OutFolder, ac.Config.ErrorLogFile, ac.Logger)
	mon.PrintStatus()

	return mon, state, nil
}

// countWithID はサーバIDを持つジョブ数を返す（ログ用）
func countWithID(jobs []*models.Job) int {
	n := 0
	for _, job := range jobs {
		if job.ID != "" {
			n++
		}
	}
	return n
}
