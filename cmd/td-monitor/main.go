package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinford/td-monitor/cmd/td-monitor/commands"
	"github.com/jinford/td-monitor/internal/platform/logger"
	"github.com/urfave/cli/v3"
)

// 各サブコマンド共通のフラグ
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "env",
			Usage: "環境変数ファイルパス",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:    "checkpoint",
			Aliases: []string{"f"},
			Usage:   "投入ツールが書き出したチェックポイントファイル",
			Value:   "torsion_submit_checkpoint.json",
		},
		&cli.StringFlag{
			Name:    "client-config",
			Aliases: []string{"c"},
			Usage:   "QCFractalクライアントの設定ファイル",
			Value:   "client_config.yaml",
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定（AppContext 構築前の早期ログ用）
	logger.New(logger.DefaultConfig())

	app := &cli.Command{
		Name:  "td-monitor",
		Usage: "トーションドライブジョブの監視と結果ダウンロード",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "状態を照合し、完了ジョブの結果をダウンロード",
				Flags:  commonFlags(),
				Action: commands.RunAction,
			},
			{
				Name:   "status",
				Usage:  "状態の照合とレポート表示のみ（ダウンロードなし）",
				Flags:  commonFlags(),
				Action: commands.StatusAction,
			},
			{
				Name:  "sync-dataset",
				Usage: "データセット投入ジョブのIDとステータスをサーバから取り込む",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "dataset",
						Usage:    "サーバ上のTorsionDriveDataset名",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "spec",
						Usage: "参照するQMスペック名",
						Value: "default",
					},
				),
				Action: commands.SyncDatasetAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
