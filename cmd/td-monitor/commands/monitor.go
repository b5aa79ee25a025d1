package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/td-monitor/pkg/checkpoint"
)

// RunAction は1回分の監視パスを実行するコマンドのアクション。
// 読み込み → 照合 → エラー記録 → ステータス表示 → 進捗表示 → 完了ジョブの
// ダウンロード、の固定順で処理する。継続監視はこのコマンドの再実行で行う。
func RunAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), cmd.String("client-config"))
	if err != nil {
		return err
	}

	mon, _, err := appCtx.loadMonitor(cmd.String("checkpoint"))
	if err != nil {
		return err
	}

	if err := mon.Reconcile(ctx); err != nil {
		return err
	}
	if err := mon.LogErrors(); err != nil {
		return err
	}
	mon.PrintStatus()
	mon.PrintProgress()

	return mon.DownloadComplete(ctx)
}

// StatusAction は照合とレポートのみを行う読み取り専用のアクション
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), cmd.String("client-config"))
	if err != nil {
		return err
	}

	mon, _, err := appCtx.loadMonitor(cmd.String("checkpoint"))
	if err != nil {
		return err
	}

	if err := mon.Reconcile(ctx); err != nil {
		return err
	}
	if err := mon.LogErrors(); err != nil {
		return err
	}
	mon.PrintStatus()
	mon.PrintProgress()

	return nil
}

// SyncDatasetAction はデータセット投入ジョブの id / status をサーバ上の
// コレクションから取り込み、チェックポイントファイルを更新するアクション
func SyncDatasetAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), cmd.String("client-config"))
	if err != nil {
		return err
	}

	checkpointFile := cmd.String("checkpoint")
	mon, state, err := appCtx.loadMonitor(checkpointFile)
	if err != nil {
		return err
	}

	appCtx.Logger.Info("ID付きジョブ数", "jobs", countWithID(mon.Jobs()))

	if err := mon.SyncFromDataset(ctx, cmd.String("dataset"), cmd.String("spec")); err != nil {
		return err
	}

	state.ApplyJobs(mon.Jobs())
	if err := checkpoint.Save(checkpointFile, state); err != nil {
		return err
	}

	fmt.Printf("✓ チェックポイント %s を更新しました\n", checkpointFile)
	mon.PrintStatus()

	return nil
}
