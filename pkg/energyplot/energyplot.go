// Package energyplot はトーションスキャンのエネルギープロファイルを描画します。
package energyplot

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jinford/td-monitor/pkg/qcfractal"
	"github.com/jinford/td-monitor/pkg/xyz"
)

// Energies1D はエネルギー vs 二面角のプロットをPDFとして保存します。
// 縦軸はスキャン最小値を基準とした相対エネルギー（kcal/mol）、横軸は
// 二面角（度）。エネルギーが空の場合はファイルを作らず正常終了する。
func Energies1D(energies map[qcfractal.GridID]float64, path, title string) error {
	if len(energies) == 0 {
		slog.Info("エネルギーが空のためプロットをスキップします", "path", path)
		return nil
	}

	gridIDs := qcfractal.SortedGridIDs(energies)

	values := make([]float64, 0, len(gridIDs))
	for _, gid := range gridIDs {
		values = append(values, energies[gid])
	}
	minEnergy := floats.Min(values)

	points := make(plotter.XYs, len(gridIDs))
	for i, gid := range gridIDs {
		points[i].X = float64(gid.Angle())
		points[i].Y = (energies[gid] - minEnergy) * xyz.HartreeToKcalMol
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Dihedral Angle [degrees]"
	p.Y.Label.Text = "Relative Energies [kcal/mol]"
	p.Add(plotter.NewGrid())

	line, markers, err := plotter.NewLinePoints(points)
	if err != nil {
		return fmt.Errorf("プロットデータの作成に失敗: %w", err)
	}
	p.Add(line, markers)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("プロットの保存に失敗: %w", err)
	}
	return nil
}
