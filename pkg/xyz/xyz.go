// Package xyz は複数フレームのXYZ形式テキストを組み立てます。
package xyz

import (
	"fmt"
	"strings"
)

// 単位換算係数
const (
	// BohrToAngstrom は原子単位の座標をÅに換算する係数
	BohrToAngstrom = 0.529177

	// HartreeToKcalMol はHartreeのエネルギーを kcal/mol に換算する係数
	HartreeToKcalMol = 627.509
)

// CoordinateFrame はひとつのグリッドポイントの座標ブロックを組み立てます。
// 入力座標はBohr単位のフラット配列（3N要素）で、Åに換算して固定幅で出力する。
func CoordinateFrame(symbols []string, geometryBohr []float64, title string) (string, error) {
	angstrom := make([]float64, len(geometryBohr))
	for i, v := range geometryBohr {
		angstrom[i] = v * BohrToAngstrom
	}
	return frame(symbols, angstrom, title, "%13.7f")
}

// GradientFrame はひとつのグリッドポイントの勾配ブロックを組み立てます。
// 座標ブロックと同じ構造で、各原子行は勾配ベクトルを指数表記で持つ。
func GradientFrame(symbols []string, gradient []float64, title string) (string, error) {
	return frame(symbols, gradient, title, "%13.5e")
}

func frame(symbols []string, values []float64, title, verb string) (string, error) {
	if len(values) != 3*len(symbols) {
		return "", fmt.Errorf("原子数 %d に対して成分数 %d が一致しません", len(symbols), len(values))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", len(symbols), title)
	lineFormat := "%-7s " + verb + " " + verb + " " + verb + "\n"
	for i, elem := range symbols {
		fmt.Fprintf(&b, lineFormat, elem, values[3*i], values[3*i+1], values[3*i+2])
	}
	return b.String(), nil
}
