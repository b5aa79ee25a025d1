package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/jinford/td-monitor/pkg/models"
)

// 既知ステータスの表示順。未知の値はこの後ろにアルファベット順で並ぶ。
var statusDisplayOrder = []string{
	models.StatusIncomplete,
	models.StatusRunning,
	models.StatusComplete,
	models.StatusError,
	models.StatusDownloaded,
}

// PrintStatus はステータスごとのジョブ数を1行のテーブルで表示します
func (m *Monitor) PrintStatus() {
	counts := models.CountByStatus(m.jobs)
	statuses := orderedStatuses(counts)

	fmt.Println("< 現在のステータス >")

	header := make([]any, 0, len(statuses))
	row := make([]any, 0, len(statuses))
	for _, status := range statuses {
		header = append(header, status)
		row = append(row, fmt.Sprintf("%d", counts[status]))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(header...)
	table.Append(row...)
	table.Render()
}

// PrintProgress は進捗のヒストグラムを表示します。観測された最大進捗を
// 6等分したビン幅（ただし最低1）で区切り、各範囲のジョブ数と割合を出す。
func (m *Monitor) PrintProgress() {
	total := len(m.jobs)
	fmt.Printf("< 全 %d ジョブの進捗 >\n", total)
	if total == 0 {
		return
	}

	maxProgress := 0
	for _, job := range m.jobs {
		if job.Progress > maxProgress {
			maxProgress = job.Progress
		}
	}

	binWidth := maxProgress / 6
	if binWidth < 1 {
		binWidth = 1
	}

	edges := []int{0}
	for v := binWidth; v < maxProgress+binWidth; v += binWidth {
		edges = append(edges, v)
	}
	if len(edges) < 2 {
		edges = append(edges, binWidth)
	}
	nBins := len(edges) - 1

	histogram := make([]int, nBins)
	for _, job := range m.jobs {
		bin := job.Progress / binWidth
		if bin >= nBins {
			// 最後のビンは上端を含む
			bin = nBins - 1
		}
		histogram[bin]++
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("進捗範囲", "ジョブ数", "割合")
	for i, count := range histogram {
		binStart := edges[i]
		binEnd := binStart + binWidth - 1
		if i == nBins-1 {
			binEnd = edges[nBins]
		}
		table.Append(
			fmt.Sprintf("%d--%d", binStart, binEnd),
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%.2f %%", float64(count)/float64(total)*100),
		)
	}
	table.Render()
}

// LogErrors は ERROR ステータスのジョブ全件をJSONファイルに書き出します。
// 既存の内容は上書きされ、エラージョブが無ければ何もしない。
func (m *Monitor) LogErrors() error {
	var errorJobs []*models.Job
	for _, job := range m.jobs {
		if job.Status == models.StatusError {
			errorJobs = append(errorJobs, job)
		}
	}
	if len(errorJobs) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(errorJobs, "", "  ")
	if err != nil {
		return fmt.Errorf("エラージョブのエンコードに失敗: %w", err)
	}
	if err := os.WriteFile(m.errorLog, data, 0644); err != nil {
		return fmt.Errorf("エラーログの書き込みに失敗: %w", err)
	}

	fmt.Printf("%d 件のエラージョブを %s に記録しました\n", len(errorJobs), m.errorLog)
	return nil
}

// orderedStatuses は既知ステータスを定義順、未知ステータスを名前順で返します
func orderedStatuses(counts map[string]int) []string {
	known := make(map[string]bool, len(statusDisplayOrder))
	var ordered []string
	for _, status := range statusDisplayOrder {
		known[status] = true
		if counts[status] > 0 {
			ordered = append(ordered, status)
		}
	}

	var others []string
	for status := range counts {
		if !known[status] {
			others = append(others, status)
		}
	}
	sort.Strings(others)

	return append(ordered, others...)
}
