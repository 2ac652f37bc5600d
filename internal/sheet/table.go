package sheet

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/manager"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = cellStyle.Foreground(lipgloss.Color("9"))
)

// RenderTable renders a terminal summary: one line per row with the capacity chosen from each start
func RenderTable(results []*manager.RowResult) string {
	headers := []string{"#", "Row", "Arrivals/h", "Service (s)", "SLA"}
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		headers = append(headers, fmt.Sprintf("%s -> PDVs", s))
	}
	headers = append(headers, "Max arrivals/h")

	rows := make([][]string, 0, len(results)+1)
	failed := map[int]bool{}
	for i, r := range results {
		line := []string{
			strconv.Itoa(r.Index + 1),
			r.Row.Key(),
			strconv.FormatFloat(r.Row.ArrivalRate, 'f', -1, 64),
			strconv.FormatFloat(r.Row.ServiceTime, 'f', -1, 64),
			slaLabel(r),
		}
		for s := manager.StartCurrent; s < manager.NumStarts; s++ {
			line = append(line, capacityLabel(r, s))
		}
		if res := r.Result(manager.StartCurrent); res != nil {
			line = append(line, fmt.Sprintf("%.1f", res.MaxArrivalRate))
		} else {
			line = append(line, "-")
		}
		failed[i] = r.Failed()
		rows = append(rows, line)
	}

	total := []string{"", "total", "", "", ""}
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		total = append(total, strconv.Itoa(manager.TotalServers(results, s)))
	}
	rows = append(rows, append(total, ""))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case failed[row]:
				return failStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

func slaLabel(r *manager.RowResult) string {
	meanWait, maxWait := r.Row.SLAMeanWait, r.Row.SLAMaxWait
	switch r.SLA.Kind {
	case config.PercentServed:
		return fmt.Sprintf("%g%% <= %gm", r.Row.SLAPercent, maxWait)
	case config.ConditionalWait:
		return fmt.Sprintf("Wq|wait <= %gm", meanWait)
	default:
		return fmt.Sprintf("Wq <= %gm", meanWait)
	}
}

func capacityLabel(r *manager.RowResult, s manager.Start) string {
	res := r.Result(s)
	if res == nil {
		return "error"
	}
	label := strconv.Itoa(res.Servers)
	if !res.MeetsSLA {
		label += " !"
	}
	if res.Changed() {
		label += " *"
	}
	return label
}
