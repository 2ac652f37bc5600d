package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/squad-analytics/checkout-capacity/pkg/config"
	"github.com/squad-analytics/checkout-capacity/pkg/manager"
	"github.com/squad-analytics/checkout-capacity/pkg/solver"
)

const OutputSheet = "Sizing"

// result columns repeated for each starting column
var resultHeaders = []string{
	"PDVs required", "Status", "Meets SLA", "SLA metric", "Iterations",
	"Avg wait (min)", "Avg wait given wait (min)", "Avg queue given wait", "Avg system size",
	"Utilization", "P(wait > SLA)", "Max arrivals/h", "Notes",
}

// Headers returns the output columns: the input columns followed by the results of each start
func Headers() []string {
	headers := append([]string(nil), InputHeaders...)
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		for _, h := range resultHeaders {
			headers = append(headers, fmt.Sprintf("%s [%s]", h, s))
		}
	}
	return headers
}

// Values returns the output cells of one row; numeric cells are float64 or int
func Values(r *manager.RowResult) []interface{} {
	row := r.Row
	values := []interface{}{
		row.Store, row.Weekday, row.Period, row.ArrivalRate, row.ServiceTime,
		row.Current, row.Min, row.Max, row.Test,
		row.SLAMeanWait, row.SLAPercent, row.SLAMaxWait, row.CustomersPerServer,
	}
	for s := manager.StartCurrent; s < manager.NumStarts; s++ {
		values = append(values, resultValues(r, s)...)
	}
	return values
}

func resultValues(r *manager.RowResult, s manager.Start) []interface{} {
	values := make([]interface{}, len(resultHeaders))
	for i := range values {
		values[i] = ""
	}
	res := r.Result(s)
	if res == nil {
		err := r.Err
		if err == nil {
			err = r.Errors[s]
		}
		if err != nil {
			values[len(values)-1] = err.Error()
		}
		return values
	}

	notes := append([]string(nil), res.Warnings...)
	if r.Errors[s] != nil && len(notes) == 0 {
		notes = append(notes, r.Errors[s].Error())
	}
	report := res.Report
	copy(values, []interface{}{
		res.Servers,
		res.Status.String(),
		res.MeetsSLA,
		metricValue(r.SLA.Kind, res),
		res.Iterations,
		toMinutes(report.AvgWaitTime),
		toMinutes(report.AvgWaitTimeGivenWait),
		report.AvgQueueGivenWait,
		report.AvgSystemSize,
		report.Rho,
		res.SLATailProb,
		res.MaxArrivalRate,
		strings.Join(notes, "; "),
	})
	return values
}

// SLA metric in the unit of the input: minutes for wait kinds, percent otherwise
func metricValue(kind config.SLAKind, res *solver.CapacityResult) float64 {
	if kind == config.PercentServed {
		return res.Metric
	}
	return toMinutes(res.Metric)
}

func toMinutes(hours float64) float64 {
	return hours * config.MinutesPerHour
}

// WriteResults writes the results to an .xlsx or .csv file
func WriteResults(path string, results []*manager.RowResult) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeWorkbook(path, results)
	case ".csv":
		return writeCSV(path, results)
	default:
		return fmt.Errorf("unsupported output format %q", path)
	}
}

func writeWorkbook(path string, results []*manager.RowResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), OutputSheet); err != nil {
		return err
	}
	headers := Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(OutputSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := Values(r)
		if err := f.SetSheetRow(OutputSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := f.SetPanes(OutputSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, results []*manager.RowResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(Headers()); err != nil {
		return err
	}
	for _, r := range results {
		values := Values(r)
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = format(v)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func format(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
