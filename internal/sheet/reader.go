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
)

// input columns, in order
var InputHeaders = []string{
	"Store", "Weekday", "Period", "Arrivals/h", "Service time (s)",
	"Current PDVs", "Min PDVs", "Max PDVs", "Test PDVs",
	"SLA mean wait (min)", "SLA % served", "SLA max wait (min)", "Customers per PDV",
}

// ReadRows reads input rows from an .xlsx or .csv file, skipping header rows and blank lines.
// An empty sheet name selects the first worksheet.
func ReadRows(path string, sheet string, headerRows int) ([]config.RowSpec, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path, sheet)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", path)
	}
	if err != nil {
		return nil, err
	}
	if headerRows > len(records) {
		headerRows = len(records)
	}

	rows := make([]config.RowSpec, 0, len(records)-headerRows)
	for i, cells := range records[headerRows:] {
		if blank(cells) {
			continue
		}
		row, err := ParseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), headerRows+i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readWorkbook(path string, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found in %s", sheet, path)
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseRow converts the cells of one input line; missing or empty numeric cells are zero
func ParseRow(cells []string) (config.RowSpec, error) {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	var err error
	number := func(i int) float64 {
		s := strings.ReplaceAll(cell(i), ",", ".")
		if s == "" || err != nil {
			return 0
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			err = fmt.Errorf("column %q: invalid number %q", InputHeaders[i], cell(i))
		}
		return v
	}
	count := func(i int) int {
		v := number(i)
		if err == nil && (v < 0 || v != float64(int(v))) {
			err = fmt.Errorf("column %q: invalid PDV count %q", InputHeaders[i], cell(i))
		}
		return int(v)
	}

	row := config.RowSpec{
		Store:              cell(0),
		Weekday:            cell(1),
		Period:             cell(2),
		ArrivalRate:        number(3),
		ServiceTime:        number(4),
		Current:            count(5),
		Min:                count(6),
		Max:                count(7),
		Test:               count(8),
		SLAMeanWait:        number(9),
		SLAPercent:         number(10),
		SLAMaxWait:         number(11),
		CustomersPerServer: number(12),
	}
	return row, err
}
