package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

// Workbook sheet names.
const (
	SheetDepartments   = "Departments"
	SheetTrend         = "Trend"
	SheetParticipation = "Participation"
)

var (
	departmentHeader    = []string{"department", "responses", "employees", "avg_engagement", "avg_cohesion", "avg_friction", "engagement_stddev", "classification"}
	trendHeader         = []string{"bucket", "label", "responses", "engagement", "cohesion", "friction"}
	participationHeader = []string{"department", "roster_size", "responded", "responded_pct", "not_responded", "not_responded_pct"}
)

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func departmentRow(m analytics.DepartmentMetric) []string {
	return []string{
		m.Department,
		strconv.Itoa(m.ResponseCount),
		strconv.Itoa(m.EmployeeCount),
		ftoa(m.AvgEngagement),
		ftoa(m.AvgCohesion),
		ftoa(m.AvgFriction),
		strconv.FormatFloat(m.EngagementStdDev, 'f', 2, 64),
		string(analytics.FrictionClassification(m.AvgFriction)),
	}
}

func trendRow(p analytics.TrendPoint) []string {
	return []string{p.Key, p.Label, strconv.Itoa(p.Responses), ftoa(p.Engagement), ftoa(p.Cohesion), ftoa(p.Friction)}
}

func participationRow(p DepartmentParticipation) []string {
	r, n := p.Participation.Responded(), p.Participation.NotResponded()
	return []string{p.Department, strconv.Itoa(p.RosterSize), strconv.Itoa(r.Count), strconv.Itoa(r.Percent), strconv.Itoa(n.Count), strconv.Itoa(n.Percent)}
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DepartmentMetricsCSV renders one row per department.
func DepartmentMetricsCSV(metrics []analytics.DepartmentMetric) ([]byte, error) {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, departmentRow(m))
	}
	return writeCSV(departmentHeader, rows)
}

// TrendCSV renders one row per time bucket.
func TrendCSV(points []analytics.TrendPoint) ([]byte, error) {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, trendRow(p))
	}
	return writeCSV(trendHeader, rows)
}

// WorkbookData is everything the XLSX export renders.
type WorkbookData struct {
	Departments   []analytics.DepartmentMetric
	Trend         []analytics.TrendPoint
	Participation []DepartmentParticipation
}

// BuildWorkbook renders the three export sheets into an XLSX document.
func BuildWorkbook(data WorkbookData) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetDepartments); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTrend, SheetParticipation} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	deptRows := make([][]string, 0, len(data.Departments))
	for _, m := range data.Departments {
		deptRows = append(deptRows, departmentRow(m))
	}
	trendRows := make([][]string, 0, len(data.Trend))
	for _, p := range data.Trend {
		trendRows = append(trendRows, trendRow(p))
	}
	partRows := make([][]string, 0, len(data.Participation))
	for _, p := range data.Participation {
		partRows = append(partRows, participationRow(p))
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{SheetDepartments, departmentHeader, deptRows},
		{SheetTrend, trendHeader, trendRows},
		{SheetParticipation, participationHeader, partRows},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	all := append([][]string{header}, rows...)
	for i, rec := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(rec))
		for j, v := range rec {
			// Keep numbers numeric so spreadsheet formulas work on them.
			if i > 0 {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					values[j] = n
					continue
				}
			}
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
