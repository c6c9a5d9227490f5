package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

func TestDepartmentMetricsCSV(t *testing.T) {
	b, err := DepartmentMetricsCSV([]analytics.DepartmentMetric{
		{Department: "Eng", ResponseCount: 2, EmployeeCount: 2, AvgEngagement: 3, AvgCohesion: 3, AvgFriction: 2.5, EngagementStdDev: 1},
		{Department: "Sales, EMEA", ResponseCount: 1, EmployeeCount: 1, AvgEngagement: 1, AvgCohesion: 1, AvgFriction: 4},
	})
	if err != nil {
		t.Fatalf("DepartmentMetricsCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(lines))
	}
	if lines[0] != "department,responses,employees,avg_engagement,avg_cohesion,avg_friction,engagement_stddev,classification" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "Eng,2,2,3,3,2.5,1.00,At Risk" {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], `"Sales, EMEA",`) || !strings.HasSuffix(lines[2], "Needs Attention") {
		t.Fatalf("unexpected quoted row %q", lines[2])
	}
}

func TestTrendCSVEmpty(t *testing.T) {
	b, err := TrendCSV(nil)
	if err != nil {
		t.Fatalf("TrendCSV returned error: %v", err)
	}
	if strings.TrimSpace(string(b)) != "bucket,label,responses,engagement,cohesion,friction" {
		t.Fatalf("expected header only, got %q", b)
	}
}

func TestBuildWorkbook(t *testing.T) {
	data := WorkbookData{
		Departments: []analytics.DepartmentMetric{{Department: "Eng", ResponseCount: 2, AvgEngagement: 3.5}},
		Trend:       []analytics.TrendPoint{{Key: "2024-01", Label: "Jan 2024", Engagement: 3.5, Responses: 2}},
		Participation: []DepartmentParticipation{{
			Department: "Eng", RosterSize: 4,
			Participation: analytics.Participation([]analytics.FeedbackRecord{{EmployeeID: intPtr(1)}}, 4),
		}},
	}
	b, err := BuildWorkbook(data)
	if err != nil {
		t.Fatalf("BuildWorkbook returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if strings.Join(sheets, ",") != "Departments,Trend,Participation" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SheetParticipation)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Eng" || rows[1][2] != "1" || rows[1][3] != "25" {
		t.Fatalf("unexpected participation rows %v", rows)
	}
	trend, _ := f.GetRows(SheetTrend)
	if trend[1][1] != "Jan 2024" || trend[1][3] != "3.5" {
		t.Fatalf("unexpected trend rows %v", trend)
	}
}
