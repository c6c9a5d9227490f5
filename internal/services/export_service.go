package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

type ExportScope string

const (
	ExportDepartments ExportScope = "departments"
	ExportTrend       ExportScope = "trend"
	ExportWorkbook    ExportScope = "workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportParams struct {
	Scope      ExportScope
	Department string
	Bucket     analytics.Bucket
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders dashboard structures as files. It reads through the
// dashboard service and never alters what the dashboards show.
type ExportService struct {
	dash *DashboardService
}

func NewExportService(dash *DashboardService) *ExportService {
	return &ExportService{dash: dash}
}

func (s *ExportService) Export(ctx context.Context, caller Principal, params ExportParams) (*ExportResult, error) {
	if !caller.Role.Privileged() {
		return nil, NewForbiddenError("exports require HR or Admin")
	}
	scope := params.Scope
	if scope == "" {
		scope = ExportDepartments
	}
	department := strings.TrimSpace(params.Department)

	records, err := s.dash.feedback.ListFeedback(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	metrics := analytics.DepartmentMetrics(records)
	suffix := fileSuffix(department)

	switch scope {
	case ExportDepartments:
		b, err := DepartmentMetricsCSV(metrics)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "departments" + suffix + ".csv", ContentType: "text/csv", Data: b}, nil
	case ExportTrend:
		b, err := TrendCSV(analytics.EngagementTrend(records, params.Bucket))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "trend" + suffix + ".csv", ContentType: "text/csv", Data: b}, nil
	case ExportWorkbook:
		participation, _, err := s.dash.participationByDepartment(ctx, records, metrics)
		if err != nil {
			return nil, err
		}
		if department != "" {
			participation = filterParticipation(participation, department)
		}
		b, err := BuildWorkbook(WorkbookData{
			Departments:   metrics,
			Trend:         analytics.EngagementTrend(records, params.Bucket),
			Participation: participation,
		})
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "growpoint" + suffix + ".xlsx", ContentType: xlsxContentType, Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported export scope")
	}
}

func filterParticipation(in []DepartmentParticipation, department string) []DepartmentParticipation {
	out := in[:0]
	for _, p := range in {
		if strings.EqualFold(p.Department, department) {
			out = append(out, p)
		}
	}
	return out
}

func fileSuffix(department string) string {
	if department == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('-')
	for _, r := range strings.ToLower(department) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}
