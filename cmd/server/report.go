package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/growpoint/internal/analytics"
	"github.com/soaringjerry/growpoint/internal/services"
)

var (
	healthyColor   = color.New(color.FgGreen)
	atRiskColor    = color.New(color.FgYellow)
	attentionColor = color.New(color.FgRed, color.Bold)
)

// reportCaller is the identity the CLI reads dashboards as.
var reportCaller = services.Principal{Name: "growpoint-cli", Role: services.RoleAdmin}

func newReportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the organisation dashboard as tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore(cmd.Context()) }()

			dash := services.NewDashboardService(store, store, log.WithField("component", "report"))
			d, err := dash.Admin(cmd.Context(), reportCaller)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), d)
		},
	}
}

func riskLabel(level analytics.RiskLevel) string {
	switch level {
	case analytics.Healthy:
		return healthyColor.Sprint(string(level))
	case analytics.AtRisk:
		return atRiskColor.Sprint(string(level))
	default:
		return attentionColor.Sprint(string(level))
	}
}

func f1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func writeReport(w io.Writer, d *services.AdminDashboard) error {
	if !d.HasData {
		_, err := fmt.Fprintf(w, "No survey responses yet (%d employees on the roster).\n", d.RosterTotal)
		return err
	}

	if _, err := fmt.Fprintf(w, "Responses: %d  Engagement: %s  Cohesion: %s  Friction: %s  %s\n",
		d.ResponseCount, f1(d.Overall.AvgEngagement), f1(d.Overall.AvgCohesion), f1(d.Overall.AvgFriction),
		riskLabel(analytics.FrictionClassification(d.Overall.AvgFriction))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "High-risk departments: %d  Reliability: alpha=%.2f (n=%d)\n\n",
		d.HighRiskCount, d.Reliability.Alpha, d.Reliability.N); err != nil {
		return err
	}

	depts := tablewriter.NewWriter(w)
	depts.Header([]string{"Department", "Responses", "Employees", "Engagement", "Cohesion", "Friction", "Risk"})
	depts.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var rows [][]string
	for _, m := range d.Departments {
		rows = append(rows, []string{
			m.Department,
			strconv.Itoa(m.ResponseCount),
			strconv.Itoa(m.EmployeeCount),
			f1(m.AvgEngagement),
			f1(m.AvgCohesion),
			f1(m.AvgFriction),
			riskLabel(analytics.FrictionClassification(m.AvgFriction)),
		})
	}
	if err := depts.Bulk(rows); err != nil {
		return err
	}
	if err := depts.Render(); err != nil {
		return err
	}

	if len(d.Participation) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	part := tablewriter.NewWriter(w)
	part.Header([]string{"Department", "Roster", "Responded", "Not Responded", "Rate"})
	rows = rows[:0]
	for _, p := range d.Participation {
		rows = append(rows, []string{
			p.Department,
			strconv.Itoa(p.RosterSize),
			strconv.Itoa(p.Participation.Responded().Count),
			strconv.Itoa(p.Participation.NotResponded().Count),
			strconv.Itoa(p.Participation.Responded().Percent) + "%",
		})
	}
	if err := part.Bulk(rows); err != nil {
		return err
	}
	return part.Render()
}
