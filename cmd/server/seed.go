package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/growpoint/internal/services"
)

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "seed <roster.csv|roster.xlsx>",
		Short: "Import or update the employee roster",
		Long: `Reads a roster with the columns employee_id, department, employee_name and role.
Existing employees are updated in place. Role defaults to Employee.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRosterFile(args[0], sheet)
			if err != nil {
				return err
			}
			employees, err := parseRoster(rows)
			if err != nil {
				return err
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore(cmd.Context()) }()

			for _, e := range employees {
				if err := store.UpsertEmployee(cmd.Context(), e); err != nil {
					return err
				}
			}
			log.WithField("count", len(employees)).WithField("file", args[0]).Info("roster imported")
			cmd.Printf("imported %d employees\n", len(employees))
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read from an xlsx roster (default first sheet)")
	return cmd
}

func readRosterFile(path, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer func() { _ = f.Close() }()
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		return rows, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return readRosterCSV(f)
	}
}

func readRosterCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

var rosterColumns = map[string]string{
	"employee_id":   "id",
	"employeeid":    "id",
	"id":            "id",
	"department":    "department",
	"employee_name": "name",
	"employeename":  "name",
	"name":          "name",
	"role":          "role",
}

// parseRoster maps a header row plus data rows onto employees. Blank rows are
// skipped; any other malformed row fails the whole import.
func parseRoster(rows [][]string) ([]*services.Employee, error) {
	if len(rows) == 0 {
		return nil, errors.New("roster is empty")
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := rosterColumns[key]; ok {
			index[col] = i
		}
	}
	if _, ok := index["id"]; !ok {
		return nil, errors.New("roster header needs an employee_id column")
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	seen := map[int]int{}
	var out []*services.Employee
	for n, row := range rows[1:] {
		line := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		id, err := strconv.Atoi(cell(row, "id"))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("line %d: invalid employee_id %q", line, cell(row, "id"))
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("line %d: employee_id %d already on line %d", line, id, prev)
		}
		seen[id] = line
		out = append(out, &services.Employee{
			EmployeeID:   id,
			Department:   cell(row, "department"),
			EmployeeName: cell(row, "name"),
			Role:         services.ParseRole(cell(row, "role")),
		})
	}
	return out, nil
}
