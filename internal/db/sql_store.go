package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/growpoint/internal/analytics"
	"github.com/soaringjerry/growpoint/internal/services"
)

// Dialect selects SQL flavour and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driver() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite3"
}

// Open connects to a relational backend and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// SQLStore implements the roster and feedback stores on sqlite or postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if dialect == DialectSQLite {
		for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL"} {
			if _, err := db.Exec(stmt); err != nil {
				return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
			}
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (s *SQLStore) FindEmployee(ctx context.Context, employeeID int) (*services.Employee, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT employee_id, department, employee_name, role FROM employees WHERE employee_id = ?`), employeeID)
	var (
		e          services.Employee
		dept, name sql.NullString
		role       string
	)
	if err := row.Scan(&e.EmployeeID, &dept, &name, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	e.Department, e.EmployeeName, e.Role = dept.String, name.String, services.ParseRole(role)
	return &e, nil
}

func (s *SQLStore) CountEmployees(ctx context.Context, department string) (int, error) {
	query, args := `SELECT COUNT(*) FROM employees`, []any{}
	if department != "" {
		query += ` WHERE lower(department) = lower(CAST(? AS TEXT))`
		args = append(args, department)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT department FROM employees WHERE department IS NOT NULL AND department <> '' ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertEmployee(ctx context.Context, e *services.Employee) error {
	role := e.Role
	if role == "" {
		role = services.RoleEmployee
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO employees (employee_id, department, employee_name, role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (employee_id) DO UPDATE SET department = excluded.department,
			employee_name = excluded.employee_name, role = excluded.role`),
		e.EmployeeID, toNullString(e.Department), toNullString(e.EmployeeName), string(role))
	if err != nil {
		return fmt.Errorf("upsert employee %d: %w", e.EmployeeID, err)
	}
	return nil
}

func (s *SQLStore) InsertFeedback(ctx context.Context, sub *services.Submission) error {
	responses, err := json.Marshal(sub.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	args := []any{
		sub.ID, sub.Department, toNullString(sub.UserDepartment), toNullInt(sub.EmployeeID),
		sub.Scores.EngagementScore, sub.Scores.CohesionScore, sub.Scores.FrictionLevel,
		toNullString(string(sub.TeamGoal)), sub.ResponseDate.UTC(), toNullString(sub.SessionID), string(responses),
	}
	for _, c := range sub.Comments {
		args = append(args, toNullString(c))
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO feedback (id, department, user_department, employee_id,
		engagement_score, cohesion_score, friction_level, team_goal, response_date, session_id, responses,
		verbal_q1, verbal_q2, verbal_q3, verbal_q4, verbal_q5, verbal_q6, verbal_q7)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *SQLStore) departmentFilter(base, department string) (string, []any) {
	if department == "" {
		return base + ` ORDER BY response_date, id`, nil
	}
	return base + ` WHERE lower(department) = lower(CAST(? AS TEXT)) ORDER BY response_date, id`, []any{department}
}

func (s *SQLStore) ListFeedback(ctx context.Context, department string) ([]analytics.FeedbackRecord, error) {
	query, args := s.departmentFilter(`SELECT id, department, employee_id, engagement_score, cohesion_score,
		friction_level, team_goal, response_date,
		verbal_q1, verbal_q2, verbal_q3, verbal_q4, verbal_q5, verbal_q6, verbal_q7 FROM feedback`, department)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []analytics.FeedbackRecord
	for rows.Next() {
		var (
			r                  analytics.FeedbackRecord
			employeeID         sql.NullInt64
			eng, coh, friction sql.NullFloat64
			goal               sql.NullString
			date               time.Time
			comments           [analytics.QuestionCount]sql.NullString
		)
		dest := []any{&r.ID, &r.Department, &employeeID, &eng, &coh, &friction, &goal, &date}
		for i := range comments {
			dest = append(dest, &comments[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		if employeeID.Valid {
			id := int(employeeID.Int64)
			r.EmployeeID = &id
		}
		// Null scores aggregate as zero.
		r.EngagementScore, r.CohesionScore, r.FrictionLevel = eng.Float64, coh.Float64, friction.Float64
		r.TeamGoal = analytics.TeamGoal(goal.String)
		r.ResponseDate = date.UTC()
		for i, c := range comments {
			r.Comments[i] = c.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListResponseSets(ctx context.Context, department string) ([]analytics.SurveyResponseSet, error) {
	query, args := s.departmentFilter(`SELECT responses FROM feedback`, department)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list response sets: %w", err)
	}
	defer rows.Close()

	var out []analytics.SurveyResponseSet
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan response set: %w", err)
		}
		if !raw.Valid || raw.String == "" {
			continue
		}
		set, err := decodeResponseSet([]byte(raw.String))
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

// decodeResponseSet reads the JSON object form {"0":4,"1":5,...}.
func decodeResponseSet(b []byte) (analytics.SurveyResponseSet, error) {
	var set analytics.SurveyResponseSet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("decode response set: %w", err)
	}
	return set, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
