package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soaringjerry/growpoint/internal/analytics"
	"github.com/soaringjerry/growpoint/internal/services"
)

const (
	employeesCollection = "employees"
	feedbackCollection  = "feedback"
)

// MongoStore keeps the roster and feedback as documents. department_key holds
// the lower-cased department for case-insensitive filters.
type MongoStore struct {
	client    *mongo.Client
	employees *mongo.Collection
	feedback  *mongo.Collection
}

type employeeDoc struct {
	EmployeeID    int    `bson:"employee_id"`
	Department    string `bson:"department,omitempty"`
	DepartmentKey string `bson:"department_key,omitempty"`
	EmployeeName  string `bson:"employee_name,omitempty"`
	Role          string `bson:"role"`
}

type feedbackDoc struct {
	ID              string         `bson:"_id"`
	Department      string         `bson:"department"`
	DepartmentKey   string         `bson:"department_key"`
	UserDepartment  string         `bson:"user_department,omitempty"`
	EmployeeID      *int           `bson:"employee_id,omitempty"`
	EngagementScore *float64       `bson:"engagement_score"`
	CohesionScore   *float64       `bson:"cohesion_score"`
	FrictionLevel   *float64       `bson:"friction_level"`
	TeamGoal        string         `bson:"team_goal,omitempty"`
	ResponseDate    time.Time      `bson:"response_date"`
	SessionID       string         `bson:"session_id,omitempty"`
	Responses       map[string]int `bson:"responses,omitempty"`
	Comments        []string       `bson:"verbal_comments,omitempty"`
}

// ConnectMongo dials uri, pings it and ensures indexes on database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	s := &MongoStore{client: client, employees: db.Collection(employeesCollection), feedback: db.Collection(feedbackCollection)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes is the document-store counterpart of RunMigrations.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.employees.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employee_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "department_key", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create employee indexes: %w", err)
	}
	if _, err := s.feedback.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "department_key", Value: 1}, {Key: "response_date", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create feedback indexes: %w", err)
	}
	return nil
}

func departmentKey(d string) string { return strings.ToLower(strings.TrimSpace(d)) }

func departmentQuery(department string) bson.M {
	if department == "" {
		return bson.M{}
	}
	return bson.M{"department_key": departmentKey(department)}
}

func (s *MongoStore) FindEmployee(ctx context.Context, employeeID int) (*services.Employee, error) {
	var doc employeeDoc
	err := s.employees.FindOne(ctx, bson.M{"employee_id": employeeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &services.Employee{
		EmployeeID:   doc.EmployeeID,
		Department:   doc.Department,
		EmployeeName: doc.EmployeeName,
		Role:         services.ParseRole(doc.Role),
	}, nil
}

func (s *MongoStore) CountEmployees(ctx context.Context, department string) (int, error) {
	n, err := s.employees.CountDocuments(ctx, departmentQuery(department))
	if err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) ListDepartments(ctx context.Context) ([]string, error) {
	values, err := s.employees.Distinct(ctx, "department", bson.M{"department": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if d, ok := v.(string); ok {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MongoStore) UpsertEmployee(ctx context.Context, e *services.Employee) error {
	role := e.Role
	if role == "" {
		role = services.RoleEmployee
	}
	doc := employeeDoc{
		EmployeeID:    e.EmployeeID,
		Department:    e.Department,
		DepartmentKey: departmentKey(e.Department),
		EmployeeName:  e.EmployeeName,
		Role:          string(role),
	}
	_, err := s.employees.ReplaceOne(ctx, bson.M{"employee_id": e.EmployeeID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert employee %d: %w", e.EmployeeID, err)
	}
	return nil
}

func (s *MongoStore) InsertFeedback(ctx context.Context, sub *services.Submission) error {
	if _, err := s.feedback.InsertOne(ctx, toFeedbackDoc(sub)); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *MongoStore) findFeedback(ctx context.Context, department string) ([]feedbackDoc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "response_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.feedback.Find(ctx, departmentQuery(department), opts)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	var docs []feedbackDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) ListFeedback(ctx context.Context, department string) ([]analytics.FeedbackRecord, error) {
	docs, err := s.findFeedback(ctx, department)
	if err != nil {
		return nil, err
	}
	out := make([]analytics.FeedbackRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

func (s *MongoStore) ListResponseSets(ctx context.Context, department string) ([]analytics.SurveyResponseSet, error) {
	docs, err := s.findFeedback(ctx, department)
	if err != nil {
		return nil, err
	}
	var out []analytics.SurveyResponseSet
	for _, d := range docs {
		if set := d.responseSet(); len(set) > 0 {
			out = append(out, set)
		}
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toFeedbackDoc(sub *services.Submission) feedbackDoc {
	e, c, f := sub.Scores.EngagementScore, sub.Scores.CohesionScore, sub.Scores.FrictionLevel
	doc := feedbackDoc{
		ID:              sub.ID,
		Department:      sub.Department,
		DepartmentKey:   departmentKey(sub.Department),
		UserDepartment:  sub.UserDepartment,
		EmployeeID:      sub.EmployeeID,
		EngagementScore: &e,
		CohesionScore:   &c,
		FrictionLevel:   &f,
		TeamGoal:        string(sub.TeamGoal),
		ResponseDate:    sub.ResponseDate.UTC(),
		SessionID:       sub.SessionID,
		Responses:       make(map[string]int, len(sub.Responses)),
		Comments:        sub.Comments[:],
	}
	for q, v := range sub.Responses {
		doc.Responses[strconv.Itoa(q)] = v
	}
	return doc
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func (d feedbackDoc) record() analytics.FeedbackRecord {
	r := analytics.FeedbackRecord{
		ID:              d.ID,
		Department:      d.Department,
		EmployeeID:      d.EmployeeID,
		EngagementScore: deref(d.EngagementScore),
		CohesionScore:   deref(d.CohesionScore),
		FrictionLevel:   deref(d.FrictionLevel),
		TeamGoal:        analytics.TeamGoal(d.TeamGoal),
		ResponseDate:    d.ResponseDate.UTC(),
	}
	copy(r.Comments[:], d.Comments)
	return r
}

func (d feedbackDoc) responseSet() analytics.SurveyResponseSet {
	set := make(analytics.SurveyResponseSet, len(d.Responses))
	for k, v := range d.Responses {
		q, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		set[q] = v
	}
	return set
}
