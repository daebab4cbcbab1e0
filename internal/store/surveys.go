package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurveyResponse is one answered profiling question. Answers enrich the
// profile summary fed to the reasoning stages.
type SurveyResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveSurveyResponse records one answer.
func (s *Store) SaveSurveyResponse(ctx context.Context, r *SurveyResponse) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO survey_responses (id, employee_id, question, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.Question, r.Answer, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save survey response: %w", err)
	}
	return nil
}

// SurveyResponses lists an employee's answers, oldest first.
func (s *Store) SurveyResponses(ctx context.Context, employeeID string) ([]SurveyResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, question, answer, created_at FROM survey_responses
		 WHERE employee_id = ? ORDER BY created_at`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("survey responses: %w", err)
	}
	defer rows.Close()

	var out []SurveyResponse
	for rows.Next() {
		var r SurveyResponse
		var created int64
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Question, &r.Answer, &created); err != nil {
			return nil, fmt.Errorf("scan survey response: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
