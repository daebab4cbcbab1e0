package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetpilot/internal/agents"
	"meetpilot/internal/orchestrator"
)

// ProfileSummary assembles the employee's characteristic text plus survey
// answers and open commitments into the shape the reasoning stages consume.
// An unknown employee yields an empty summary, not an error: the pipeline
// treats missing context as absent.
func (s *Store) ProfileSummary(ctx context.Context, employeeID string) (orchestrator.ProfileSummary, error) {
	var out orchestrator.ProfileSummary

	emp, err := s.GetEmployee(ctx, employeeID)
	switch {
	case errors.Is(err, ErrNotFound):
		return out, nil
	case err != nil:
		return out, fmt.Errorf("profile summary: %w", err)
	}

	var b strings.Builder
	b.WriteString(emp.Profile)

	answers, err := s.SurveyResponses(ctx, employeeID)
	if err != nil {
		return out, fmt.Errorf("profile summary: %w", err)
	}
	for _, a := range answers {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s", a.Question, a.Answer)
	}
	out.Text = b.String()

	open, err := s.OpenCommitments(ctx, employeeID)
	if err != nil {
		return out, fmt.Errorf("profile summary: %w", err)
	}
	for _, c := range open {
		ac := agents.Commitment{Text: c.Text, AgedAt: c.CreatedAt}
		if c.DueAt != nil {
			ac.DueDate = *c.DueAt
		}
		out.Commitments = append(out.Commitments, ac)
	}
	return out, nil
}

// RecentMeetings lists up to limit completed meetings, newest first.
func (s *Store) RecentMeetings(ctx context.Context, employeeID string, limit int) ([]agents.MeetingSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT notes, satisfaction, ended_at FROM meetings
		 WHERE employee_id = ? AND status = ? AND ended_at IS NOT NULL
		 ORDER BY ended_at DESC LIMIT ?`,
		employeeID, MeetingCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("recent meetings: %w", err)
	}
	defer rows.Close()

	var out []agents.MeetingSummary
	for rows.Next() {
		var m agents.MeetingSummary
		var ended int64
		if err := rows.Scan(&m.Notes, &m.Satisfaction, &ended); err != nil {
			return nil, fmt.Errorf("scan meeting summary: %w", err)
		}
		m.Date = time.Unix(ended, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}
