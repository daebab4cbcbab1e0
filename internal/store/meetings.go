package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Meeting statuses.
const (
	MeetingActive    = "active"
	MeetingCompleted = "completed"
)

// Meeting is one one-on-one session.
type Meeting struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes"`
	Satisfaction int        `json:"satisfaction"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// CreateMeeting inserts a new active meeting.
func (s *Store) CreateMeeting(ctx context.Context, m *Meeting) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.StartedAt.IsZero() {
		m.StartedAt = time.Now()
	}
	if m.Status == "" {
		m.Status = MeetingActive
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, employee_id, status, notes, satisfaction, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.EmployeeID, m.Status, m.Notes, m.Satisfaction, m.StartedAt.Unix())
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// GetMeeting fetches one meeting by ID.
func (s *Store) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, employee_id, status, notes, satisfaction, started_at, ended_at FROM meetings WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return m, nil
}

// UpdateNotes replaces the live notes of a meeting.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteMeeting marks a meeting completed with final notes and an
// optional satisfaction score (0 = not rated).
func (s *Store) CompleteMeeting(ctx context.Context, id, notes string, satisfaction int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET status = ?, notes = ?, satisfaction = ?, ended_at = ? WHERE id = ? AND status = ?`,
		MeetingCompleted, notes, satisfaction, time.Now().Unix(), id, MeetingActive)
	if err != nil {
		return fmt.Errorf("complete meeting: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(r rowScanner) (*Meeting, error) {
	var m Meeting
	var started int64
	var ended sql.NullInt64
	if err := r.Scan(&m.ID, &m.EmployeeID, &m.Status, &m.Notes, &m.Satisfaction, &started, &ended); err != nil {
		return nil, err
	}
	m.StartedAt = time.Unix(started, 0)
	if ended.Valid {
		t := time.Unix(ended.Int64, 0)
		m.EndedAt = &t
	}
	return &m, nil
}
