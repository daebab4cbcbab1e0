package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Commitment statuses.
const (
	CommitmentOpen = "open"
	CommitmentDone = "done"
)

// Commitment is one open agreement made during a meeting.
type Commitment struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Text       string     `json:"text"`
	Status     string     `json:"status"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AddCommitment records a new open commitment.
func (s *Store) AddCommitment(ctx context.Context, c *Commitment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = CommitmentOpen
	}
	var due any
	if c.DueAt != nil {
		due = c.DueAt.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commitments (id, employee_id, text, status, due_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.EmployeeID, c.Text, c.Status, due, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("add commitment: %w", err)
	}
	return nil
}

// OpenCommitments lists the employee's open commitments, newest first.
func (s *Store) OpenCommitments(ctx context.Context, employeeID string) ([]Commitment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, text, status, due_at, created_at FROM commitments
		 WHERE employee_id = ? AND status = ? ORDER BY created_at DESC`,
		employeeID, CommitmentOpen)
	if err != nil {
		return nil, fmt.Errorf("open commitments: %w", err)
	}
	defer rows.Close()

	var out []Commitment
	for rows.Next() {
		var c Commitment
		var due sql.NullInt64
		var created int64
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.Text, &c.Status, &due, &created); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		if due.Valid {
			t := time.Unix(due.Int64, 0)
			c.DueAt = &t
		}
		c.CreatedAt = time.Unix(created, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CloseCommitment marks a commitment done.
func (s *Store) CloseCommitment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE commitments SET status = ? WHERE id = ?`, CommitmentDone, id)
	if err != nil {
		return fmt.Errorf("close commitment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
