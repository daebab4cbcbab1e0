package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Employee is one person the manager meets with. Profile is the free-text
// characteristic used by the reasoning stages.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Profile   string    `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEmployee inserts a new employee, assigning an ID when absent.
func (s *Store) CreateEmployee(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, position, profile, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Position, e.Profile, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// GetEmployee fetches one employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, position, profile, created_at FROM employees WHERE id = ?`, id)
	var e Employee
	var created int64
	if err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Profile, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	e.CreatedAt = time.Unix(created, 0)
	return &e, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, position, profile, created_at FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		var created int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Profile, &created); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateProfile replaces the employee's characteristic text.
func (s *Store) UpdateProfile(ctx context.Context, id, profile string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET profile = ? WHERE id = ?`, profile, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
