package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmployeeCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Employee{Name: "Анна Петрова", Position: "Backend engineer"}
	require.NoError(t, s.CreateEmployee(ctx, e))
	require.NotEmpty(t, e.ID)

	got, err := s.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Анна Петрова", got.Name)
	assert.Empty(t, got.Profile)

	require.NoError(t, s.UpdateProfile(ctx, e.ID, "Prefers written feedback."))
	got, err = s.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prefers written feedback.", got.Profile)

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateProfile(ctx, "missing", "x"), ErrNotFound)
}

func TestMeetingLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Employee{Name: "Boris"}
	require.NoError(t, s.CreateEmployee(ctx, e))

	m := &Meeting{EmployeeID: e.ID}
	require.NoError(t, s.CreateMeeting(ctx, m))

	got, err := s.GetMeeting(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, MeetingActive, got.Status)
	assert.Nil(t, got.EndedAt)

	require.NoError(t, s.UpdateNotes(ctx, m.ID, "draft notes"))
	require.NoError(t, s.CompleteMeeting(ctx, m.ID, "final notes", 4))

	got, err = s.GetMeeting(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, MeetingCompleted, got.Status)
	assert.Equal(t, "final notes", got.Notes)
	assert.Equal(t, 4, got.Satisfaction)
	require.NotNil(t, got.EndedAt)

	// Completing twice is rejected: the meeting is no longer active.
	assert.ErrorIs(t, s.CompleteMeeting(ctx, m.ID, "again", 5), ErrNotFound)
}

func TestProfileSummaryAssembly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Employee{Name: "Clara", Profile: "Ambitious, dislikes micromanagement."}
	require.NoError(t, s.CreateEmployee(ctx, e))

	require.NoError(t, s.SaveSurveyResponse(ctx, &SurveyResponse{
		EmployeeID: e.ID,
		Question:   "Preferred feedback style?",
		Answer:     "Direct, in private.",
	}))
	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, s.AddCommitment(ctx, &Commitment{
		EmployeeID: e.ID,
		Text:       "send the growth plan",
		DueAt:      &due,
	}))
	closed := &Commitment{EmployeeID: e.ID, Text: "old item"}
	require.NoError(t, s.AddCommitment(ctx, closed))
	require.NoError(t, s.CloseCommitment(ctx, closed.ID))

	sum, err := s.ProfileSummary(ctx, e.ID)
	require.NoError(t, err)
	assert.Contains(t, sum.Text, "dislikes micromanagement")
	assert.Contains(t, sum.Text, "Direct, in private.")
	require.Len(t, sum.Commitments, 1)
	assert.Equal(t, "send the growth plan", sum.Commitments[0].Text)

	// Unknown employees degrade to an empty summary, not an error.
	empty, err := s.ProfileSummary(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty.Text)
	assert.Empty(t, empty.Commitments)
}

func TestRecentMeetingsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Employee{Name: "Dmitri"}
	require.NoError(t, s.CreateEmployee(ctx, e))

	base := time.Now().Add(-10 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		m := &Meeting{EmployeeID: e.ID, StartedAt: base.Add(time.Duration(i) * 24 * time.Hour)}
		require.NoError(t, s.CreateMeeting(ctx, m))
		require.NoError(t, s.CompleteMeeting(ctx, m.ID, "notes", i+1))
		// ended_at is stamped with time.Now; overwrite for deterministic order.
		_, err := s.db.ExecContext(ctx, `UPDATE meetings SET ended_at = ? WHERE id = ?`,
			base.Add(time.Duration(i)*24*time.Hour).Unix(), m.ID)
		require.NoError(t, err)
	}
	// An active meeting must never appear in history.
	require.NoError(t, s.CreateMeeting(ctx, &Meeting{EmployeeID: e.ID}))

	ms, err := s.RecentMeetings(ctx, e.ID, 2)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.True(t, ms[0].Date.After(ms[1].Date))
	assert.Equal(t, 3, ms[0].Satisfaction)
}
