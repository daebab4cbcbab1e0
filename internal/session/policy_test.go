package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetpilot/internal/config"
)

// fakeClock drives the store's time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*PolicyStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewPolicyStore(config.DefaultGatingConfig())
	store.now = clock.Now
	return store, clock
}

func TestCanRespondNow_Throttle(t *testing.T) {
	store, clock := newTestStore(t)
	key := NewKey("m1", "e1")
	interval := store.Gating().MinInterval()

	t.Run("fresh session allows", func(t *testing.T) {
		assert.True(t, store.CanRespondNow(key))
	})

	t.Run("second call inside window is rejected", func(t *testing.T) {
		clock.Advance(interval / 2)
		assert.False(t, store.CanRespondNow(key))
	})

	t.Run("allowed again after full interval", func(t *testing.T) {
		clock.Advance(interval)
		assert.True(t, store.CanRespondNow(key))
	})
}

func TestCanRespondNow_CompareAndSet(t *testing.T) {
	// Concurrent callers must never both pass: the stamp happens in the same
	// critical section as the check.
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	const callers = 32
	var wg sync.WaitGroup
	passed := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.CanRespondNow(key) {
				passed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(passed)

	n := 0
	for range passed {
		n++
	}
	assert.Equal(t, 1, n, "exactly one caller may pass the throttle")
}

func TestRespondAvailable_DoesNotConsume(t *testing.T) {
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	assert.True(t, store.RespondAvailable(key))
	assert.True(t, store.RespondAvailable(key), "peeking must not stamp")
	assert.True(t, store.CanRespondNow(key))
	assert.False(t, store.RespondAvailable(key), "CAS stamp closes the window")
}

func TestShouldAnalyze(t *testing.T) {
	longText := "первый second third fourth fifth sixth seventh eighth ninth tenth"

	t.Run("allows when word delta met", func(t *testing.T) {
		store, _ := newTestStore(t)
		key := NewKey("m1", "e1")
		dec := store.ShouldAnalyze(key, longText)
		assert.True(t, dec.Allow)
	})

	t.Run("rejects within debounce window", func(t *testing.T) {
		store, clock := newTestStore(t)
		key := NewKey("m1", "e1")
		require.True(t, store.ShouldAnalyze(key, longText).Allow)

		clock.Advance(store.Gating().Debounce() / 2)
		dec := store.ShouldAnalyze(key, longText+" extra words appended here now also more still")
		assert.False(t, dec.Allow)
		assert.Equal(t, "debounce window still open", dec.Reason)
	})

	t.Run("rejects on small word delta", func(t *testing.T) {
		store, _ := newTestStore(t)
		key := NewKey("m1", "e1")
		store.SetBaseline(key, longText)
		dec := store.ShouldAnalyze(key, longText+" one two")
		assert.False(t, dec.Allow)
		assert.Equal(t, "not enough new content yet", dec.Reason)
	})

	t.Run("success does not advance baseline", func(t *testing.T) {
		store, _ := newTestStore(t)
		key := NewKey("m1", "e1")
		require.True(t, store.ShouldAnalyze(key, longText).Allow)
		text, words := store.Baseline(key)
		assert.Empty(t, text)
		assert.Empty(t, words)
	})
}

func TestBaseline(t *testing.T) {
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	store.SetBaseline(key, "Встреча прошла Хорошо")
	text, words := store.Baseline(key)

	assert.Equal(t, "Встреча прошла Хорошо", text, "raw casing preserved")
	assert.Contains(t, words, "хорошо", "word set lowercased")
	assert.Len(t, words, 3)
}

func TestPushMessage_BoundedFIFO(t *testing.T) {
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	for i := 0; i < 15; i++ {
		store.PushMessage(key, fmt.Sprintf("msg-%d", i))
	}

	ctx := store.SessionContext(key)
	require.Len(t, ctx.RecentMessages, maxRecentMessages)
	assert.Equal(t, "msg-5", ctx.RecentMessages[0], "oldest evicted first")
	assert.Equal(t, "msg-14", ctx.RecentMessages[9])
}

func TestSessionContext(t *testing.T) {
	store, clock := newTestStore(t)
	key := NewKey("m1", "e1")

	store.RecordIntervention(key)
	store.RecordIntervention(key)
	clock.Advance(7 * time.Minute)

	ctx := store.SessionContext(key)
	assert.Equal(t, 2, ctx.InterventionCount)
	assert.Equal(t, 7*time.Minute, ctx.Elapsed)
}

func TestSurveyFlag_OneShot(t *testing.T) {
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	assert.False(t, store.SurveyOffered(key))
	store.MarkSurveyOffered(key)
	assert.True(t, store.SurveyOffered(key))
	store.MarkSurveyOffered(key) // sticky, not a toggle
	assert.True(t, store.SurveyOffered(key))
}

func TestClear_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	key := NewKey("m1", "e1")

	store.SetBaseline(key, "some text here")
	store.MarkSurveyOffered(key)
	require.Equal(t, 1, store.Len())

	store.Clear(key)
	store.Clear(key) // second clear is a no-op
	assert.Equal(t, 0, store.Len())

	// A cleared key behaves like a fresh session.
	assert.False(t, store.SurveyOffered(key))
}

func TestParseKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		key, err := ParseKey("meeting-42:emp-7")
		require.NoError(t, err)
		assert.Equal(t, "meeting-42", key.MeetingID())
		assert.Equal(t, "emp-7", key.EmployeeID())
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseKey("meeting-42")
		assert.Error(t, err)
	})

	t.Run("empty halves", func(t *testing.T) {
		_, err := ParseKey(":emp-7")
		assert.Error(t, err)
	})
}

func TestTokenize(t *testing.T) {
	words := Tokenize("Заметка: сотрудник  недоволен\tнагрузкой\n")
	assert.Len(t, words, 4)
	assert.Contains(t, words, "заметка:")
	assert.Contains(t, words, "нагрузкой")

	assert.Empty(t, Tokenize("   \t\n"))
}
