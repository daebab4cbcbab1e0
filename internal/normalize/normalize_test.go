package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, Unmarshal(raw, &v))
	return v
}

func TestExtract_RoundTrip(t *testing.T) {
	original := map[string]any{
		"intervene":  true,
		"reason":     "workload complaint detected",
		"confidence": 0.85,
		"topics":     []any{"workload", "burnout"},
		"nested":     map[string]any{"severity": "significant"},
	}
	body, err := json.Marshal(original)
	require.NoError(t, err)

	wrappings := map[string]string{
		"bare":          string(body),
		"prose before":  "Here is my analysis:\n" + string(body),
		"prose around":  "Sure! " + string(body) + "\nLet me know if you need more.",
		"json fence":    "```json\n" + string(body) + "\n```",
		"plain fence":   "```\n" + string(body) + "\n```",
		"fence + prose": "The result:\n```json\n" + string(body) + "\n```\nDone.",
	}

	for name, raw := range wrappings {
		t.Run(name, func(t *testing.T) {
			got := decode(t, raw)
			if diff := cmp.Diff(original, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_CleansArtifacts(t *testing.T) {
	t.Run("trailing commas", func(t *testing.T) {
		got := decode(t, `{"a": 1, "b": [1, 2,], }`)
		assert.Equal(t, float64(1), got["a"])
		assert.Equal(t, []any{float64(1), float64(2)}, got["b"])
	})

	t.Run("line comments", func(t *testing.T) {
		raw := "{\n  \"a\": 1, // primary score\n  \"b\": 2\n}"
		got := decode(t, raw)
		assert.Equal(t, float64(1), got["a"])
		assert.Equal(t, float64(2), got["b"])
	})

	t.Run("comment-like content inside strings survives", func(t *testing.T) {
		got := decode(t, `{"url": "https://example.com/x", "note": "a, b,"}`)
		assert.Equal(t, "https://example.com/x", got["url"])
		assert.Equal(t, "a, b,", got["note"])
	})

	t.Run("control characters", func(t *testing.T) {
		got := decode(t, "{\"a\": \x01\x02 1}")
		assert.Equal(t, float64(1), got["a"])
	})
}

func TestExtract_TruncationRepair(t *testing.T) {
	full := `{"found": true, "type": "history_anomaly", "severity": "minor", "action": "ask about the missed deadline"}`

	// The normalizer must either recover a typed subset of the original keys
	// or fail outright; a recovered key must never change type.
	var reference map[string]any
	require.NoError(t, json.Unmarshal([]byte(full), &reference))

	for offset := len(full) / 2; offset < len(full); offset++ {
		truncated := full[:offset]
		var got map[string]any
		err := Unmarshal(truncated, &got)
		if err != nil {
			var nerr *Error
			require.ErrorAs(t, err, &nerr, "offset %d: unexpected error type", offset)
			continue
		}
		for key, val := range got {
			ref, ok := reference[key]
			if !ok {
				continue // partially emitted key name
			}
			assert.IsType(t, ref, val, "offset %d key %q", offset, key)
		}
	}
}

func TestExtract_TruncatedMidString(t *testing.T) {
	got := decode(t, `{"reason": "employee mentioned workl`)
	assert.Contains(t, got["reason"], "employee mentioned")
}

func TestExtract_TruncatedNested(t *testing.T) {
	got := decode(t, `{"insights": [{"text": "check in", "confidence": 0.7`)
	insights, ok := got["insights"].([]any)
	require.True(t, ok)
	require.Len(t, insights, 1)
	first := insights[0].(map[string]any)
	assert.Equal(t, 0.7, first["confidence"])
}

func TestExtract_Failures(t *testing.T) {
	t.Run("no JSON at all", func(t *testing.T) {
		var v map[string]any
		err := Unmarshal("I could not produce a structured answer, sorry.", &v)
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Contains(t, nerr.Raw, "structured answer")
	})

	t.Run("empty input", func(t *testing.T) {
		var v map[string]any
		err := Unmarshal("", &v)
		assert.Error(t, err)
	})

	t.Run("raw text preserved on failure", func(t *testing.T) {
		raw := "garbage with no braces"
		var v map[string]any
		err := Unmarshal(raw, &v)
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, raw, nerr.Raw)
	})
}

func TestExtract_Deterministic(t *testing.T) {
	raw := "prose ```json\n{\"a\": [1,2,3,}\n``` more prose"
	first, err1 := Extract(raw)
	second, err2 := Extract(raw)
	assert.Equal(t, err1 == nil, err2 == nil)
	assert.Equal(t, string(first), string(second))
}

func TestFindJSONCandidates(t *testing.T) {
	t.Run("nested braces", func(t *testing.T) {
		got := findJSONCandidates(`x {"a": {"b": 1}} y`)
		require.Len(t, got, 1)
		assert.Equal(t, `{"a": {"b": 1}}`, got[0])
	})

	t.Run("braces inside strings ignored", func(t *testing.T) {
		got := findJSONCandidates(`{"a": "}{"}`)
		require.Len(t, got, 1)
		assert.Equal(t, `{"a": "}{"}`, got[0])
	})

	t.Run("multiple objects", func(t *testing.T) {
		got := findJSONCandidates(`{"a":1} and {"b":2}`)
		require.Len(t, got, 2)
	})

	t.Run("incomplete object yields nothing", func(t *testing.T) {
		assert.Empty(t, findJSONCandidates(`{"a": 1`))
	})
}

func TestExtract_FirstObjectWins(t *testing.T) {
	got := decode(t, `{"pick": "first"} trailing {"pick": "second"}`)
	assert.Equal(t, "first", got["pick"])
}

func TestExtract_LongProse(t *testing.T) {
	raw := strings.Repeat("words without structure ", 200) + `{"ok": true}`
	got := decode(t, raw)
	assert.Equal(t, true, got["ok"])
}
