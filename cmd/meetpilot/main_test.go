package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Without an API key every agent call fails and degrades to its default:
// the turn ends silent, and the empty stored profile still triggers the
// one-shot survey offer. That exercises the whole command path with no
// network.
func TestAnalyzeCommandDegradesToSurveyOffer(t *testing.T) {
	t.Setenv("MEETPILOT_API_KEY", "")
	t.Setenv("MEETPILOT_PROVIDER", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "meetpilot.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("storage:\n  path: "+filepath.Join(dir, "test.db")+"\n"), 0o644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"analyze", "--config", cfgPath,
		"сотрудник недоволен нагрузкой и просит перенести сроки проекта"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"action-card"`)
	assert.Contains(t, out.String(), `"survey"`)
}

func TestAnalyzeCommandRejectsEmptyText(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetIn(bytes.NewReader(nil))
	root.SetArgs([]string{"analyze", "--config", filepath.Join(t.TempDir(), "absent.yaml")})

	assert.Error(t, root.Execute())
}
