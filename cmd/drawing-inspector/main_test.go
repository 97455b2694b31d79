package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/drawing-inspector/internal/config"
	"github.com/ironsheep/drawing-inspector/internal/correlate"
	"github.com/ironsheep/drawing-inspector/internal/feed"
	"github.com/ironsheep/drawing-inspector/internal/model"
)

func TestPrintMatches(t *testing.T) {
	n := 4
	lines := []matchLine{
		{
			FindingMatch: correlate.FindingMatch{
				Key:      "modified:0",
				Category: model.CategoryModified,
				Finding:  model.Finding{Location: "near hole A", MasterValue: model.StringValue("12.500")},
				Balloon:  &n,
			},
			Best: &correlate.Score{
				BalloonNumber: 4,
				Total:         12,
				Contributions: []correlate.Contribution{
					{Rule: correlate.RuleNominalExact, Points: 10},
					{Rule: correlate.RuleDescription, Points: 2},
				},
			},
		},
		{
			FindingMatch: correlate.FindingMatch{
				Key:      "missing_dim:0",
				Category: model.CategoryMissingDim,
				Finding:  model.Finding{Location: "top"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printMatches(&buf, lines))
	out := buf.String()

	assert.Contains(t, out, "FINDING")
	assert.Contains(t, out, "modified:0")
	assert.Contains(t, out, "#4")
	assert.Contains(t, out, "12 (nominal_exact+10 description_token+2)")

	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"missing_dim:0", "top", "-", "-"}, strings.Fields(rows[2]))
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")

	err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "<svg/>")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestWriteOutput_PropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	want := io.ErrShortWrite

	err := writeOutput(path, func(io.Writer) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestLoadSnapshotFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	flags := &Flags{Config: &cfg}

	_, err := loadSnapshotFlag("", flags)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"s1","comparison":[{"balloon_number":1,"status":"pass"}]}`), 0o644))

	cfg.SnapshotFile = path
	snap, err := loadSnapshotFlag("", flags)
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SessionID)
	require.Len(t, snap.Items, 1)
}

func TestSources_EnabledAndEvents(t *testing.T) {
	cfg := config.DefaultConfig()
	src, err := NewSources(&cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, src.Enabled())
	assert.Nil(t, src.Refresher)
	assert.Nil(t, src.Feed)

	src.handleEvent(feed.Event{Agent: feed.AgentComparison, Type: "progress"})
	src.handleEvent(feed.Event{Agent: feed.AgentComparison, Type: feed.TypeComplete})

	events := src.Events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "progress", events[0].Type)
	assert.Equal(t, feed.TypeComplete, events[1].Type)

	cfg.SnapshotFile = "snap.json"
	assert.True(t, src.Enabled())
}

func TestSources_RefresherNeedsSession(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIURL = "http://localhost:8000/api"

	src, err := NewSources(&cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, src.Refresher)

	cfg.SessionID = "s1"
	src, err = NewSources(&cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, src.Refresher)
	assert.True(t, src.Enabled())
}
