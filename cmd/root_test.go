package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficsim/trafficsim/sim"
	"github.com/trafficsim/trafficsim/sim/stage"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func testStage() *stage.Stage {
	return &stage.Stage{
		Meta: stage.Meta{Title: "cmd test", Budget: 1000, SLATarget: 0.5},
		Map: stage.MapConfig{FixedNodes: []stage.FixedNode{
			{ID: "gw", Type: "gateway", X: 0, Y: 0},
			{ID: "lb", Type: "lb", X: 100, Y: 0},
			{ID: "srv", Type: "server", X: 200, Y: 0},
			{ID: "db", Type: "db", X: 300, Y: 0},
		}},
		Waves: []stage.Wave{
			{TimeStartMs: 0, SourceID: "gw", Count: 20, DurationMs: 200, PacketType: "NORMAL", Speed: 10},
		},
	}
}

func TestRunStage_DrainsAndStopsEarly(t *testing.T) {
	// GIVEN a small stage and generous tick budget
	s := testStage()
	engine := sim.NewEngine(100)
	director, err := stage.Apply(s, engine)
	require.NoError(t, err)
	oldTicks, oldDelta, oldStop := ticks, deltaMs, stopWhenDrained
	ticks, deltaMs, stopWhenDrained = 5000, 16, true
	defer func() { ticks, deltaMs, stopWhenDrained = oldTicks, oldDelta, oldStop }()

	// WHEN the stage runs
	executed := runStage(context.Background(), engine, director, nil)

	// THEN it stops once everything completed, before the tick budget
	assert.Less(t, executed, 5000)
	assert.Equal(t, 0, engine.ActiveCount())
	assert.Equal(t, 20, engine.StatsProcessed())
	assert.Equal(t, 0, director.PendingWaves())
}

func TestSaveResults_WritesJSON(t *testing.T) {
	s := testStage()
	engine := sim.NewEngine(100)
	director, err := stage.Apply(s, engine)
	require.NoError(t, err)
	director.TriggerUntil(0)
	for i := 0; i < 300; i++ {
		engine.Tick(16)
	}

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, saveResults(newRunResult(s, engine, director, 42, 300), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got RunResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "cmd test", got.Stage)
	assert.Equal(t, 300, got.Ticks)
	assert.Equal(t, 20, got.Spawned)
	assert.Equal(t, got.Processed, got.RoundTrip.Count)
	assert.Equal(t, 450, got.TopologyCost)
	assert.True(t, got.WithinBudget)
}

func TestValidateCmd_ReportsStages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
meta: {title: ok, description: "", budget: 100, sla_target: 0.9}
map:
  fixed_nodes:
    - {id: gw, type: gateway, x: 0, y: 0}
waves:
  - {time_start_ms: 0, source_id: gw, count: 3, duration_ms: 0, packet_type: NORMAL, speed: 1}
`), 0o644))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	defer validateCmd.SetOut(nil)

	err := validateCmd.RunE(validateCmd, []string{path})

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"ok", 1 nodes, 1 waves, 3 packets, cost 0/100 (ok)`)
}

func TestValidateCmd_InvalidStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta: {title: \"\"}\nmap: {fixed_nodes: []}\nwaves: []\n"), 0o644))

	err := validateCmd.RunE(validateCmd, []string{path})

	assert.Error(t, err)
}
