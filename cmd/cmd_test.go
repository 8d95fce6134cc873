package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/app"
	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/config"
	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
	"github.com/JakeFAU/firm-intel-crawler/internal/orchestrator"
)

func init() {
	color.NoColor = true
}

func withTestApp(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Checkpoint.Path = filepath.Join(t.TempDir(), "progress.json")
	cfg.Storage.Backend = "memory"
	cfg.Fetch.Mode = "http"

	orig := newApp
	newApp = func(string) (*app.App, error) { return app.New(cfg, zap.NewNop()), nil }
	t.Cleanup(func() { newApp = orig })
	return cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusWithoutCheckpoint(t *testing.T) {
	withTestApp(t)
	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoint in progress.")
}

func TestStatusReadsCheckpoint(t *testing.T) {
	cfg := withTestApp(t)
	store, err := checkpoint.NewFileStore(cfg.Checkpoint.Path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), checkpoint.State{
		AllTargets: []string{"https://a.test", "https://b.test", "https://c.test"},
		Processed:  []string{"https://a.test"},
		Failed:     []checkpoint.Failure{{Target: "https://b.test", Reason: "no_content"}},
	}))

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:     3")
	assert.Contains(t, out, "Remaining: 1")
	assert.Contains(t, out, "https://b.test no_content")
}

func TestListingsRequiresCompanyOrURL(t *testing.T) {
	withTestApp(t)
	_, err := execute(t, "listings")
	require.Error(t, err)
}

func TestPrintStatusWindow(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, checkpoint.Summary{Total: 2, Remaining: 2, StartTime: &start}, time.Hour, start.Add(15*time.Minute))
	assert.Contains(t, buf.String(), "budget ends 2026-01-02T11:00:00Z, 45m0s left")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, orchestrator.Report{Outcome: orchestrator.PhaseTimedOut, Attempted: 3, Succeeded: 2, Failed: 1, Remaining: 4})
	assert.Contains(t, buf.String(), "TIMED_OUT attempted=3 succeeded=2 failed=1 remaining=4")
	assert.Contains(t, buf.String(), "Run again to resume.")

	buf.Reset()
	printReport(&buf, orchestrator.Report{Outcome: orchestrator.PhaseCompleted})
	assert.NotContains(t, buf.String(), "resume")
}

func TestPrintMatchesAndListings(t *testing.T) {
	var buf bytes.Buffer
	printMatches(&buf, []crawler.FirmMatch{{
		Record:     crawler.FirmRecord{FirmName: "Acme LLP", FirmTone: "formal", SectorFocus: []string{"tax", "ip"}},
		Similarity: 0.91234,
	}})
	assert.Contains(t, buf.String(), "1. Acme LLP (0.912)")
	assert.Contains(t, buf.String(), "sectors: tax, ip")

	buf.Reset()
	printListings(&buf, "Acme", nil)
	assert.Contains(t, buf.String(), "No listings found for Acme.")
}

func TestProgressObserverCountsTargets(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressObserver(&buf)
	p.TargetFinished(orchestrator.TargetResult{Target: "early"}, checkpoint.Summary{})
	p.PhaseChanged(orchestrator.PhaseRunning, checkpoint.Summary{Remaining: 2})
	p.TargetFinished(orchestrator.TargetResult{Target: "https://a.test", Status: orchestrator.StatusProcessed}, checkpoint.Summary{})
	p.TargetFinished(orchestrator.TargetResult{Target: "https://b.test", Status: orchestrator.StatusFailed}, checkpoint.Summary{})
	require.NotNil(t, p.bar)
	assert.Equal(t, 2, int(p.bar.State().CurrentNum))
	p.PhaseChanged(orchestrator.PhaseCompleted, checkpoint.Summary{})
}

func TestCheckpointSnapshotsPhase(t *testing.T) {
	dir := t.TempDir()
	store, err := checkpoint.NewFileStore(filepath.Join(dir, "p.json"), nil)
	require.NoError(t, err)
	snaps := &checkpointSnapshots{ctx: context.Background(), store: store}
	assert.Equal(t, orchestrator.PhaseInit, snaps.Snapshot().Phase)

	now := time.Now().UTC()
	require.NoError(t, store.Save(context.Background(), checkpoint.State{
		AllTargets: []string{"https://a.test"}, StartTime: &now,
	}))
	snap := snaps.Snapshot()
	assert.Equal(t, orchestrator.PhaseRunning, snap.Phase)
	assert.Equal(t, 1, snap.Summary.Remaining)
}
