package telemetry_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/wfsrender/internal/telemetry"
)

func TestExportJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	c := telemetry.New()
	c.Bind(newFakeSource())
	c.Poll()
	snap := c.Snapshot()

	exp := telemetry.NewExporter(dir)
	if err := exp.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := exp.ExportJSON("session", []telemetry.Snapshot{snap}); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	var got []telemetry.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(got) != 1 || len(got[0].Inputs) != 2 {
		t.Fatalf("unexpected round-tripped snapshot: %+v", got)
	}
	if got[0].Inputs[0].PeakDb != -6 {
		t.Fatalf("input 0 peak: got %v, want -6", got[0].Inputs[0].PeakDb)
	}
}

func TestExportCSVWritesHeaderAndRow(t *testing.T) {
	dir := t.TempDir()
	c := telemetry.New()
	c.Bind(newFakeSource())
	c.Poll()
	snap := c.Snapshot()

	exp := telemetry.NewExporter(dir)
	if err := exp.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := exp.ExportCSV("session", []telemetry.Snapshot{snap}); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "session.csv"))
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty CSV output")
	}
}

func TestExportCSVEmptySnapshotsIsNoop(t *testing.T) {
	dir := t.TempDir()
	exp := telemetry.NewExporter(dir)
	if err := exp.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := exp.ExportCSV("empty", nil); err != nil {
		t.Fatalf("ExportCSV on empty slice failed: %v", err)
	}
}
