package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// TestRecordAndList verifies entries round-trip with generated IDs in insertion order.
func TestRecordAndList(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	id1, err := j.Record(ctx, Entry{Kind: KindVerdict, Subject: "athlete-1", Outcome: "rejected"}, map[string]float64{"safe_km": 22})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := uuid.Parse(id1); err != nil {
		t.Errorf("id %q is not a UUID: %v", id1, err)
	}
	if _, err := j.Record(ctx, Entry{Kind: KindDecision, Subject: "athlete-1", Outcome: "adapt", Source: "fallback"}, map[string]string{"action": "decrease"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := j.Record(ctx, Entry{Kind: KindFitness, Subject: "athlete-2", Outcome: "35", DataQuality: QualityInsufficient}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := j.List(ctx, "athlete-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != id1 || entries[0].Kind != KindVerdict || entries[0].DataQuality != QualityOK {
		t.Errorf("first entry = %+v", entries[0])
	}
	var payload map[string]float64
	if err := json.Unmarshal(entries[0].Payload, &payload); err != nil || payload["safe_km"] != 22 {
		t.Errorf("payload = %s (%v)", entries[0].Payload, err)
	}
	if entries[1].Source != "fallback" {
		t.Errorf("source = %q, want fallback", entries[1].Source)
	}

	limited, err := j.List(ctx, "athlete-1", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limited list = %d entries (%v), want 1", len(limited), err)
	}

	counts, err := j.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[QualityOK] != 2 || counts[QualityInsufficient] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

// TestEvaluatedScenarios verifies scenario tracking keys on both path and hash.
func TestEvaluatedScenarios(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	done, err := j.IsEvaluated(ctx, "week1.yaml", "abc")
	if err != nil || done {
		t.Fatalf("IsEvaluated = %v, %v; want false", done, err)
	}
	if err := j.MarkEvaluated(ctx, "week1.yaml", "abc"); err != nil {
		t.Fatalf("MarkEvaluated: %v", err)
	}
	if done, _ := j.IsEvaluated(ctx, "week1.yaml", "abc"); !done {
		t.Error("expected scenario to be evaluated")
	}
	if done, _ := j.IsEvaluated(ctx, "week1.yaml", "changed"); done {
		t.Error("changed hash should not count as evaluated")
	}
}

// TestHashFile verifies the SHA-256 hex digest.
func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("hash = %s, want %s", got, want)
	}
}
