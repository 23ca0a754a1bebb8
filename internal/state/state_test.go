package state

import (
	"testing"
	"time"
)

func TestJournalRoundTrip(t *testing.T) {
	j := NewJournal(t.TempDir())
	rec := FiredRecord{EventID: "ev1", FireAt: time.Now().Add(-time.Hour), FiredAt: time.Now()}
	if err := j.MarkFired(rec); err != nil {
		t.Fatalf("mark fired: %v", err)
	}
	all, err := j.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if got, ok := all["ev1"]; !ok || got.EventID != "ev1" {
		t.Fatalf("record missing after save: %v", all)
	}
}

func TestJournalRemove(t *testing.T) {
	j := NewJournal(t.TempDir())
	if err := j.MarkFired(FiredRecord{EventID: "ev1"}); err != nil {
		t.Fatalf("mark fired: %v", err)
	}
	if err := j.Remove("ev1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	all, err := j.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty journal, got %v", all)
	}
}

func TestNilJournalIsNoop(t *testing.T) {
	var j *Journal
	if err := j.MarkFired(FiredRecord{EventID: "ev1"}); err != nil {
		t.Fatalf("nil journal mark: %v", err)
	}
	if err := j.Remove("ev1"); err != nil {
		t.Fatalf("nil journal remove: %v", err)
	}
	all, err := j.All()
	if err != nil || len(all) != 0 {
		t.Fatalf("nil journal all: %v %v", all, err)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	if err := NewJournal(dir).MarkFired(FiredRecord{EventID: "ev2"}); err != nil {
		t.Fatalf("mark fired: %v", err)
	}
	all, err := NewJournal(dir).All()
	if err != nil {
		t.Fatalf("all after reopen: %v", err)
	}
	if _, ok := all["ev2"]; !ok {
		t.Fatalf("record lost across reopen: %v", all)
	}
}
