package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/intent"
)

func result(i int) channel.DispatchResult {
	return channel.DispatchResult{
		IntentID: fmt.Sprintf("intent-%d", i),
		Kind:     intent.ReminderDue,
	}
}

func TestMemoryNewestFirst(t *testing.T) {
	m := NewMemory(10)
	for i := 0; i < 3; i++ {
		m.Record(context.Background(), result(i))
	}
	got, err := m.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].IntentID != "intent-2" || got[1].IntentID != "intent-1" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMemoryEvictsOldest(t *testing.T) {
	m := NewMemory(2)
	for i := 0; i < 5; i++ {
		m.Record(context.Background(), result(i))
	}
	got, _ := m.Recent(context.Background(), 0)
	if len(got) != 2 || got[0].IntentID != "intent-4" || got[1].IntentID != "intent-3" {
		t.Fatalf("eviction broken: %+v", got)
	}
}

func TestMemoryRecentIsACopy(t *testing.T) {
	m := NewMemory(5)
	m.Record(context.Background(), result(0))
	got, _ := m.Recent(context.Background(), 0)
	m.Record(context.Background(), result(1))
	if len(got) != 1 || got[0].IntentID != "intent-0" {
		t.Fatalf("snapshot mutated: %+v", got)
	}
}

func TestMemoryEmpty(t *testing.T) {
	m := NewMemory(5)
	got, err := m.Recent(context.Background(), 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty history, got %v (%v)", got, err)
	}
}
