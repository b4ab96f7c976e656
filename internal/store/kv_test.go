package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"flowboard/internal/board"
	"flowboard/internal/store"
)

type fakeKV struct {
	slots   map[string][]byte
	saveErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{slots: make(map[string][]byte)}
}

func (kv *fakeKV) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	raw, ok := kv.slots[slot]
	return raw, ok, nil
}

func (kv *fakeKV) SaveAll(ctx context.Context, slots map[string][]byte) error {
	if kv.saveErr != nil {
		return kv.saveErr
	}
	for slot, payload := range slots {
		kv.slots[slot] = payload
	}
	return nil
}

func (kv *fakeKV) Close() error { return nil }

func TestMalformedSlotFallsBackPerCollection(t *testing.T) {
	channel := board.Channel{
		ID:        "chan-1",
		Name:      "Video",
		Columns:   []board.Column{{ID: "col-1", Name: "Edit", Order: 0}},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal([]board.Channel{channel})
	if err != nil {
		t.Fatalf("marshal channel: %v", err)
	}

	kv := newFakeKV()
	kv.slots["channels"] = payload
	kv.slots["users"] = []byte("{corrupt")

	st, err := store.NewWithKV(kv, nil)
	if err != nil {
		t.Fatalf("NewWithKV failed: %v", err)
	}

	// The intact channels slot loads normally.
	loaded, err := st.ChannelByID("chan-1")
	if err != nil {
		t.Fatalf("ChannelByID failed: %v", err)
	}
	if loaded.Name != "Video" {
		t.Fatalf("channel name = %q", loaded.Name)
	}

	// The corrupt users slot is replaced by the built-in dataset.
	if _, err := st.UserByID(store.DefaultAdminUserID); err != nil {
		t.Fatalf("expected default admin after corrupt slot, got %v", err)
	}
}

func TestFailedWriteThroughRollsBackTransition(t *testing.T) {
	kv := newFakeKV()
	st, err := store.NewWithKV(kv, nil)
	if err != nil {
		t.Fatalf("NewWithKV failed: %v", err)
	}

	ctx := context.Background()
	channel, err := st.AddChannel(ctx, store.NewChannel{Name: "Video", Columns: []string{"Edit", "Review"}}, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	columns := channel.SortedColumns()
	task, err := st.AddTask(ctx, store.NewTask{ChannelID: channel.ID, Title: "Teaser"})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	kv.saveErr = errors.New("disk full")
	if _, err := st.CompleteStage(ctx, task.ID, columns[0].ID, columns[1].ID, store.DefaultAdminUserID); err == nil {
		t.Fatal("expected write-through failure to surface")
	}

	unchanged, err := st.TaskByID(task.ID)
	if err != nil {
		t.Fatalf("TaskByID failed: %v", err)
	}
	if unchanged.ColumnID != columns[0].ID {
		t.Fatalf("task column = %q after rollback, want %q", unchanged.ColumnID, columns[0].ID)
	}
	if events := st.StageEvents(store.EventFilter{TaskID: task.ID}); len(events) != 0 {
		t.Fatalf("expected no events after rollback, got %#v", events)
	}

	// The store stays usable once the boundary recovers.
	kv.saveErr = nil
	if _, err := st.CompleteStage(ctx, task.ID, columns[0].ID, columns[1].ID, store.DefaultAdminUserID); err != nil {
		t.Fatalf("CompleteStage after recovery failed: %v", err)
	}
}

func TestFailedWriteThroughRollsBackFinalize(t *testing.T) {
	kv := newFakeKV()
	st, err := store.NewWithKV(kv, nil)
	if err != nil {
		t.Fatalf("NewWithKV failed: %v", err)
	}

	ctx := context.Background()
	channel, err := st.AddChannel(ctx, store.NewChannel{Name: "Video", Columns: []string{"Publish"}}, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	column := channel.SortedColumns()[0]
	task, err := st.AddTask(ctx, store.NewTask{ChannelID: channel.ID, Title: "Finale"})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	kv.saveErr = errors.New("disk full")
	if _, _, err := st.FinalizeTask(ctx, task.ID, column, store.DefaultAdminUserID); err == nil {
		t.Fatal("expected write-through failure to surface")
	}

	if _, err := st.TaskByID(task.ID); err != nil {
		t.Fatalf("task should remain active after rollback: %v", err)
	}
	if completed := st.CompletedTasks(channel.ID); len(completed) != 0 {
		t.Fatalf("expected empty archive after rollback, got %#v", completed)
	}
	if events := st.StageEvents(store.EventFilter{TaskID: task.ID}); len(events) != 0 {
		t.Fatalf("expected no events after rollback, got %#v", events)
	}
}
