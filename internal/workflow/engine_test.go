package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"flowboard/internal/board"
	"flowboard/internal/logging"
	"flowboard/internal/store"
	"flowboard/internal/testsupport"
	"flowboard/internal/workflow"
)

func TestAdvanceMovesThroughPipelineAndFinalizes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := workflow.NewEngine(st, nil)

	ctx := context.Background()
	channel := testsupport.NewChannel(t, st, "Video", "Idea", "Edit", "Publish")
	columns := channel.SortedColumns()
	task := testsupport.NewTask(t, st, channel.ID, "Season opener")

	first, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	if first.Finalized {
		t.Fatal("first advance should not finalize")
	}
	if first.NewColumn.ID != columns[1].ID {
		t.Fatalf("advanced to %q, want %q", first.NewColumn.Name, columns[1].Name)
	}

	second, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("second advance failed: %v", err)
	}
	if second.NewColumn.ID != columns[2].ID {
		t.Fatalf("advanced to %q, want %q", second.NewColumn.Name, columns[2].Name)
	}

	last, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("final advance failed: %v", err)
	}
	if !last.Finalized {
		t.Fatal("advance from the last column should finalize")
	}
	if last.Event.EventType != board.EventFinalized {
		t.Fatalf("final event type = %q", last.Event.EventType)
	}
	if last.Completed.ColumnName != "Publish" {
		t.Fatalf("snapshot column = %q", last.Completed.ColumnName)
	}

	events := st.StageEvents(store.EventFilter{TaskID: task.ID})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, event := range events[:2] {
		if event.EventType != board.EventStageCompleted {
			t.Fatalf("event %d type = %q", i, event.EventType)
		}
	}
	if completed := st.CompletedTasks(channel.ID); len(completed) != 1 {
		t.Fatalf("expected exactly one snapshot, got %d", len(completed))
	}
	if _, err := st.TaskByID(task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected task removed from active set, got %v", err)
	}
}

func TestAdvanceBlockedUntilRequiredFieldsFilled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := workflow.NewEngine(st, nil)

	ctx := context.Background()
	channel := testsupport.NewChannel(t, st, "Video", "Edit", "Review")
	columns := channel.SortedColumns()
	task := testsupport.NewTask(t, st, channel.ID, "Teaser")

	script, err := st.AddField(ctx, channel.ID, store.NewField{Name: "Script Link", Type: board.FieldLink})
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	if err := st.SetFieldRequired(ctx, channel.ID, script.ID, columns[0].ID, true); err != nil {
		t.Fatalf("SetFieldRequired failed: %v", err)
	}

	_, err = engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	var missing *workflow.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if len(missing.Fields) != 1 || missing.Fields[0].ID != script.ID {
		t.Fatalf("unexpected blocking fields: %#v", missing.Fields)
	}
	if missing.Column.ID != columns[0].ID {
		t.Fatalf("blocking column = %q", missing.Column.Name)
	}

	// A rejected advance is pure: no movement and no audit record.
	current, err := st.TaskByID(task.ID)
	if err != nil {
		t.Fatalf("TaskByID failed: %v", err)
	}
	if current.ColumnID != columns[0].ID {
		t.Fatalf("task moved despite rejection: %q", current.ColumnID)
	}
	if events := st.StageEvents(store.EventFilter{TaskID: task.ID}); len(events) != 0 {
		t.Fatalf("expected no events after rejection, got %#v", events)
	}

	if _, err := st.SetTaskFieldValue(ctx, task.ID, script.ID, board.TextValue(board.FieldLink, "https://docs.example/script")); err != nil {
		t.Fatalf("SetTaskFieldValue failed: %v", err)
	}
	outcome, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("advance after filling field failed: %v", err)
	}
	if outcome.NewColumn.ID != columns[1].ID {
		t.Fatalf("advanced to %q, want %q", outcome.NewColumn.Name, columns[1].Name)
	}
}

func TestRequirementInLaterColumnDoesNotBlockEarlierStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := workflow.NewEngine(st, nil)

	ctx := context.Background()
	channel := testsupport.NewChannel(t, st, "Video", "Edit", "Review")
	columns := channel.SortedColumns()
	task := testsupport.NewTask(t, st, channel.ID, "Teaser")

	thumb, err := st.AddField(ctx, channel.ID, store.NewField{Name: "Thumbnail", Type: board.FieldLink})
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	if err := st.SetFieldRequired(ctx, channel.ID, thumb.ID, columns[1].ID, true); err != nil {
		t.Fatalf("SetFieldRequired failed: %v", err)
	}

	outcome, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if outcome.NewColumn.ID != columns[1].ID {
		t.Fatalf("advanced to %q, want %q", outcome.NewColumn.Name, columns[1].Name)
	}

	// The same requirement now blocks the task in its new column.
	if _, err := engine.Advance(ctx, task.ID, store.DefaultAdminUserID); err == nil {
		t.Fatal("expected requirement to block the review column")
	}
}

func TestAdvanceUnknownTaskIsInvalidReference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := workflow.NewEngine(st, nil)

	if _, err := engine.Advance(context.Background(), "no-such-task", store.DefaultAdminUserID); !errors.Is(err, workflow.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestAdvanceWarnsOnUnknownTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	engine := workflow.NewEngine(st, logger)

	if _, err := engine.Advance(context.Background(), "no-such-task", store.DefaultAdminUserID); !errors.Is(err, workflow.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if !strings.Contains(buf.String(), "unknown task") {
		t.Fatalf("expected warning about the unknown task, got %q", buf.String())
	}
}

func TestChecklistReportsBlockingFieldsInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	engine := workflow.NewEngine(st, nil)

	ctx := context.Background()
	channel := testsupport.NewChannel(t, st, "Video", "Edit")
	column := channel.SortedColumns()[0]
	task := testsupport.NewTask(t, st, channel.ID, "Teaser")

	script, err := st.AddField(ctx, channel.ID, store.NewField{Name: "Script", Type: board.FieldText})
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	thumb, err := st.AddField(ctx, channel.ID, store.NewField{Name: "Thumbnail", Type: board.FieldLink})
	if err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	for _, fieldID := range []string{script.ID, thumb.ID} {
		if err := st.SetFieldRequired(ctx, channel.ID, fieldID, column.ID, true); err != nil {
			t.Fatalf("SetFieldRequired failed: %v", err)
		}
	}
	if _, err := st.SetTaskFieldValue(ctx, task.ID, script.ID, board.TextValue(board.FieldText, "draft three")); err != nil {
		t.Fatalf("SetTaskFieldValue failed: %v", err)
	}

	blocking, err := engine.Checklist(task.ID)
	if err != nil {
		t.Fatalf("Checklist failed: %v", err)
	}
	if len(blocking) != 1 || blocking[0].ID != thumb.ID {
		t.Fatalf("unexpected checklist: %#v", blocking)
	}
}
