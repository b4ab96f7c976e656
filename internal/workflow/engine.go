package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"flowboard/internal/board"
	"flowboard/internal/checklist"
	"flowboard/internal/logging"
	"flowboard/internal/store"
)

// ErrInvalidReference marks an advance attempt whose task, channel, or column
// context could not be resolved. The attempt is aborted before any mutation.
var ErrInvalidReference = errors.New("invalid workflow reference")

// MissingFieldsError reports an advance rejected by the mandatory-field
// guard. The fields are the blocking requirements in channel field order, so
// callers can render them as a checklist.
type MissingFieldsError struct {
	TaskID string
	Column board.Column
	Fields []board.CustomField
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("task %s cannot leave column %q: missing required fields: %s",
		e.TaskID, e.Column.Name, strings.Join(checklist.Names(e.Fields), ", "))
}

// Outcome describes what a successful advance did. Exactly one of the two
// shapes applies: a move to NewColumn, or a finalization carrying the
// archived snapshot. Event is set in both cases.
type Outcome struct {
	Finalized bool
	NewColumn board.Column
	Event     board.StageEvent
	Completed board.CompletedTask
}

// Engine drives stage transitions against a store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEngine returns an engine bound to the given store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:  st,
		logger: logging.WithComponent(logger, "workflow"),
	}
}

// Advance completes the current stage of the identified task. The task's
// channel and current column are resolved fresh, the mandatory-field guard
// runs against that column, and on success the task either moves to the next
// column or, from the last column, is finalized into the completed archive.
// A rejected or failed advance leaves every collection untouched.
func (e *Engine) Advance(ctx context.Context, taskID, actingUserID string) (Outcome, error) {
	task, err := e.store.TaskByID(taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("advance aborted: unknown task", logging.String(logging.FieldTaskID, taskID))
			return Outcome{}, fmt.Errorf("%w: task %s", ErrInvalidReference, taskID)
		}
		return Outcome{}, err
	}
	channel, err := e.store.ChannelByID(task.ChannelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("advance aborted: unknown channel",
				logging.String(logging.FieldTaskID, taskID),
				logging.String(logging.FieldChannelID, task.ChannelID),
			)
			return Outcome{}, fmt.Errorf("%w: channel %s", ErrInvalidReference, task.ChannelID)
		}
		return Outcome{}, err
	}
	current, ok := channel.ColumnByID(task.ColumnID)
	if !ok {
		e.logger.Warn("advance aborted: task column missing from channel",
			logging.String(logging.FieldTaskID, taskID),
			logging.String(logging.FieldChannelID, channel.ID),
			logging.String(logging.FieldColumn, task.ColumnID),
		)
		return Outcome{}, fmt.Errorf("%w: column %s in channel %s", ErrInvalidReference, task.ColumnID, channel.ID)
	}

	if missing := checklist.Missing(task, channel); len(missing) > 0 {
		return Outcome{}, &MissingFieldsError{TaskID: task.ID, Column: current, Fields: missing}
	}

	next, ok := channel.NextColumn(current)
	if !ok {
		event, completed, err := e.store.FinalizeTask(ctx, task.ID, current, actingUserID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Finalized: true, Event: event, Completed: completed}, nil
	}

	event, err := e.store.CompleteStage(ctx, task.ID, current.ID, next.ID, actingUserID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{NewColumn: next, Event: event}, nil
}

// Checklist returns the fields still blocking the task from leaving its
// current column, without attempting an advance.
func (e *Engine) Checklist(taskID string) ([]board.CustomField, error) {
	task, err := e.store.TaskByID(taskID)
	if err != nil {
		return nil, err
	}
	channel, err := e.store.ChannelByID(task.ChannelID)
	if err != nil {
		return nil, err
	}
	return checklist.Missing(task, channel), nil
}
