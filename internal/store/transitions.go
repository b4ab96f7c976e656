package store

import (
	"context"
	"fmt"

	"flowboard/internal/board"
	"flowboard/internal/logging"
)

// CompleteStage moves a task from one column to the next and appends the
// matching stage_completed event under a single lock hold. The task mutation,
// the event append, and the write-through succeed or fail as one unit: a
// failed write rolls the in-memory state back, so no observer ever sees the
// task advanced without its audit record.
func (s *Store) CompleteStage(ctx context.Context, taskID, fromColumnID, toColumnID, actorUserID string) (board.StageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(taskID)
	if err != nil {
		return board.StageEvent{}, err
	}
	if task.ColumnID != fromColumnID {
		return board.StageEvent{}, fmt.Errorf("task %s left column %s already", taskID, fromColumnID)
	}

	ts := now()
	event := board.StageEvent{
		ID:           newID(),
		TaskID:       task.ID,
		ChannelID:    task.ChannelID,
		ActorUserID:  actorUserID,
		FromColumnID: fromColumnID,
		ToColumnID:   toColumnID,
		EventType:    board.EventStageCompleted,
		OccurredAt:   ts,
	}

	prev := task.Clone()
	task.ColumnID = toColumnID
	task.UpdatedAt = ts
	s.events = append(s.events, event)

	revert := func() {
		*task = prev
		s.events = s.events[:len(s.events)-1]
	}
	if err := s.commit(ctx, revert); err != nil {
		return board.StageEvent{}, err
	}

	s.logger.Info("stage completed",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldChannelID, task.ChannelID),
		logging.String(logging.FieldActor, actorUserID),
		logging.String("from_column", fromColumnID),
		logging.String("to_column", toColumnID),
	)
	return event, nil
}

// FinalizeTask completes a task sitting in its terminal column: it appends a
// finalized event (from == to), derives the write-once CompletedTask snapshot
// with copied display names, and removes the task from the active set, all as
// one unit.
func (s *Store) FinalizeTask(ctx context.Context, taskID string, column board.Column, actorUserID string) (board.StageEvent, board.CompletedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(taskID)
	if err != nil {
		return board.StageEvent{}, board.CompletedTask{}, err
	}
	if task.ColumnID != column.ID {
		return board.StageEvent{}, board.CompletedTask{}, fmt.Errorf("task %s left column %s already", taskID, column.ID)
	}
	channel, err := s.channelLocked(task.ChannelID)
	if err != nil {
		return board.StageEvent{}, board.CompletedTask{}, err
	}

	ts := now()
	event := board.StageEvent{
		ID:           newID(),
		TaskID:       task.ID,
		ChannelID:    task.ChannelID,
		ActorUserID:  actorUserID,
		FromColumnID: column.ID,
		ToColumnID:   column.ID,
		EventType:    board.EventFinalized,
		OccurredAt:   ts,
	}

	snapshotSource := task.Clone()
	snapshot := board.CompletedTask{
		ID:                newID(),
		TaskID:            task.ID,
		Title:             snapshotSource.Title,
		Description:       snapshotSource.Description,
		ChannelID:         channel.ID,
		ChannelName:       channel.Name,
		ColumnName:        column.Name,
		AssignedTo:        snapshotSource.AssignedTo,
		CustomFieldValues: snapshotSource.CustomFieldValues,
		Notes:             snapshotSource.Notes,
		Links:             snapshotSource.Links,
		CompletedBy:       actorUserID,
		CompletedAt:       ts,
		TaskCreatedAt:     snapshotSource.CreatedAt,
	}

	delete(s.tasks, task.ID)
	s.events = append(s.events, event)
	s.completed = append(s.completed, snapshot)

	revert := func() {
		s.tasks[task.ID] = task
		s.events = s.events[:len(s.events)-1]
		s.completed = s.completed[:len(s.completed)-1]
	}
	if err := s.commit(ctx, revert); err != nil {
		return board.StageEvent{}, board.CompletedTask{}, err
	}

	s.logger.Info("task finalized",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldChannelID, channel.ID),
		logging.String(logging.FieldActor, actorUserID),
		logging.String(logging.FieldColumn, column.Name),
	)
	return event, snapshot, nil
}
