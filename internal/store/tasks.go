package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"flowboard/internal/board"
	"flowboard/internal/logging"
)

// NewTask describes a task to create. The task starts in the channel's first
// column unless ColumnID names another column of the same channel.
type NewTask struct {
	ChannelID   string
	Title       string
	Description string
	ColumnID    string
	AssignedTo  string
	DueDate     *time.Time
	Notes       string
	Links       []string
}

// TaskUpdate carries the fields to merge into an existing task. Nil pointers
// leave the current value untouched. UpdatedAt always refreshes.
type TaskUpdate struct {
	Title       *string
	Description *string
	AssignedTo  *string
	DueDate     **time.Time
	Notes       *string
	Links       *[]string
}

// AddTask creates a task in the channel's pipeline.
func (s *Store) AddTask(ctx context.Context, input NewTask) (board.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return board.Task{}, errors.New("task title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(input.ChannelID)
	if err != nil {
		return board.Task{}, err
	}
	if channel.Archived {
		return board.Task{}, fmt.Errorf("channel %s is archived", channel.ID)
	}

	columnID := strings.TrimSpace(input.ColumnID)
	if columnID == "" {
		cols := channel.SortedColumns()
		if len(cols) == 0 {
			return board.Task{}, fmt.Errorf("channel %s has no columns", channel.ID)
		}
		columnID = cols[0].ID
	} else if _, ok := channel.ColumnByID(columnID); !ok {
		return board.Task{}, fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}

	ts := now()
	task := &board.Task{
		ID:          newID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ChannelID:   channel.ID,
		ColumnID:    columnID,
		AssignedTo:  strings.TrimSpace(input.AssignedTo),
		Notes:       input.Notes,
		Links:       append([]string(nil), input.Links...),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if input.DueDate != nil {
		due := input.DueDate.UTC()
		task.DueDate = &due
	}

	s.tasks[task.ID] = task
	if err := s.commit(ctx, func() { delete(s.tasks, task.ID) }); err != nil {
		return board.Task{}, err
	}
	s.logger.Info("task created",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldChannelID, channel.ID),
		logging.String("title", task.Title),
	)
	return task.Clone(), nil
}

// UpdateTask merges the supplied fields into the task and refreshes UpdatedAt.
func (s *Store) UpdateTask(ctx context.Context, id string, update TaskUpdate) (board.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(id)
	if err != nil {
		return board.Task{}, err
	}

	prev := task.Clone()
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return board.Task{}, errors.New("task title is required")
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if update.AssignedTo != nil {
		task.AssignedTo = strings.TrimSpace(*update.AssignedTo)
	}
	if update.DueDate != nil {
		if *update.DueDate == nil {
			task.DueDate = nil
		} else {
			due := (*update.DueDate).UTC()
			task.DueDate = &due
		}
	}
	if update.Notes != nil {
		task.Notes = *update.Notes
	}
	if update.Links != nil {
		task.Links = append([]string(nil), (*update.Links)...)
	}
	task.UpdatedAt = now()

	if err := s.commit(ctx, func() { *task = prev }); err != nil {
		return board.Task{}, err
	}
	return task.Clone(), nil
}

// DeleteTask removes a task from the active set without finalizing it.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(id)
	if err != nil {
		return err
	}

	delete(s.tasks, id)
	return s.commit(ctx, func() { s.tasks[id] = task })
}

// SetTaskFieldValue stores a custom field value on the task. This is the edit
// boundary: the value's kind must match the field declaration and dropdown
// values must name a declared option. A blank value clears the field.
func (s *Store) SetTaskFieldValue(ctx context.Context, taskID, fieldID string, value board.FieldValue) (board.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(taskID)
	if err != nil {
		return board.Task{}, err
	}
	channel, err := s.channelLocked(task.ChannelID)
	if err != nil {
		return board.Task{}, err
	}
	field, ok := channel.FieldByID(fieldID)
	if !ok {
		return board.Task{}, fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
	}
	if err := value.ConformsTo(field); err != nil {
		return board.Task{}, err
	}

	prev := task.Clone()
	if value.Blank() {
		delete(task.CustomFieldValues, fieldID)
	} else {
		if task.CustomFieldValues == nil {
			task.CustomFieldValues = make(map[string]board.FieldValue)
		}
		task.CustomFieldValues[fieldID] = value.Clone()
	}
	task.UpdatedAt = now()

	if err := s.commit(ctx, func() { *task = prev }); err != nil {
		return board.Task{}, err
	}
	return task.Clone(), nil
}

// Tasks returns active tasks, optionally filtered to one channel, ordered by
// creation time.
func (s *Store) Tasks(channelID string) []board.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if channelID != "" && task.ChannelID != channelID {
			continue
		}
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TaskByID returns a copy of the task.
func (s *Store) TaskByID(id string) (board.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskLocked(id)
	if err != nil {
		return board.Task{}, err
	}
	return task.Clone(), nil
}

func (s *Store) taskLocked(id string) (*board.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return task, nil
}
