package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"flowboard/internal/board"
	"flowboard/internal/logging"
)

// NewChannel describes a channel to create. Columns are ordered stage names;
// order values are assigned 0..n-1 in the given sequence.
type NewChannel struct {
	Name        string
	Description string
	Columns     []string
	ManagerID   string
	Members     []string
}

// ChannelUpdate carries the fields to merge into an existing channel. Nil
// pointers leave the current value untouched.
type ChannelUpdate struct {
	Name        *string
	Description *string
	ManagerID   *string
	Archived    *bool
}

// AddChannel creates a channel with its pipeline columns. Only a user whose
// role carries owner authority may create channels.
func (s *Store) AddChannel(ctx context.Context, input NewChannel, actingUserID string) (board.Channel, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return board.Channel{}, errors.New("channel name is required")
	}
	if len(input.Columns) == 0 {
		return board.Channel{}, errors.New("a channel needs at least one column")
	}

	ts := now()
	channel := &board.Channel{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ManagerID:   strings.TrimSpace(input.ManagerID),
		Members:     append([]string(nil), input.Members...),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	for i, colName := range input.Columns {
		colName = strings.TrimSpace(colName)
		if colName == "" {
			return board.Channel{}, fmt.Errorf("column %d has no name", i)
		}
		channel.Columns = append(channel.Columns, board.Column{
			ID:    newID(),
			Name:  colName,
			Order: i,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOwnerLocked(actingUserID) {
		return board.Channel{}, fmt.Errorf("create channel: %w: owner role required", ErrForbidden)
	}

	s.channels[channel.ID] = channel
	if err := s.commit(ctx, func() { delete(s.channels, channel.ID) }); err != nil {
		return board.Channel{}, err
	}
	s.logger.Info("channel created",
		logging.String(logging.FieldChannelID, channel.ID),
		logging.String("name", channel.Name),
		logging.Int("columns", len(channel.Columns)),
	)
	return channel.Clone(), nil
}

// UpdateChannel merges the supplied fields into the channel.
func (s *Store) UpdateChannel(ctx context.Context, id string, update ChannelUpdate) (board.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(id)
	if err != nil {
		return board.Channel{}, err
	}

	prev := channel.Clone()
	if update.Name != nil {
		channel.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		channel.Description = strings.TrimSpace(*update.Description)
	}
	if update.ManagerID != nil {
		channel.ManagerID = strings.TrimSpace(*update.ManagerID)
	}
	if update.Archived != nil {
		channel.Archived = *update.Archived
	}
	channel.UpdatedAt = now()

	if err := s.commit(ctx, func() { *channel = prev }); err != nil {
		return board.Channel{}, err
	}
	return channel.Clone(), nil
}

// ArchiveChannel marks the channel archived. Normal operation archives rather
// than hard-deletes.
func (s *Store) ArchiveChannel(ctx context.Context, id string) (board.Channel, error) {
	archived := true
	return s.UpdateChannel(ctx, id, ChannelUpdate{Archived: &archived})
}

// DeleteChannel removes the channel and its active tasks. Only a user whose
// role carries owner authority may hard-delete; stage events and completed
// snapshots are history and stay untouched.
func (s *Store) DeleteChannel(ctx context.Context, id, actingUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(id)
	if err != nil {
		return err
	}
	if !s.isOwnerLocked(actingUserID) {
		return fmt.Errorf("delete channel: %w: owner role required", ErrForbidden)
	}

	removedTasks := make(map[string]*board.Task)
	for taskID, task := range s.tasks {
		if task.ChannelID == id {
			removedTasks[taskID] = task
		}
	}
	for taskID := range removedTasks {
		delete(s.tasks, taskID)
	}
	delete(s.channels, id)

	revert := func() {
		s.channels[id] = channel
		for taskID, task := range removedTasks {
			s.tasks[taskID] = task
		}
	}
	if err := s.commit(ctx, revert); err != nil {
		return err
	}
	s.logger.Info("channel deleted",
		logging.String(logging.FieldChannelID, id),
		logging.String(logging.FieldActor, actingUserID),
		logging.Int("tasks_removed", len(removedTasks)),
	)
	return nil
}

// Channels returns every channel ordered by creation time.
func (s *Store) Channels() []board.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		out = append(out, channel.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ChannelByID returns a copy of the channel.
func (s *Store) ChannelByID(id string) (board.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(id)
	if err != nil {
		return board.Channel{}, err
	}
	return channel.Clone(), nil
}

// AddColumn appends a column to the end of the channel's pipeline.
func (s *Store) AddColumn(ctx context.Context, channelID, name string) (board.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return board.Column{}, errors.New("column name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return board.Column{}, err
	}

	prev := channel.Clone()
	column := board.Column{
		ID:    newID(),
		Name:  name,
		Order: len(channel.Columns),
	}
	channel.Columns = append(channel.Columns, column)
	channel.UpdatedAt = now()

	if err := s.commit(ctx, func() { *channel = prev }); err != nil {
		return board.Column{}, err
	}
	return column, nil
}

// RenameColumn changes a column's display name. Historical snapshots keep the
// name they copied at finalization.
func (s *Store) RenameColumn(ctx context.Context, channelID, columnID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("column name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}

	prev := channel.Clone()
	found := false
	for i := range channel.Columns {
		if channel.Columns[i].ID == columnID {
			channel.Columns[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}
	channel.UpdatedAt = now()

	return s.commit(ctx, func() { *channel = prev })
}

// RemoveColumn deletes an empty column and renumbers the remainder so order
// values stay gapless from zero.
func (s *Store) RemoveColumn(ctx context.Context, channelID, columnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := channel.ColumnByID(columnID); !ok {
		return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}
	for _, task := range s.tasks {
		if task.ChannelID == channelID && task.ColumnID == columnID {
			return fmt.Errorf("column still holds task %s", task.ID)
		}
	}

	prev := channel.Clone()
	kept := channel.Columns[:0]
	for _, col := range channel.SortedColumns() {
		if col.ID != columnID {
			kept = append(kept, col)
		}
	}
	for i := range kept {
		kept[i].Order = i
	}
	channel.Columns = kept
	delete(channel.ColumnAssignments, columnID)
	for i := range channel.CustomFields {
		channel.CustomFields[i].RequiredInColumns = removeString(channel.CustomFields[i].RequiredInColumns, columnID)
	}
	channel.UpdatedAt = now()

	return s.commit(ctx, func() { *channel = prev })
}

// AddMember grants a user channel access.
func (s *Store) AddMember(ctx context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	for _, id := range channel.Members {
		if id == userID {
			return nil
		}
	}

	prev := channel.Clone()
	channel.Members = append(channel.Members, userID)
	channel.UpdatedAt = now()
	return s.commit(ctx, func() { *channel = prev })
}

// RemoveMember revokes a user's channel access.
func (s *Store) RemoveMember(ctx context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}

	prev := channel.Clone()
	channel.Members = removeString(channel.Members, userID)
	channel.UpdatedAt = now()
	return s.commit(ctx, func() { *channel = prev })
}

// SetManager sets or clears (empty id) the channel manager.
func (s *Store) SetManager(ctx context.Context, channelID, userID string) error {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if userID != "" {
		if _, ok := s.users[userID]; !ok {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
	}

	prev := channel.Clone()
	channel.ManagerID = userID
	channel.UpdatedAt = now()
	return s.commit(ctx, func() { *channel = prev })
}

// SetColumnAssignments replaces the user/role ids responsible for a column.
func (s *Store) SetColumnAssignments(ctx context.Context, channelID, columnID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := channel.ColumnByID(columnID); !ok {
		return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}

	prev := channel.Clone()
	if channel.ColumnAssignments == nil {
		channel.ColumnAssignments = make(map[string][]string)
	}
	if len(ids) == 0 {
		delete(channel.ColumnAssignments, columnID)
	} else {
		channel.ColumnAssignments[columnID] = append([]string(nil), ids...)
	}
	channel.UpdatedAt = now()
	return s.commit(ctx, func() { *channel = prev })
}

func (s *Store) channelLocked(id string) (*board.Channel, error) {
	channel, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	return channel, nil
}

func (s *Store) isOwnerLocked(userID string) bool {
	user, ok := s.users[userID]
	if !ok {
		return false
	}
	role, ok := s.roles[user.RoleID]
	if !ok {
		return false
	}
	return role.Name == board.OwnerRoleName
}

func removeString(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
