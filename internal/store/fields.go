package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flowboard/internal/board"
)

// NewField describes a custom field to declare on a channel.
type NewField struct {
	Name            string
	Type            board.FieldType
	ShowOnCardFront bool
	DropdownOptions []string
}

// FieldUpdate carries the declaration fields to merge. Nil pointers leave the
// current value untouched.
type FieldUpdate struct {
	Name            *string
	ShowOnCardFront *bool
	DropdownOptions *[]string
	Order           *int
}

// AddField declares a custom field on the channel. Field order continues
// after the highest existing order.
func (s *Store) AddField(ctx context.Context, channelID string, input NewField) (board.CustomField, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return board.CustomField{}, errors.New("field name is required")
	}
	if _, ok := board.ParseFieldType(string(input.Type)); !ok {
		return board.CustomField{}, fmt.Errorf("unknown field type %q", input.Type)
	}
	if input.Type == board.FieldDropdown && len(input.DropdownOptions) == 0 {
		return board.CustomField{}, errors.New("dropdown fields need at least one option")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return board.CustomField{}, err
	}

	order := 0
	for _, f := range channel.CustomFields {
		if f.Order >= order {
			order = f.Order + 1
		}
	}

	prev := channel.Clone()
	field := board.CustomField{
		ID:              newID(),
		Name:            name,
		Type:            input.Type,
		Order:           order,
		ShowOnCardFront: input.ShowOnCardFront,
		DropdownOptions: append([]string(nil), input.DropdownOptions...),
	}
	channel.CustomFields = append(channel.CustomFields, field)
	channel.UpdatedAt = now()

	if err := s.commit(ctx, func() { *channel = prev }); err != nil {
		return board.CustomField{}, err
	}
	return field.Clone(), nil
}

// UpdateField merges the supplied declaration fields into an existing field.
func (s *Store) UpdateField(ctx context.Context, channelID, fieldID string, update FieldUpdate) (board.CustomField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return board.CustomField{}, err
	}

	idx := -1
	for i := range channel.CustomFields {
		if channel.CustomFields[i].ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return board.CustomField{}, fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
	}

	prev := channel.Clone()
	field := &channel.CustomFields[idx]
	if update.Name != nil {
		field.Name = strings.TrimSpace(*update.Name)
	}
	if update.ShowOnCardFront != nil {
		field.ShowOnCardFront = *update.ShowOnCardFront
	}
	if update.DropdownOptions != nil {
		field.DropdownOptions = append([]string(nil), (*update.DropdownOptions)...)
	}
	if update.Order != nil {
		field.Order = *update.Order
	}
	channel.UpdatedAt = now()

	if err := s.commit(ctx, func() { *channel = prev }); err != nil {
		return board.CustomField{}, err
	}
	return field.Clone(), nil
}

// RemoveField deletes a field declaration and drops its values from the
// channel's active tasks. Completed snapshots keep what they copied.
func (s *Store) RemoveField(ctx context.Context, channelID, fieldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := channel.FieldByID(fieldID); !ok {
		return fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
	}

	prevChannel := channel.Clone()
	kept := channel.CustomFields[:0]
	for _, f := range channel.CustomFields {
		if f.ID != fieldID {
			kept = append(kept, f)
		}
	}
	channel.CustomFields = kept
	channel.UpdatedAt = now()

	prevValues := make(map[string]board.FieldValue)
	for _, task := range s.tasks {
		if task.ChannelID != channelID {
			continue
		}
		if value, ok := task.CustomFieldValues[fieldID]; ok {
			prevValues[task.ID] = value
			delete(task.CustomFieldValues, fieldID)
		}
	}

	revert := func() {
		*channel = prevChannel
		for taskID, value := range prevValues {
			if task, ok := s.tasks[taskID]; ok {
				if task.CustomFieldValues == nil {
					task.CustomFieldValues = make(map[string]board.FieldValue)
				}
				task.CustomFieldValues[fieldID] = value
			}
		}
	}
	return s.commit(ctx, revert)
}

// SetFieldRequired adds or removes a column from the field's mandatory set.
func (s *Store) SetFieldRequired(ctx context.Context, channelID, fieldID, columnID string, required bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := channel.ColumnByID(columnID); !ok {
		return fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}

	idx := -1
	for i := range channel.CustomFields {
		if channel.CustomFields[i].ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
	}

	prev := channel.Clone()
	field := &channel.CustomFields[idx]
	field.RequiredInColumns = removeString(field.RequiredInColumns, columnID)
	if required {
		field.RequiredInColumns = append(field.RequiredInColumns, columnID)
	}
	channel.UpdatedAt = now()

	return s.commit(ctx, func() { *channel = prev })
}

// SetFieldPermissions replaces the field's permission record. A nil record
// opens the field to every channel member.
func (s *Store) SetFieldPermissions(ctx context.Context, channelID, fieldID string, perms *board.FieldPermissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, err := s.channelLocked(channelID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range channel.CustomFields {
		if channel.CustomFields[i].ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("field %s: %w", fieldID, ErrNotFound)
	}

	prev := channel.Clone()
	if perms == nil {
		channel.CustomFields[idx].Permissions = nil
	} else {
		record := board.FieldPermissions{
			EditableByRoles:                append([]string(nil), perms.EditableByRoles...),
			EditableByColumnResponsibility: perms.EditableByColumnResponsibility,
			EditableByUsers:                append([]string(nil), perms.EditableByUsers...),
		}
		channel.CustomFields[idx].Permissions = &record
	}
	channel.UpdatedAt = now()

	return s.commit(ctx, func() { *channel = prev })
}
