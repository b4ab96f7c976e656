package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"flowboard/internal/board"
)

// AddUser creates a user with the given role.
func (s *Store) AddUser(ctx context.Context, name, roleID string) (board.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return board.User{}, errors.New("user name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[roleID]; !ok {
		return board.User{}, fmt.Errorf("role %s: %w", roleID, ErrNotFound)
	}

	user := &board.User{
		ID:        newID(),
		Name:      name,
		RoleID:    roleID,
		CreatedAt: now(),
	}
	s.users[user.ID] = user
	if err := s.commit(ctx, func() { delete(s.users, user.ID) }); err != nil {
		return board.User{}, err
	}
	return *user, nil
}

// Users returns every user ordered by creation time.
func (s *Store) Users() []board.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(id string) (board.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return board.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return *user, nil
}

// AddRole creates a role.
func (s *Store) AddRole(ctx context.Context, name string) (board.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return board.Role{}, errors.New("role name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role := &board.Role{ID: newID(), Name: name}
	s.roles[role.ID] = role
	if err := s.commit(ctx, func() { delete(s.roles, role.ID) }); err != nil {
		return board.Role{}, err
	}
	return *role, nil
}

// Roles returns every role ordered by name.
func (s *Store) Roles() []board.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RoleByID returns the role with the given id.
func (s *Store) RoleByID(id string) (board.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[id]
	if !ok {
		return board.Role{}, fmt.Errorf("role %s: %w", id, ErrNotFound)
	}
	return *role, nil
}

// AddOvertimeEntry records extra hours against a channel.
func (s *Store) AddOvertimeEntry(ctx context.Context, userID, channelID string, date time.Time, hours float64, note string) (board.OvertimeEntry, error) {
	if hours <= 0 {
		return board.OvertimeEntry{}, errors.New("hours must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return board.OvertimeEntry{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if channelID != "" {
		if _, ok := s.channels[channelID]; !ok {
			return board.OvertimeEntry{}, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
		}
	}

	entry := board.OvertimeEntry{
		ID:        newID(),
		UserID:    userID,
		ChannelID: channelID,
		Date:      date.UTC(),
		Hours:     hours,
		Note:      strings.TrimSpace(note),
		CreatedAt: now(),
	}
	s.overtime = append(s.overtime, entry)
	if err := s.commit(ctx, func() { s.overtime = s.overtime[:len(s.overtime)-1] }); err != nil {
		return board.OvertimeEntry{}, err
	}
	return entry, nil
}

// OvertimeEntries returns entries in creation order, optionally filtered by user.
func (s *Store) OvertimeEntries(userID string) []board.OvertimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.OvertimeEntry, 0, len(s.overtime))
	for _, entry := range s.overtime {
		if userID != "" && entry.UserID != userID {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// DeleteOvertimeEntry removes an entry by id.
func (s *Store) DeleteOvertimeEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.overtime {
		if s.overtime[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("overtime entry %s: %w", id, ErrNotFound)
	}

	prev := append([]board.OvertimeEntry(nil), s.overtime...)
	s.overtime = append(s.overtime[:idx], s.overtime[idx+1:]...)
	return s.commit(ctx, func() { s.overtime = prev })
}

// Settings returns the app settings.
func (s *Store) Settings() board.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the app settings.
func (s *Store) UpdateSettings(ctx context.Context, settings board.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.settings
	settings.UpdatedAt = now()
	s.settings = settings
	return s.commit(ctx, func() { s.settings = prev })
}
