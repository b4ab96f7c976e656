package store

import "flowboard/internal/board"

// EventFilter narrows a stage-event listing. Zero values match everything.
type EventFilter struct {
	TaskID    string
	ChannelID string
}

// StageEvents returns audit records matching the filter in append order.
// There is no API to edit or delete an event.
func (s *Store) StageEvents(filter EventFilter) []board.StageEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.StageEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.TaskID != "" && event.TaskID != filter.TaskID {
			continue
		}
		if filter.ChannelID != "" && event.ChannelID != filter.ChannelID {
			continue
		}
		out = append(out, event)
	}
	return out
}

// CompletedTasks returns archival snapshots in completion order, optionally
// filtered to one channel. Snapshots are write-once; no update exists.
func (s *Store) CompletedTasks(channelID string) []board.CompletedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]board.CompletedTask, 0, len(s.completed))
	for _, snapshot := range s.completed {
		if channelID != "" && snapshot.ChannelID != channelID {
			continue
		}
		cp := snapshot
		if snapshot.CustomFieldValues != nil {
			cp.CustomFieldValues = make(map[string]board.FieldValue, len(snapshot.CustomFieldValues))
			for id, v := range snapshot.CustomFieldValues {
				cp.CustomFieldValues[id] = v.Clone()
			}
		}
		cp.Links = append([]string(nil), snapshot.Links...)
		out = append(out, cp)
	}
	return out
}
