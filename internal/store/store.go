package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"flowboard/internal/board"
	"flowboard/internal/config"
	"flowboard/internal/logging"
)

// Slot names at the persistence boundary, one per collection.
const (
	slotChannels       = "channels"
	slotTasks          = "tasks"
	slotUsers          = "users"
	slotRoles          = "roles"
	slotOvertime       = "overtime_entries"
	slotCompletedTasks = "completed_tasks"
	slotStageEvents    = "stage_events"
	slotAppSettings    = "app_settings"
)

// Store owns the in-memory collections and writes them through the KV
// boundary after every mutation.
type Store struct {
	mu     sync.Mutex
	kv     KV
	lock   *flock.Flock
	logger *slog.Logger

	channels  map[string]*board.Channel
	tasks     map[string]*board.Task
	users     map[string]*board.User
	roles     map[string]*board.Role
	overtime  []board.OvertimeEntry
	completed []board.CompletedTask
	events    []board.StageEvent
	settings  board.AppSettings
}

// Open acquires the single-writer lock in the data directory, connects the
// SQLite slot database, and loads every collection.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "flowboard.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data lock: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}

	kv, err := OpenKV(filepath.Join(cfg.Paths.DataDir, "flowboard.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	s, err := NewWithKV(kv, logger)
	if err != nil {
		_ = kv.Close()
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

// NewWithKV builds a store over an injected persistence port. Used by Open
// and by tests that substitute the boundary.
func NewWithKV(kv KV, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		kv:     kv,
		logger: logging.WithComponent(logger, "store"),
	}
	if err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the data lock and the persistence boundary.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.kv != nil {
		err = s.kv.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// load rehydrates every collection from its slot. A missing or malformed slot
// falls back to the built-in default dataset for that collection; malformed
// payloads are logged and otherwise swallowed, favoring availability.
func (s *Store) load(ctx context.Context) error {
	defaults := defaultCollections()

	s.channels = loadMapSlot(ctx, s, slotChannels, defaults.channels)
	s.tasks = loadMapSlot(ctx, s, slotTasks, defaults.tasks)
	s.users = loadMapSlot(ctx, s, slotUsers, defaults.users)
	s.roles = loadMapSlot(ctx, s, slotRoles, defaults.roles)

	s.overtime = loadSliceSlot(ctx, s, slotOvertime, defaults.overtime)
	s.completed = loadSliceSlot(ctx, s, slotCompletedTasks, defaults.completed)
	s.events = loadSliceSlot(ctx, s, slotStageEvents, defaults.events)

	s.settings = defaults.settings
	if raw, ok := s.loadSlot(ctx, slotAppSettings); ok {
		var settings board.AppSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			s.logger.Warn("malformed slot, using defaults",
				logging.String("slot", slotAppSettings), logging.Error(err))
		} else {
			s.settings = settings
		}
	}
	return nil
}

func (s *Store) loadSlot(ctx context.Context, slot string) ([]byte, bool) {
	raw, ok, err := s.kv.Load(ctx, slot)
	if err != nil {
		s.logger.Warn("slot read failed, using defaults",
			logging.String("slot", slot), logging.Error(err))
		return nil, false
	}
	return raw, ok
}

type identified interface {
	board.Channel | board.Task | board.User | board.Role
}

func loadMapSlot[T identified](ctx context.Context, s *Store, slot string, fallback map[string]*T) map[string]*T {
	raw, ok := s.loadSlot(ctx, slot)
	if !ok {
		return fallback
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("malformed slot, using defaults",
			logging.String("slot", slot), logging.Error(err))
		return fallback
	}
	out := make(map[string]*T, len(records))
	for i := range records {
		record := records[i]
		out[recordID(&record)] = &record
	}
	return out
}

func loadSliceSlot[T any](ctx context.Context, s *Store, slot string, fallback []T) []T {
	raw, ok := s.loadSlot(ctx, slot)
	if !ok {
		return fallback
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("malformed slot, using defaults",
			logging.String("slot", slot), logging.Error(err))
		return fallback
	}
	return records
}

func recordID[T identified](record *T) string {
	switch v := any(record).(type) {
	case *board.Channel:
		return v.ID
	case *board.Task:
		return v.ID
	case *board.User:
		return v.ID
	case *board.Role:
		return v.ID
	default:
		return ""
	}
}

// persistLocked serializes every collection and writes the full set through
// the boundary in one transaction. Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	slots := make(map[string][]byte, 8)

	var err error
	if slots[slotChannels], err = marshalSorted(s.channels, func(c *board.Channel) (time.Time, string) { return c.CreatedAt, c.ID }); err != nil {
		return err
	}
	if slots[slotTasks], err = marshalSorted(s.tasks, func(t *board.Task) (time.Time, string) { return t.CreatedAt, t.ID }); err != nil {
		return err
	}
	if slots[slotUsers], err = marshalSorted(s.users, func(u *board.User) (time.Time, string) { return u.CreatedAt, u.ID }); err != nil {
		return err
	}
	if slots[slotRoles], err = marshalSorted(s.roles, func(r *board.Role) (time.Time, string) { return time.Time{}, r.ID }); err != nil {
		return err
	}
	if slots[slotOvertime], err = json.Marshal(s.overtime); err != nil {
		return fmt.Errorf("marshal %s: %w", slotOvertime, err)
	}
	if slots[slotCompletedTasks], err = json.Marshal(s.completed); err != nil {
		return fmt.Errorf("marshal %s: %w", slotCompletedTasks, err)
	}
	if slots[slotStageEvents], err = json.Marshal(s.events); err != nil {
		return fmt.Errorf("marshal %s: %w", slotStageEvents, err)
	}
	if slots[slotAppSettings], err = json.Marshal(s.settings); err != nil {
		return fmt.Errorf("marshal %s: %w", slotAppSettings, err)
	}

	if err := s.kv.SaveAll(ctx, slots); err != nil {
		return fmt.Errorf("write through: %w", err)
	}
	return nil
}

func marshalSorted[T any](records map[string]*T, key func(*T) (time.Time, string)) ([]byte, error) {
	out := make([]*T, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, idi := key(out[i])
		tj, idj := key(out[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal collection: %w", err)
	}
	return payload, nil
}

// commit persists the full collection set and rolls the in-memory change back
// when the write-through fails. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, revert func()) error {
	if err := s.persistLocked(ctx); err != nil {
		if revert != nil {
			revert()
		}
		return err
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}
