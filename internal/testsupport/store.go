package testsupport

import (
	"context"
	"testing"

	"flowboard/internal/board"
	"flowboard/internal/config"
	"flowboard/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewChannel creates a channel with the given ordered columns for tests.
func NewChannel(t testing.TB, st *store.Store, name string, columns ...string) board.Channel {
	t.Helper()

	channel, err := st.AddChannel(context.Background(), store.NewChannel{
		Name:    name,
		Columns: columns,
	}, store.DefaultAdminUserID)
	if err != nil {
		t.Fatalf("store.AddChannel: %v", err)
	}
	return channel
}

// NewTask creates a task in the channel's first column for tests.
func NewTask(t testing.TB, st *store.Store, channelID, title string) board.Task {
	t.Helper()

	task, err := st.AddTask(context.Background(), store.NewTask{
		ChannelID: channelID,
		Title:     title,
	})
	if err != nil {
		t.Fatalf("store.AddTask: %v", err)
	}
	return task
}
