package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"flowboard/internal/board"
	"flowboard/internal/store"
	"flowboard/internal/workflow"
)

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance TASK",
		Short: "Complete the task's current stage",
		Long: "Complete the task's current stage. The task moves to the next column, or is\n" +
			"finalized into the completed archive when it sits in the last column. The\n" +
			"advance is refused while required fields for the current column are empty.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(st *store.Store, engine *workflow.Engine) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				actor, err := ctx.actingUser(st)
				if err != nil {
					return err
				}
				outcome, err := engine.Advance(cmd.Context(), task.ID, actor)
				var missing *workflow.MissingFieldsError
				if errors.As(err, &missing) {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s cannot leave %s yet:\n", task.Title, missing.Column.Name)
					for _, field := range missing.Fields {
						fmt.Fprintf(out, "  [ ] %s (%s)\n", field.Name, field.Type)
					}
					return fmt.Errorf("%d required field(s) are empty", len(missing.Fields))
				}
				if err != nil {
					return err
				}
				if outcome.Finalized {
					fmt.Fprintf(cmd.OutOrStdout(), "Finalized %s; archived as %s\n",
						task.Title, outcome.Completed.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", task.Title, outcome.NewColumn.Name)
				}
				return nil
			})
		},
	}
}

func newChecklistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checklist TASK",
		Short: "Show what still blocks the task from advancing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(st *store.Store, engine *workflow.Engine) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				blocking, err := engine.Checklist(task.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(blocking) == 0 {
					fmt.Fprintf(out, "%s is ready to advance\n", task.Title)
					return nil
				}
				fmt.Fprintf(out, "%s is blocked by %d field(s):\n", task.Title, len(blocking))
				for _, field := range blocking {
					fmt.Fprintf(out, "  [ ] %s (%s)\n", field.Name, field.Type)
				}
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var taskRef string
	var channelRef string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the append-only stage transition log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var filter store.EventFilter
				if taskRef != "" {
					// Finalized tasks are gone from the active set, so fall
					// back to the raw id when resolution fails.
					if task, err := resolveTask(st, taskRef); err == nil {
						filter.TaskID = task.ID
					} else {
						filter.TaskID = taskRef
					}
				}
				if channelRef != "" {
					channel, err := resolveChannel(st, channelRef)
					if err != nil {
						return err
					}
					filter.ChannelID = channel.ID
				}

				events := st.StageEvents(filter)
				if asJSON {
					return writeJSON(cmd, events)
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stage events")
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, event := range events {
					from, to := eventColumns(st, event)
					rows = append(rows, []string{
						formatTime(event.OccurredAt),
						string(event.EventType),
						eventTaskTitle(st, event.TaskID),
						from,
						to,
						userDisplay(st, event.ActorUserID),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"When", "Event", "Task", "From", "To", "Actor"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&taskRef, "task", "", "Filter by task")
	cmd.Flags().StringVar(&channelRef, "channel", "", "Filter by channel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func eventColumns(st *store.Store, event board.StageEvent) (string, string) {
	channel, err := st.ChannelByID(event.ChannelID)
	if err != nil {
		return event.FromColumnID, event.ToColumnID
	}
	return columnDisplay(channel, event.FromColumnID), columnDisplay(channel, event.ToColumnID)
}

// eventTaskTitle prefers the live task title, then the archived snapshot,
// then the raw id.
func eventTaskTitle(st *store.Store, taskID string) string {
	if task, err := st.TaskByID(taskID); err == nil {
		return truncate(task.Title, 40)
	}
	for _, snapshot := range st.CompletedTasks("") {
		if snapshot.TaskID == taskID {
			return truncate(snapshot.Title, 40)
		}
	}
	return taskID
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	var channelRef string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List completed task snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var channelID string
				if channelRef != "" {
					channel, err := resolveChannel(st, channelRef)
					if err != nil {
						return err
					}
					channelID = channel.ID
				}
				snapshots := st.CompletedTasks(channelID)
				if asJSON {
					return writeJSON(cmd, snapshots)
				}
				if len(snapshots) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks")
					return nil
				}
				rows := make([][]string, 0, len(snapshots))
				for _, snapshot := range snapshots {
					rows = append(rows, []string{
						snapshot.ID,
						truncate(snapshot.Title, 40),
						snapshot.ChannelName,
						snapshot.ColumnName,
						userDisplay(st, snapshot.CompletedBy),
						formatTime(snapshot.CompletedAt),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Title", "Channel", "Final Column", "Completed By", "Completed At"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channelRef, "channel", "", "Filter by channel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
