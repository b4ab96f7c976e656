package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flowboard/internal/board"
	"flowboard/internal/permissions"
	"flowboard/internal/store"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	taskCmd.AddCommand(newTaskAddCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskSetCommand(ctx))
	taskCmd.AddCommand(newTaskUpdateCommand(ctx))
	taskCmd.AddCommand(newTaskRemoveCommand(ctx))

	return taskCmd
}

// resolveTask accepts a task id or a unique, case-insensitive title.
func resolveTask(st *store.Store, ref string) (board.Task, error) {
	ref = strings.TrimSpace(ref)
	if task, err := st.TaskByID(ref); err == nil {
		return task, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return board.Task{}, err
	}
	var matches []board.Task
	for _, task := range st.Tasks("") {
		if strings.EqualFold(task.Title, ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return board.Task{}, fmt.Errorf("task %q: %w", ref, store.ErrNotFound)
	default:
		return board.Task{}, fmt.Errorf("task title %q is ambiguous (%d matches); use the id", ref, len(matches))
	}
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	var description string
	var column string
	var assign string
	var due string
	var notes string
	var links []string

	cmd := &cobra.Command{
		Use:   "add CHANNEL TITLE",
		Short: "Create a task in a channel's pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				actor, err := ctx.actingUser(st)
				if err != nil {
					return err
				}
				if !canWorkIn(st, channel, actor) {
					return fmt.Errorf("create task in %q: %w: channel membership required", channel.Name, store.ErrForbidden)
				}
				input := store.NewTask{
					ChannelID:   channel.ID,
					Title:       args[1],
					Description: description,
					AssignedTo:  assign,
					Notes:       notes,
					Links:       links,
				}
				if column != "" {
					col, err := resolveColumn(channel, column)
					if err != nil {
						return err
					}
					input.ColumnID = col.ID
				}
				if due != "" {
					date, err := parseDate(due)
					if err != nil {
						return err
					}
					input.DueDate = &date
				}
				task, err := st.AddTask(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s) in %s\n",
					task.Title, task.ID, columnDisplay(channel, task.ColumnID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&column, "column", "", "Starting column (defaults to the first)")
	cmd.Flags().StringVar(&assign, "assign", "", "Assignee user id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&links, "link", nil, "Related link (repeatable)")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list CHANNEL",
		Short: "List a channel's active tasks by pipeline position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				tasks := st.Tasks(channel.ID)
				if asJSON {
					return writeJSON(cmd, tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No active tasks")
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for _, column := range channel.SortedColumns() {
					for _, task := range tasks {
						if task.ColumnID != column.ID {
							continue
						}
						rows = append(rows, []string{
							task.ID,
							truncate(task.Title, 40),
							column.Name,
							userDisplay(st, task.AssignedTo),
							formatDate(task.DueDate),
							frontFields(channel, task),
						})
					}
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Title", "Column", "Assigned", "Due", "Fields"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

// frontFields renders the values flagged for the card front.
func frontFields(channel board.Channel, task board.Task) string {
	var parts []string
	for _, field := range channel.SortedFields() {
		if !field.ShowOnCardFront {
			continue
		}
		value, ok := task.CustomFieldValues[field.ID]
		if !ok || value.Blank() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", field.Name, value.Display()))
	}
	return strings.Join(parts, " ")
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show TASK",
		Short: "Show a task with its custom field values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, task)
				}
				channel, err := st.ChannelByID(task.ChannelID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", task.Title, task.ID)
				fmt.Fprintf(out, "Channel: %s   Column: %s\n", channel.Name, columnDisplay(channel, task.ColumnID))
				if task.Description != "" {
					fmt.Fprintln(out, task.Description)
				}
				if task.AssignedTo != "" {
					fmt.Fprintf(out, "Assigned: %s\n", userDisplay(st, task.AssignedTo))
				}
				if task.DueDate != nil {
					fmt.Fprintf(out, "Due: %s\n", formatDate(task.DueDate))
				}
				if task.Notes != "" {
					fmt.Fprintf(out, "Notes: %s\n", task.Notes)
				}
				for _, link := range task.Links {
					fmt.Fprintf(out, "Link: %s\n", link)
				}

				if fields := channel.SortedFields(); len(fields) > 0 {
					rows := make([][]string, 0, len(fields))
					for _, field := range fields {
						value := task.CustomFieldValues[field.ID]
						marker := ""
						if field.RequiredIn(task.ColumnID) && value.Blank() {
							marker = "required"
						}
						rows = append(rows, []string{field.Name, string(field.Type), value.Display(), marker})
					}
					fmt.Fprintln(out, renderTable(out,
						[]string{"Field", "Type", "Value", ""},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				}
				fmt.Fprintf(out, "Created %s, updated %s\n", formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newTaskSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set TASK FIELD VALUE",
		Short: "Set a custom field value on a task",
		Long: "Set a custom field value on a task. An empty value clears the field. The\n" +
			"acting user must be allowed to edit the field.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				channel, err := st.ChannelByID(task.ChannelID)
				if err != nil {
					return err
				}
				field, err := resolveField(channel, args[1])
				if err != nil {
					return err
				}
				actorID, err := ctx.actingUser(st)
				if err != nil {
					return err
				}
				actor, err := st.UserByID(actorID)
				if err != nil {
					return err
				}
				if !permissions.CanEdit(field, task, channel, actor) {
					return fmt.Errorf("edit field %q: %w", field.Name, store.ErrForbidden)
				}
				value, err := board.ParseFieldValue(field, args[2])
				if err != nil {
					return err
				}
				if _, err := st.SetTaskFieldValue(cmd.Context(), task.ID, field.ID, value); err != nil {
					return err
				}
				if value.Blank() {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s on %s\n", field.Name, task.Title)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s on %s\n", field.Name, value.Display(), task.Title)
				}
				return nil
			})
		},
	}
}

func newTaskUpdateCommand(ctx *commandContext) *cobra.Command {
	var title string
	var description string
	var assign string
	var due string
	var clearDue bool
	var notes string

	cmd := &cobra.Command{
		Use:   "update TASK",
		Short: "Update a task's own fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				var update store.TaskUpdate
				if cmd.Flags().Changed("title") {
					update.Title = &title
				}
				if cmd.Flags().Changed("description") {
					update.Description = &description
				}
				if cmd.Flags().Changed("assign") {
					update.AssignedTo = &assign
				}
				if clearDue {
					var cleared *time.Time
					update.DueDate = &cleared
				} else if cmd.Flags().Changed("due") {
					date, err := parseDate(due)
					if err != nil {
						return err
					}
					ptr := &date
					update.DueDate = &ptr
				}
				if cmd.Flags().Changed("notes") {
					update.Notes = &notes
				}
				updated, err := st.UpdateTask(cmd.Context(), task.ID, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", updated.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&assign, "assign", "", "Assignee user id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Clear the due date")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	return cmd
}

func newTaskRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TASK",
		Short: "Delete an active task without finalizing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				task, err := resolveTask(st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteTask(cmd.Context(), task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", task.Title)
				return nil
			})
		},
	}
}
