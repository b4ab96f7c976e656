package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flowboard/internal/board"
	"flowboard/internal/store"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage channels and their pipelines",
	}

	channelCmd.AddCommand(newChannelCreateCommand(ctx))
	channelCmd.AddCommand(newChannelListCommand(ctx))
	channelCmd.AddCommand(newChannelShowCommand(ctx))
	channelCmd.AddCommand(newChannelArchiveCommand(ctx))
	channelCmd.AddCommand(newChannelDeleteCommand(ctx))
	channelCmd.AddCommand(newChannelMemberCommand(ctx))
	channelCmd.AddCommand(newChannelManagerCommand(ctx))
	channelCmd.AddCommand(newChannelAssignCommand(ctx))
	channelCmd.AddCommand(newChannelColumnCommand(ctx))

	return channelCmd
}

// resolveChannel accepts a channel id or an exact, case-insensitive name.
func resolveChannel(st *store.Store, ref string) (board.Channel, error) {
	ref = strings.TrimSpace(ref)
	if channel, err := st.ChannelByID(ref); err == nil {
		return channel, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return board.Channel{}, err
	}
	for _, channel := range st.Channels() {
		if strings.EqualFold(channel.Name, ref) {
			return channel, nil
		}
	}
	return board.Channel{}, fmt.Errorf("channel %q: %w", ref, store.ErrNotFound)
}

// resolveColumn accepts a column id or an exact, case-insensitive name within
// the channel.
func resolveColumn(channel board.Channel, ref string) (board.Column, error) {
	ref = strings.TrimSpace(ref)
	if column, ok := channel.ColumnByID(ref); ok {
		return column, nil
	}
	for _, column := range channel.Columns {
		if strings.EqualFold(column.Name, ref) {
			return column, nil
		}
	}
	return board.Column{}, fmt.Errorf("column %q in channel %q: %w", ref, channel.Name, store.ErrNotFound)
}

func newChannelCreateCommand(ctx *commandContext) *cobra.Command {
	var columns []string
	var description string
	var manager string
	var members []string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a channel with its pipeline columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				actor, err := ctx.actingUser(st)
				if err != nil {
					return err
				}
				channel, err := st.AddChannel(cmd.Context(), store.NewChannel{
					Name:        args[0],
					Description: description,
					Columns:     columns,
					ManagerID:   manager,
					Members:     members,
				}, actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created channel %s (%s) with %d columns\n",
					channel.Name, channel.ID, len(channel.Columns))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", []string{"Backlog", "In Progress", "Done"}, "Ordered pipeline column names")
	cmd.Flags().StringVar(&description, "description", "", "Channel description")
	cmd.Flags().StringVar(&manager, "manager", "", "Manager user id")
	cmd.Flags().StringArrayVar(&members, "member", nil, "Member user id (repeatable)")
	return cmd
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	var includeArchived bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channels := st.Channels()
				if !includeArchived {
					active := channels[:0]
					for _, channel := range channels {
						if !channel.Archived {
							active = append(active, channel)
						}
					}
					channels = active
				}
				if asJSON {
					return writeJSON(cmd, channels)
				}
				if len(channels) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No channels")
					return nil
				}
				rows := make([][]string, 0, len(channels))
				for _, channel := range channels {
					rows = append(rows, []string{
						channel.ID,
						channel.Name,
						fmt.Sprintf("%d", len(channel.Columns)),
						fmt.Sprintf("%d", len(st.Tasks(channel.ID))),
						userDisplay(st, channel.ManagerID),
						yesNo(channel.Archived),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Name", "Columns", "Tasks", "Manager", "Archived"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeArchived, "all", false, "Include archived channels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newChannelShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show CHANNEL",
		Short: "Show a channel's pipeline, fields, and membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, channel)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", channel.Name, channel.ID)
				if channel.Description != "" {
					fmt.Fprintln(out, channel.Description)
				}
				if channel.ManagerID != "" {
					fmt.Fprintf(out, "Manager: %s\n", userDisplay(st, channel.ManagerID))
				}
				if channel.Archived {
					fmt.Fprintln(out, "Archived")
				}

				columnRows := make([][]string, 0, len(channel.Columns))
				for _, column := range channel.SortedColumns() {
					assigned := channel.ColumnAssignments[column.ID]
					names := make([]string, 0, len(assigned))
					for _, id := range assigned {
						names = append(names, userDisplay(st, id))
					}
					count := 0
					for _, task := range st.Tasks(channel.ID) {
						if task.ColumnID == column.ID {
							count++
						}
					}
					columnRows = append(columnRows, []string{
						fmt.Sprintf("%d", column.Order),
						column.Name,
						column.ID,
						fmt.Sprintf("%d", count),
						strings.Join(names, ", "),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"#", "Column", "ID", "Tasks", "Responsible"},
					columnRows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))

				if fields := channel.SortedFields(); len(fields) > 0 {
					fieldRows := make([][]string, 0, len(fields))
					for _, field := range fields {
						required := make([]string, 0, len(field.RequiredInColumns))
						for _, columnID := range field.RequiredInColumns {
							required = append(required, columnDisplay(channel, columnID))
						}
						fieldRows = append(fieldRows, []string{
							field.Name,
							string(field.Type),
							field.ID,
							strings.Join(required, ", "),
							yesNo(field.Permissions != nil),
						})
					}
					fmt.Fprintln(out, renderTable(out,
						[]string{"Field", "Type", "ID", "Required In", "Restricted"},
						fieldRows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				}

				if len(channel.Members) > 0 {
					names := make([]string, 0, len(channel.Members))
					for _, id := range channel.Members {
						names = append(names, userDisplay(st, id))
					}
					fmt.Fprintf(out, "Members: %s\n", strings.Join(names, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newChannelArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive CHANNEL",
		Short: "Archive a channel, hiding it from default listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				if _, err := st.ArchiveChannel(cmd.Context(), channel.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived channel %s\n", channel.Name)
				return nil
			})
		},
	}
}

func newChannelDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CHANNEL",
		Short: "Permanently delete a channel and its active tasks (owner only)",
		Args:  cobra.ExactArgs(1),
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
				if err := st.DeleteChannel(cmd.Context(), channel.ID, actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted channel %s; stage history and completed tasks were kept\n", channel.Name)
				return nil
			})
		},
	}
}

func newChannelMemberCommand(ctx *commandContext) *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Manage channel membership",
	}

	memberCmd.AddCommand(&cobra.Command{
		Use:   "add CHANNEL USER",
		Short: "Add a user to a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				if err := st.AddMember(cmd.Context(), channel.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", userDisplay(st, args[1]), channel.Name)
				return nil
			})
		},
	})

	memberCmd.AddCommand(&cobra.Command{
		Use:   "remove CHANNEL USER",
		Short: "Remove a user from a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				if err := st.RemoveMember(cmd.Context(), channel.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], channel.Name)
				return nil
			})
		},
	})

	return memberCmd
}

func newChannelManagerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "manager CHANNEL USER",
		Short: "Set the channel manager",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				if err := st.SetManager(cmd.Context(), channel.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now manages %s\n", userDisplay(st, args[1]), channel.Name)
				return nil
			})
		},
	}
}

func newChannelAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign CHANNEL COLUMN [ID...]",
		Short: "Set the users or roles responsible for a column",
		Long: "Set the users or roles responsible for a column. IDs may be user or role ids;\n" +
			"passing no ids clears the assignment.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				column, err := resolveColumn(channel, args[1])
				if err != nil {
					return err
				}
				ids := args[2:]
				if err := st.SetColumnAssignments(cmd.Context(), channel.ID, column.ID, ids); err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared responsibility for %s / %s\n", channel.Name, column.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s / %s to %s\n", channel.Name, column.Name, strings.Join(ids, ", "))
				}
				return nil
			})
		},
	}
}

func newChannelColumnCommand(ctx *commandContext) *cobra.Command {
	columnCmd := &cobra.Command{
		Use:   "column",
		Short: "Manage a channel's pipeline columns",
	}

	columnCmd.AddCommand(&cobra.Command{
		Use:   "add CHANNEL NAME",
		Short: "Append a column to the end of the pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				column, err := st.AddColumn(cmd.Context(), channel.ID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added column %s at position %d\n", column.Name, column.Order)
				return nil
			})
		},
	})

	columnCmd.AddCommand(&cobra.Command{
		Use:   "rename CHANNEL COLUMN NAME",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				column, err := resolveColumn(channel, args[1])
				if err != nil {
					return err
				}
				if err := st.RenameColumn(cmd.Context(), channel.ID, column.ID, args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed column %s to %s\n", column.Name, args[2])
				return nil
			})
		},
	})

	columnCmd.AddCommand(&cobra.Command{
		Use:   "remove CHANNEL COLUMN",
		Short: "Remove an empty column and close the gap",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				column, err := resolveColumn(channel, args[1])
				if err != nil {
					return err
				}
				if err := st.RemoveColumn(cmd.Context(), channel.ID, column.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed column %s\n", column.Name)
				return nil
			})
		},
	})

	return columnCmd
}
