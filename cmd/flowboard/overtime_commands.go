package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowboard/internal/store"
)

func newOvertimeCommand(ctx *commandContext) *cobra.Command {
	overtimeCmd := &cobra.Command{
		Use:   "overtime",
		Short: "Track extra hours against channels",
	}

	overtimeCmd.AddCommand(newOvertimeAddCommand(ctx))
	overtimeCmd.AddCommand(newOvertimeListCommand(ctx))
	overtimeCmd.AddCommand(newOvertimeRemoveCommand(ctx))

	return overtimeCmd
}

func newOvertimeAddCommand(ctx *commandContext) *cobra.Command {
	var channelRef string
	var date string
	var note string

	cmd := &cobra.Command{
		Use:   "add HOURS",
		Short: "Log overtime hours for the acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var hours float64
			if _, err := fmt.Sscanf(args[0], "%g", &hours); err != nil {
				return fmt.Errorf("invalid hours %q: %w", args[0], err)
			}
			return ctx.withStore(func(st *store.Store) error {
				actor, err := ctx.actingUser(st)
				if err != nil {
					return err
				}
				var channelID string
				if channelRef != "" {
					channel, err := resolveChannel(st, channelRef)
					if err != nil {
						return err
					}
					channelID = channel.ID
				}
				when, err := parseDate(date)
				if err != nil {
					return err
				}
				entry, err := st.AddOvertimeEntry(cmd.Context(), actor, channelID, when, hours, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %g hour(s) on %s (%s)\n",
					entry.Hours, formatDate(&entry.Date), entry.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channelRef, "channel", "", "Channel the hours were worked on")
	cmd.Flags().StringVar(&date, "date", "", "Date of the work (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "Short note")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newOvertimeListCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List overtime entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				filterUser := userID
				if filterUser == "" {
					actor, err := ctx.actingUser(st)
					if err != nil {
						return err
					}
					filterUser = actor
				}
				entries := st.OvertimeEntries(filterUser)
				if asJSON {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No overtime entries")
					return nil
				}
				var total float64
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					total += entry.Hours
					channelName := ""
					if entry.ChannelID != "" {
						if channel, err := st.ChannelByID(entry.ChannelID); err == nil {
							channelName = channel.Name
						} else {
							channelName = entry.ChannelID
						}
					}
					rows = append(rows, []string{
						entry.ID,
						formatDate(&entry.Date),
						fmt.Sprintf("%g", entry.Hours),
						channelName,
						entry.Note,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Date", "Hours", "Channel", "Note"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
				fmt.Fprintf(out, "Total: %g hour(s)\n", total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "List another user's entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newOvertimeRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ENTRY",
		Short: "Delete an overtime entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				if err := st.DeleteOvertimeEntry(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed overtime entry %s\n", args[0])
				return nil
			})
		},
	}
}
