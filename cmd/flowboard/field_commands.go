package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flowboard/internal/board"
	"flowboard/internal/store"
)

func newFieldCommand(ctx *commandContext) *cobra.Command {
	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "Manage a channel's custom field declarations",
	}

	fieldCmd.AddCommand(newFieldAddCommand(ctx))
	fieldCmd.AddCommand(newFieldListCommand(ctx))
	fieldCmd.AddCommand(newFieldUpdateCommand(ctx))
	fieldCmd.AddCommand(newFieldRequireCommand(ctx))
	fieldCmd.AddCommand(newFieldPermitCommand(ctx))
	fieldCmd.AddCommand(newFieldRemoveCommand(ctx))

	return fieldCmd
}

// resolveField accepts a field id or an exact, case-insensitive name within
// the channel.
func resolveField(channel board.Channel, ref string) (board.CustomField, error) {
	ref = strings.TrimSpace(ref)
	if field, ok := channel.FieldByID(ref); ok {
		return field, nil
	}
	for _, field := range channel.CustomFields {
		if strings.EqualFold(field.Name, ref) {
			return field, nil
		}
	}
	return board.CustomField{}, fmt.Errorf("field %q in channel %q: %w", ref, channel.Name, store.ErrNotFound)
}

func newFieldAddCommand(ctx *commandContext) *cobra.Command {
	var fieldType string
	var options []string
	var front bool

	cmd := &cobra.Command{
		Use:   "add CHANNEL NAME",
		Short: "Declare a custom field on a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := board.ParseFieldType(fieldType)
			if !ok {
				return fmt.Errorf("unknown field type %q (one of: %s)", fieldType, fieldTypeNames())
			}
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				field, err := st.AddField(cmd.Context(), channel.ID, store.NewField{
					Name:            args[1],
					Type:            kind,
					ShowOnCardFront: front,
					DropdownOptions: options,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s field %s (%s) to %s\n",
					field.Type, field.Name, field.ID, channel.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fieldType, "type", "text", "Field type: "+fieldTypeNames())
	cmd.Flags().StringArrayVar(&options, "option", nil, "Dropdown option (repeatable, dropdown fields only)")
	cmd.Flags().BoolVar(&front, "front", false, "Show the value on the card front")
	return cmd
}

func fieldTypeNames() string {
	kinds := board.AllFieldTypes()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}

func newFieldListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list CHANNEL",
		Short: "List a channel's custom fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				fields := channel.SortedFields()
				if asJSON {
					return writeJSON(cmd, fields)
				}
				if len(fields) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No custom fields")
					return nil
				}
				rows := make([][]string, 0, len(fields))
				for _, field := range fields {
					required := make([]string, 0, len(field.RequiredInColumns))
					for _, columnID := range field.RequiredInColumns {
						required = append(required, columnDisplay(channel, columnID))
					}
					detail := ""
					if field.Type == board.FieldDropdown {
						detail = strings.Join(field.DropdownOptions, ", ")
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", field.Order),
						field.Name,
						string(field.Type),
						field.ID,
						strings.Join(required, ", "),
						detail,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"#", "Name", "Type", "ID", "Required In", "Options"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newFieldUpdateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var front bool
	var options []string

	cmd := &cobra.Command{
		Use:   "update CHANNEL FIELD",
		Short: "Update a custom field declaration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				field, err := resolveField(channel, args[1])
				if err != nil {
					return err
				}
				var update store.FieldUpdate
				if cmd.Flags().Changed("name") {
					update.Name = &name
				}
				if cmd.Flags().Changed("front") {
					update.ShowOnCardFront = &front
				}
				if cmd.Flags().Changed("option") {
					update.DropdownOptions = &options
				}
				updated, err := st.UpdateField(cmd.Context(), channel.ID, field.ID, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated field %s\n", updated.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New field name")
	cmd.Flags().BoolVar(&front, "front", false, "Show the value on the card front")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Replacement dropdown option (repeatable)")
	return cmd
}

func newFieldRequireCommand(ctx *commandContext) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "require CHANNEL FIELD COLUMN",
		Short: "Mark a field as mandatory before tasks may leave a column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				field, err := resolveField(channel, args[1])
				if err != nil {
					return err
				}
				column, err := resolveColumn(channel, args[2])
				if err != nil {
					return err
				}
				if err := st.SetFieldRequired(cmd.Context(), channel.ID, field.ID, column.ID, !off); err != nil {
					return err
				}
				if off {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer required in %s\n", field.Name, column.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is now required before tasks leave %s\n", field.Name, column.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "Drop the requirement instead of adding it")
	return cmd
}

func newFieldPermitCommand(ctx *commandContext) *cobra.Command {
	var roles []string
	var users []string
	var byColumn bool
	var open bool

	cmd := &cobra.Command{
		Use:   "permit CHANNEL FIELD",
		Short: "Restrict who may edit a field's value",
		Long: "Restrict who may edit a field's value. Listed roles, listed users, and column\n" +
			"responsibility are independent grants; --open removes the restriction entirely.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				field, err := resolveField(channel, args[1])
				if err != nil {
					return err
				}
				var perms *board.FieldPermissions
				if !open {
					perms = &board.FieldPermissions{
						EditableByRoles:                roles,
						EditableByUsers:                users,
						EditableByColumnResponsibility: byColumn,
					}
				}
				if err := st.SetFieldPermissions(cmd.Context(), channel.ID, field.ID, perms); err != nil {
					return err
				}
				if open {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is now editable by every channel member\n", field.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Restricted edits on %s\n", field.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&roles, "role", nil, "Role id allowed to edit (repeatable)")
	cmd.Flags().StringArrayVar(&users, "user", nil, "User id allowed to edit (repeatable)")
	cmd.Flags().BoolVar(&byColumn, "column-responsibility", false, "Allow users responsible for the task's current column")
	cmd.Flags().BoolVar(&open, "open", false, "Remove the restriction")
	return cmd
}

func newFieldRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CHANNEL FIELD",
		Short: "Remove a field declaration and its stored values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				channel, err := resolveChannel(st, args[0])
				if err != nil {
					return err
				}
				field, err := resolveField(channel, args[1])
				if err != nil {
					return err
				}
				if err := st.RemoveField(cmd.Context(), channel.ID, field.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed field %s\n", field.Name)
				return nil
			})
		},
	}
}
