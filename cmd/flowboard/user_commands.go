package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowboard/internal/store"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserDefaultCommand(ctx))

	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var roleID string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := st.AddUser(cmd.Context(), args[0], roleID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Name, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&roleID, "role", store.DefaultMemberRoleID, "Role id for the new user")
	return cmd
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				users := st.Users()
				if asJSON {
					return writeJSON(cmd, users)
				}
				defaultID := st.Settings().DefaultUserID
				rows := make([][]string, 0, len(users))
				for _, user := range users {
					roleName := user.RoleID
					if role, err := st.RoleByID(user.RoleID); err == nil {
						roleName = roleDisplay(role.Name)
					}
					marker := ""
					if user.ID == defaultID {
						marker = "default"
					}
					rows = append(rows, []string{user.ID, user.Name, roleName, marker})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Name", "Role", ""},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newUserDefaultCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "default USER",
		Short: "Set the default acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				user, err := st.UserByID(args[0])
				if err != nil {
					return err
				}
				settings := st.Settings()
				settings.DefaultUserID = user.ID
				if err := st.UpdateSettings(cmd.Context(), settings); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now the default acting user\n", user.Name)
				return nil
			})
		},
	}
}

func newRoleCommand(ctx *commandContext) *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
	}

	roleCmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				role, err := st.AddRole(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created role %s (%s)\n", role.Name, role.ID)
				return nil
			})
		},
	})

	roleCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				roles := st.Roles()
				rows := make([][]string, 0, len(roles))
				for _, role := range roles {
					rows = append(rows, []string{role.ID, roleDisplay(role.Name)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Name"},
					rows,
					[]columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	})

	return roleCmd
}
