package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guanw/ReviewMate/internal/security"
	"github.com/guanw/ReviewMate/internal/storage"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	var dbFlag, username, password, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an API user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			hash, err := security.HashPassword(password)
			if err != nil {
				return err
			}
			db, err := openDB(a.dbPath(dbFlag))
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := db.CreateUser(username, hash, role)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, %s)\n", username, id, role)
			return nil
		},
	}
	add.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	add.Flags().StringVar(&username, "username", "", "Login name")
	add.Flags().StringVar(&password, "password", "", "Password (min 8 characters)")
	add.Flags().StringVar(&role, "role", storage.RoleViewer, "admin or viewer")
	cmd.AddCommand(add)
	return cmd
}
