package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
	"github.com/vibast-solutions/ms-go-mailings/config"
)

var (
	userManager  bool
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Create an API user",
	Long:  "Create a user that authenticates against the HTTP API. The password is read from --password or the MAILINGS_USER_PASSWORD variable.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [email]",
	Short: "Delete a user and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	userCreateCmd.Flags().BoolVar(&userManager, "manager", false, "grant the manager role")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password of the new user")
	userCmd.AddCommand(userCreateCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	password := userPassword
	if password == "" {
		password = os.Getenv("MAILINGS_USER_PASSWORD")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("a password is required")
	}

	auth, closeDB, err := newAuthService()
	if err != nil {
		return err
	}
	defer closeDB()

	u, err := auth.CreateUser(context.Background(), args[0], password, userManager)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, manager=%t)\n", u.ID, u.Email, u.IsManager)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	auth, closeDB, err := newAuthService()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := auth.DeleteUser(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
	return nil
}

func newAuthService() (*service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewAuthService(repository.NewUserRepository(db)), func() { _ = db.Close() }, nil
}
