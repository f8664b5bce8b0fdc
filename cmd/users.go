package cmd

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"
	"github.com/taskhive/taskhive/config"
	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/internal/rpchandlers"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/internal/store"
)

// usersCmd starts the user store service.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Starts the user store service",
	Long: `Starts the user store service. It owns user records and answers
identity and credential queries over the message broker. Usage:

	taskhive users
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(rpc.ServiceUsers, func(cfg config.Config, dbConn *sql.DB, srv *rpc.Server) error {
			if cfg.BaseURL == "" {
				return errors.New("BASE_URL is required")
			}
			userRepo := store.NewUserRepository(dbConn)
			userService := services.NewUserService(userRepo, cfg.BaseURL+"/user")
			rpchandlers.UserRouter(srv, userService)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
