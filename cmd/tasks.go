package cmd

import (
	"database/sql"

	"github.com/spf13/cobra"
	"github.com/taskhive/taskhive/config"
	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/internal/rpchandlers"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/internal/store"
)

// tasksCmd starts the task service.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Starts the task service",
	Long: `Starts the task service. It stores todo items and lists them per
user. Usage:

	taskhive tasks
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(rpc.ServiceTasks, func(cfg config.Config, dbConn *sql.DB, srv *rpc.Server) error {
			taskRepo := store.NewTaskRepository(dbConn)
			taskService := services.NewTaskService(taskRepo)
			rpchandlers.TaskRouter(srv, taskService)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
