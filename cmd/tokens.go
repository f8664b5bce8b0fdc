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

// tokensCmd starts the token issuer service.
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Starts the token issuer service",
	Long: `Starts the token issuer service. It issues, verifies, and revokes
the single active session token each user may hold. Usage:

	taskhive tokens
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(rpc.ServiceTokens, func(cfg config.Config, dbConn *sql.DB, srv *rpc.Server) error {
			if cfg.Token.Secret == "" {
				return errors.New("JWT_SECRET is required")
			}
			tokenRepo := store.NewTokenRepository(dbConn)
			tokenService := services.NewTokenService(tokenRepo, cfg.Token.Secret, cfg.Token.TTL)
			rpchandlers.TokenRouter(srv, tokenService)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
