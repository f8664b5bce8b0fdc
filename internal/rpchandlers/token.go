package rpchandlers

import (
	"context"
	"encoding/json"

	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/types"
)

// TokenRouter registers the token issuer's message patterns on the given
// RPC server.
func TokenRouter(srv *rpc.Server, tokenService *services.TokenService) {
	srv.Handle("create-token", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		token, err := tokenService.Issue(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"message": "Token created successfully",
			"token":   token,
		}, nil
	})

	srv.Handle("verify-token", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		userID, err := tokenService.Verify(ctx, req.Token)
		if err != nil {
			return nil, err
		}
		return map[string]string{"userId": userID}, nil
	})

	srv.Handle("destroy-token", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		if err := tokenService.Revoke(ctx, req.UserID); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Token destroyed successfully"}, nil
	})
}
