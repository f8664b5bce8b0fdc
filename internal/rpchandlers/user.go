// Package rpchandlers binds each service's message patterns to its service
// methods, decoding request payloads and shaping responses for the wire.
package rpchandlers

import (
	"context"
	"encoding/json"

	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/types"
)

// UserRouter registers the user store's message patterns on the given
// RPC server.
func UserRouter(srv *rpc.Server, userService *services.UserService) {
	srv.Handle("register", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		userID, err := userService.Register(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"message": "User account created successfully",
			"userId":  userID,
		}, nil
	})

	srv.Handle("login-lookup", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		user, err := userService.ValidateCredentials(ctx, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return map[string]types.User{"user": user}, nil
	})

	srv.Handle("find-one", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		user, err := userService.FindOne(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return map[string]types.User{"user": user}, nil
	})

	srv.Handle("find-all", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}
		return userService.FindAll(ctx, req.Page, req.Limit)
	})
}
