package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cedar-analytics/traffic-cli/internal/auth"
)

var (
	userAddUsername string
	userAddPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard credentials",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision a user with a bcrypt-hashed password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Auth.Secret == "" {
			return eris.New("users: auth secret not configured (set TRAFFIC_AUTH_SECRET)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		authSvc := auth.NewService(
			cfg.Auth.Secret,
			time.Duration(cfg.Auth.TokenTTLMins)*time.Minute,
			cfg.Auth.BcryptCost,
		)

		hash, err := authSvc.HashPassword(userAddPassword)
		if err != nil {
			return err
		}

		if err := st.CreateUser(ctx, userAddUsername, hash); err != nil {
			return err
		}

		zap.L().Info("user provisioned", zap.String("username", userAddUsername))
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userAddUsername, "username", "", "username (required)")
	usersAddCmd.Flags().StringVar(&userAddPassword, "password", "", "password (required)")
	_ = usersAddCmd.MarkFlagRequired("username")
	_ = usersAddCmd.MarkFlagRequired("password")
	usersCmd.AddCommand(usersAddCmd)
	rootCmd.AddCommand(usersCmd)
}
