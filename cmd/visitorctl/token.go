package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kfd-o/mobile-firebase-backend/internal/auth"
	"github.com/kfd-o/mobile-firebase-backend/internal/config"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/token"
)

func tokenCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint API bearer tokens and derive visit codes",
	}
	cmd.AddCommand(mintCmd(cfg))
	cmd.AddCommand(deriveCmd(cfg))
	return cmd
}

func mintCmd(cfg config.Config) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an HS256 bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if !model.Role(role).Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == "" {
				return errors.New("--user is required")
			}
			signed, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, ttl, auth.Claims{UserID: userID, Role: model.Role(role)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject user id")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "admin, homeowner, securityPersonnel or user")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func deriveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <visit-request-id>",
		Short: "Print the visit code SECRET_KEY derives for a visit request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := token.NewCodec(cfg.SecretKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.Derive(args[0]))
			return nil
		},
	}
}
