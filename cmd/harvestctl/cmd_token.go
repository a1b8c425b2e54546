package main

import (
	"fmt"
	"time"

	"github.com/freshroots/harvest-backend/internal/core/access"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed bearer token for a user and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := access.ParseRole(tokenRole)
		if role == "" {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		token, err := utils.GenerateToken([]byte(cfg.JWTSecret), tokenUser, string(role), tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id carried in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(access.RoleCustomer), "role carried in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
