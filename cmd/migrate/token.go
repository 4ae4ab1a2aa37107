package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/infrastructure/auth"
	"github.com/trainhub/backend/internal/infrastructure/config"
)

// tokenCmd signs a bearer token with the configured secret. Production
// tokens come from the identity provider; this is for local development
// against seeded users.
var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Sign an access token for a local user",
	Example: `  migrate token --user 0b9f... --role finance
  migrate token --user 0b9f... --role trainer --also coordinator`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("user", "", "User ID (UUID)")
	tokenCmd.Flags().String("email", "", "Email claim")
	tokenCmd.Flags().String("role", "", "Primary role")
	tokenCmd.Flags().StringSlice("also", nil, "Additional roles")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	userFlag, _ := cmd.Flags().GetString("user")
	email, _ := cmd.Flags().GetString("email")
	roleFlag, _ := cmd.Flags().GetString("role")
	also, _ := cmd.Flags().GetStringSlice("also")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	userID, err := uuid.Parse(userFlag)
	if err != nil {
		return fmt.Errorf("invalid user id %q", userFlag)
	}
	role, err := identity.ParseRole(roleFlag)
	if err != nil {
		return err
	}
	additional := make([]identity.Role, 0, len(also))
	for _, s := range also {
		r, err := identity.ParseRole(s)
		if err != nil {
			return err
		}
		additional = append(additional, r)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if ttl > 0 {
		cfg.JWT.AccessTokenExpiration = ttl
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateAccessToken(auth.TokenInput{
		UserID:          userID,
		Email:           email,
		Role:            role,
		AdditionalRoles: additional,
	})
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
