package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/internal/service"
)

func newTokenCmd(env *cliEnv) *cobra.Command {
	var (
		subject string
		role    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an operator token for the HTTP API",
		Long: `Sign an access token with JWT_SECRET.

ADMIN tokens may audit and correct; AUDITOR tokens may audit, export and search.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.loadConfig(); err != nil {
				return err
			}
			auth := service.NewAuthService(nil, env.logger, service.AuthConfig{
				AccessTokenSecret: env.cfg.JWT.Secret,
				AccessTokenExpiry: env.cfg.JWT.Expiration,
				Issuer:            env.cfg.JWT.Issuer,
			})
			issued, err := auth.IssueToken(models.IssueTokenRequest{
				Subject: subject,
				Role:    models.UserRole(strings.ToUpper(role)),
			})
			if err != nil {
				return err
			}
			if env.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), issued)
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator the token is issued to")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAuditor), "ADMIN or AUDITOR")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
