package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/sloth/internal/web"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <email>",
	Short: "Print an admin token for email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := envFrom(cmd)
		email := args[0]
		if !e.cfg.IsAdmin(email) {
			e.logger.WithField("email", email).Warn("email is not listed in admins, the token will be refused")
		}

		tok, err := web.IssueToken(e.cfg.Auth.Secret, email, tokenTTL, time.Now())
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
