package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rohmanhakim/newsletter-triage/internal/secrets"
	"github.com/spf13/cobra"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the IMAP app password kept in the OS keychain",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set-imap-password",
	Short: "Read an app password from stdin and store it in the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password from stdin: %w", err)
		}
		account := secrets.IMAPAccount(cfg.ImapUsername(), cfg.ImapHost())
		if err := secrets.SetIMAPPassword(account, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s\n", account)
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete-imap-password",
	Short: "Remove the stored IMAP app password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		account := secrets.IMAPAccount(cfg.ImapUsername(), cfg.ImapHost())
		if err := secrets.DeleteIMAPPassword(account); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed password for %s\n", account)
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
	rootCmd.AddCommand(secretsCmd)
}
