package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rohmanhakim/newsletter-triage/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change per-account sync settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		s, err := a.settings.Get(cmd.Context(), a.user.ID)
		if err != nil {
			return err
		}
		printSettings(cmd, s)
		return nil
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: "set changes one setting after validating it. Keys: " + strings.Join(settings.Keys(), ", ") + `.
sender_allowlist takes a comma separated list of addresses or domains.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		s, err := a.settings.Set(cmd.Context(), a.user.ID, args[0], args[1])
		if err != nil {
			return err
		}
		printSettings(cmd, s)
		return nil
	}),
}

func printSettings(cmd *cobra.Command, s settings.Settings) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "sync_enabled\t%t\n", s.SyncEnabled)
	fmt.Fprintf(w, "sync_interval_minutes\t%d\n", s.SyncIntervalMinutes)
	fmt.Fprintf(w, "mail_folder\t%s\n", s.MailFolder)
	fmt.Fprintf(w, "sender_allowlist\t%s\n", strings.Join(s.SenderAllowlist, ","))
	fmt.Fprintf(w, "max_messages_per_sync\t%d\n", s.MaxMessagesPerSync)
	fmt.Fprintf(w, "mark_seen\t%t\n", s.MarkSeen)
	fmt.Fprintf(w, "archive_markdown\t%t\n", s.ArchiveMarkdown)
	_ = w.Flush()
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
