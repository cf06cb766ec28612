package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rohmanhakim/newsletter-triage/internal/triage"
	"github.com/spf13/cobra"
)

var (
	listStatus     string
	listNewsletter string
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "List and triage queued links",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List links grouped by newsletter, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		filter := triage.InboxFilter{NewsletterID: listNewsletter}
		if listStatus != "" && listStatus != "all" {
			status, ok := triage.ParseStatus(listStatus)
			if !ok {
				return fmt.Errorf("unknown status %q (pending, saved, discarded or all)", listStatus)
			}
			filter.Status = status
		}

		groups, err := a.triage.Inbox(cmd.Context(), a.user.ID, filter)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(groups) == 0 {
			fmt.Fprintln(out, "no links")
			return nil
		}
		for i, g := range groups {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s  %s  (%s, %s)\n", g.NewsletterID, g.Subject, g.Sender, g.ReceivedAt.Format("2006-01-02"))
			writeLinks(out, g.Links)
		}
		return nil
	}),
}

var linksStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count links by status",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		stats, err := a.triage.Stats(cmd.Context(), a.user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending %d, saved %d, discarded %d, total %d\n",
			stats.Pending, stats.Saved, stats.Discarded, stats.Total())
		return nil
	}),
}

var linksSaveCmd = &cobra.Command{
	Use:   "save <link-id>",
	Short: "Save a pending link and send it to the bookmark service",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		outcome, err := a.triage.Save(cmd.Context(), a.user.ID, args[0])
		if err != nil {
			return describeTriageError(err, args[0])
		}
		printSaveOutcome(cmd.OutOrStdout(), outcome)
		return nil
	}),
}

var linksDiscardCmd = &cobra.Command{
	Use:   "discard <link-id>",
	Short: "Discard a pending link",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		link, err := a.triage.Discard(cmd.Context(), a.user.ID, args[0])
		if err != nil {
			return describeTriageError(err, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "discarded %s\n", link.URL)
		return nil
	}),
}

var linksRestoreCmd = &cobra.Command{
	Use:   "restore <link-id>",
	Short: "Move a saved or discarded link back to pending",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		link, err := a.triage.Restore(cmd.Context(), a.user.ID, args[0])
		if err != nil {
			return describeTriageError(err, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", link.URL)
		return nil
	}),
}

var linksSaveAllCmd = &cobra.Command{
	Use:   "save-all <newsletter-id>",
	Short: "Save every pending link of a newsletter",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		n, outcomes, err := a.triage.SaveAll(cmd.Context(), a.user.ID, args[0])
		out := cmd.OutOrStdout()
		for _, o := range outcomes {
			printSaveOutcome(out, o)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d links\n", n)
		return nil
	}),
}

var linksDiscardAllCmd = &cobra.Command{
	Use:   "discard-all <newsletter-id>",
	Short: "Discard every pending link of a newsletter",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		n, err := a.triage.DiscardAll(cmd.Context(), a.user.ID, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "discarded %d links\n", n)
		return nil
	}),
}

func writeLinks(out io.Writer, links []triage.Link) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, l := range links {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", l.ID, l.Status, l.Title(), l.URL)
	}
	_ = w.Flush()
}

func printSaveOutcome(out io.Writer, o triage.SaveOutcome) {
	switch {
	case o.Exported:
		fmt.Fprintf(out, "saved %s (exported)\n", o.Link.URL)
	case o.ExportErr != nil:
		fmt.Fprintf(out, "saved %s (export failed: %v)\n", o.Link.URL, o.ExportErr)
	default:
		fmt.Fprintf(out, "saved %s\n", o.Link.URL)
	}
}

// describeTriageError turns queue errors into something a reader can act on.
func describeTriageError(err error, id string) error {
	switch {
	case errors.Is(err, triage.ErrNotFound):
		return fmt.Errorf("no link %s for this account: %w", id, err)
	case errors.Is(err, triage.ErrInvalidTransition):
		return fmt.Errorf("link %s is not in a state that allows this: %w", id, err)
	}
	return err
}

func init() {
	linksListCmd.Flags().StringVar(&listStatus, "status", "pending", "pending, saved, discarded or all")
	linksListCmd.Flags().StringVar(&listNewsletter, "newsletter", "", "only links of this newsletter id")
	linksCmd.AddCommand(linksListCmd, linksStatsCmd, linksSaveCmd, linksDiscardCmd, linksRestoreCmd, linksSaveAllCmd, linksDiscardAllCmd)
	rootCmd.AddCommand(linksCmd)
}
