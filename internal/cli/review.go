package cmd

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/newsletter-triage/internal/triage"
	"github.com/spf13/cobra"
)

var (
	reviewSave    bool
	reviewDiscard bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show the next pending link, optionally saving or discarding it",
	Long: `review shows the first pending link of the most recently received
newsletter. With --save or --discard that link is triaged and the next one
is shown.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		if reviewSave && reviewDiscard {
			return errors.New("--save and --discard are mutually exclusive")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		link, err := a.triage.Next(ctx, a.user.ID)
		if errors.Is(err, triage.ErrQueueEmpty) {
			fmt.Fprintln(out, "queue is empty")
			return nil
		}
		if err != nil {
			return err
		}

		if reviewSave || reviewDiscard {
			if reviewSave {
				outcome, err := a.triage.Save(ctx, a.user.ID, link.ID)
				if err != nil {
					return describeTriageError(err, link.ID)
				}
				printSaveOutcome(out, outcome)
			} else {
				if _, err := a.triage.Discard(ctx, a.user.ID, link.ID); err != nil {
					return describeTriageError(err, link.ID)
				}
				fmt.Fprintf(out, "discarded %s\n", link.URL)
			}

			link, err = a.triage.Next(ctx, a.user.ID)
			if errors.Is(err, triage.ErrQueueEmpty) {
				fmt.Fprintln(out, "queue is empty")
				return nil
			}
			if err != nil {
				return err
			}
		}

		stats, err := a.triage.Stats(ctx, a.user.ID)
		if err != nil {
			return err
		}
		printReviewCard(cmd, link, stats)
		return nil
	}),
}

func printReviewCard(cmd *cobra.Command, link triage.Link, stats triage.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n\n", link.Title(), link.URL)
	fmt.Fprintf(out, "from   %s\n", link.NewsletterSender)
	fmt.Fprintf(out, "issue  %s (%s)\n", link.NewsletterSubject, link.NewsletterReceivedAt.Format("2006-01-02"))
	fmt.Fprintf(out, "id     %s\n", link.ID)
	fmt.Fprintf(out, "\n%d pending\n", stats.Pending)
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewSave, "save", false, "save the current link, then show the next")
	reviewCmd.Flags().BoolVar(&reviewDiscard, "discard", false, "discard the current link, then show the next")
	rootCmd.AddCommand(reviewCmd)
}
