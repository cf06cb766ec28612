package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rohmanhakim/newsletter-triage/internal/linkextract"
	"github.com/rohmanhakim/newsletter-triage/internal/mailbox"
	"github.com/rohmanhakim/newsletter-triage/internal/sanitizer"
	"github.com/rohmanhakim/newsletter-triage/pkg/fileutil"
	"github.com/spf13/cobra"
)

var (
	sanitizeAsMail bool
	sanitizeLinks  bool
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file]",
	Short: "Convert newsletter HTML (or a .eml message) to markdown",
	Long: `sanitize reads newsletter HTML from file, or stdin when no file is given,
and prints the cleaned markdown. Files ending in .eml are parsed as mail
messages first and their HTML part is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw  []byte
			err  error
			path string
		)
		if len(args) == 1 {
			path = args[0]
			raw, err = os.ReadFile(path)
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		body := string(raw)
		if sanitizeAsMail || fileutil.GetFileExtension(path) == "eml" {
			parsed, parseErr := mailbox.ParseMessage(raw)
			if parseErr != nil {
				return parseErr
			}
			body = parsed.HTMLBody()
		}

		markdown := sanitizer.Sanitize(body)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, markdown)

		if sanitizeLinks {
			fmt.Fprintln(out)
			for _, c := range linkextract.Extract(markdown) {
				fmt.Fprintf(out, "%d\t%s\t%s\n", c.Position, c.URL, c.Text)
			}
		}
		return nil
	},
}

func init() {
	sanitizeCmd.Flags().BoolVar(&sanitizeAsMail, "eml", false, "treat the input as an RFC 822 message")
	sanitizeCmd.Flags().BoolVar(&sanitizeLinks, "links", false, "also list the links the markdown contains")
	rootCmd.AddCommand(sanitizeCmd)
}
