package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/connection"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage the Google and Raindrop connections of an account",
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the status of every provider",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		cards, err := a.connections.List(cmd.Context(), a.user.ID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tSTATUS\tEXPIRES\tERROR")
		for _, c := range cards {
			expires := "-"
			if !c.Expiry.IsZero() {
				expires = c.Expiry.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Provider, c.Status, expires, c.LastError)
		}
		return w.Flush()
	}),
}

var connectionsImportCmd = &cobra.Command{
	Use:   "import-token <provider> [token.json]",
	Short: "Store an OAuth token obtained elsewhere",
	Long: `import-token reads an OAuth token as JSON (access_token, token_type,
refresh_token, expiry) from the file, or stdin when no file is given, and
connects the provider. Refreshing needs the provider's client id and secret
in the environment.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		provider, err := connection.ParseProvider(args[0])
		if err != nil {
			return err
		}

		var raw []byte
		if len(args) == 2 {
			raw, err = os.ReadFile(args[1])
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		token := &oauth2.Token{}
		if err := json.Unmarshal(raw, token); err != nil {
			return fmt.Errorf("%w: %v", connection.ErrInvalidToken, err)
		}
		if err := a.connections.Connect(cmd.Context(), a.user.ID, provider, token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s connected\n", provider)
		return nil
	}),
}

var connectionsDisconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Forget the stored token of a provider",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		provider, err := connection.ParseProvider(args[0])
		if err != nil {
			return err
		}
		if err := a.connections.Disconnect(cmd.Context(), a.user.ID, provider); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s disconnected\n", provider)
		return nil
	}),
}

func init() {
	connectionsCmd.AddCommand(connectionsListCmd, connectionsImportCmd, connectionsDisconnectCmd)
	rootCmd.AddCommand(connectionsCmd)
}
