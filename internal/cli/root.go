// Package cli is the voicenote command line front end.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/voicenote/internal/client"
	"github.com/PabloGalante/voicenote/internal/config"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	apiURL  string
	apiKey  string
	userID  string
	timeout time.Duration
	verbose bool

	in  io.Reader
	out io.Writer
	log *slog.Logger
}

func (g *globals) client() (*client.Client, error) {
	return client.New(g.apiURL, g.apiKey)
}

// NewRootCmd builds the command tree. Defaults come from the client config
// (.env, VOICENOTE_CONFIG, VOICENOTE_* env vars); flags override them.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	g := &globals{in: in, out: out, log: observability.Logger()}

	defaults, err := config.LoadClient()
	if err != nil {
		defaults = &config.ClientConfig{APIBaseURL: "http://localhost:5000", UserID: "tester", SummaryTimeout: client.DefaultSummaryTimeout}
	}

	root := &cobra.Command{
		Use:   "voicenote",
		Short: "Record voice notes, summarize them and keep them on the relay",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err != nil {
				return err
			}
			if g.verbose {
				g.log, _ = observability.Setup(observability.Options{Level: slog.LevelDebug, Text: true})
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	// Global flags
	pf := root.PersistentFlags()
	pf.StringVar(&g.apiURL, "api-url", defaults.APIBaseURL, "Relay base URL")
	pf.StringVar(&g.apiKey, "api-key", defaults.APIKey, "Relay API key (x-api-key)")
	pf.StringVar(&g.userID, "user", defaults.UserID, "User id notes are saved under")
	pf.DurationVar(&g.timeout, "timeout", defaults.SummaryTimeout, "Summary timeout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRecordCmd(g),
		newTranscribeCmd(g),
		newSummarizeCmd(g),
		newNotesCmd(g),
		newContactCmd(g),
		newHealthCmd(g),
	)
	return root
}

// Execute runs the CLI on the process's stdio.
func Execute(version string) error {
	observability.Setup(observability.Options{Level: slog.LevelWarn, Text: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdin, os.Stdout)
	root.Version = version
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
