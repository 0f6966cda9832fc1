package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/voicenote/internal/client"
	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/recorder"
	"github.com/PabloGalante/voicenote/internal/session"
)

type recordOptions struct {
	save    bool
	title   string
	retries int
}

func newRecordCmd(g *globals) *cobra.Command {
	opts := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a note from stdin, one line per spoken segment; Ctrl-D stops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecord(cmd.Context(), g, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the note after review (default discards)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Replace the generated title")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "Retry a failed summary this many times")
	return cmd
}

func runRecord(ctx context.Context, g *globals, opts *recordOptions) error {
	api, err := g.client()
	if err != nil {
		return err
	}

	src := recorder.NewLineSource(g.in)
	ctl, err := session.New(session.Config{
		Source:     src,
		Summarizer: client.NewSummaryClient(api),
		Notes:      api,
		UserID:     g.userID,
		Timeout:    g.timeout,
		Logger:     g.log,
	})
	if err != nil {
		return err
	}
	ctl.OnChange(func(s session.Snapshot) {
		g.log.Debug("session changed", "state", s.State.String(), "elapsed", client.FormatElapsed(s.Elapsed))
	})

	if err := ctl.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(g.out, "Recording... type your note, Ctrl-D to stop.")

	select {
	case <-src.Done():
		if err := src.Err(); err != nil {
			g.log.Warn("reading transcript failed", "error", err)
		}
	case <-ctx.Done():
	}

	fmt.Fprintf(g.out, "Stopped at %s. Summarizing...\n", client.FormatElapsed(ctl.Snapshot().Elapsed))
	err = ctl.Stop(ctx)
	for attempt := 0; attempt < opts.retries && ctl.Snapshot().State == session.AwaitingRetry; attempt++ {
		fmt.Fprintf(g.out, "Request Failed: %v. Retrying (%d/%d)...\n", err, attempt+1, opts.retries)
		err = ctl.Retry(ctx)
	}

	snap := ctl.Snapshot()
	switch snap.State {
	case session.Reviewing:
	case session.AwaitingRetry:
		fmt.Fprintf(g.out, "Request Failed: %v\nRun again with --retries to retry, or start over.\n", err)
		_ = ctl.Restart()
		return err
	default:
		if errors.Is(err, client.ErrNothingToSummarize) {
			fmt.Fprintln(g.out, "Nothing was recorded.")
			return nil
		}
		return err
	}
	if err != nil {
		// capture resources failed to release but the summary is usable
		g.log.Warn("recording finished with errors", "error", err)
	}

	if opts.title != "" {
		if err := ctl.SetTitle(opts.title); err != nil {
			return err
		}
		snap = ctl.Snapshot()
	}
	fmt.Fprintln(g.out)
	fmt.Fprintln(g.out, client.FormatSummary(snapshotResult(snap)))
	fmt.Fprintln(g.out)
	fmt.Fprintf(g.out, "Transcript:\n%s\n\n", snap.Transcript)

	if !opts.save {
		if err := ctl.RequestDiscard(); err != nil {
			return err
		}
		if err := ctl.ConfirmDiscard(); err != nil {
			return err
		}
		fmt.Fprintln(g.out, "Discarded. Run with --save to keep the note.")
		return nil
	}

	if err := ctl.Save(ctx); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	fmt.Fprintf(g.out, "Saved note %s\n", ctl.Snapshot().NoteID)
	return nil
}

func snapshotResult(s session.Snapshot) domain.SummaryResult {
	return domain.SummaryResult{
		Title:       domain.Ptr(s.Title),
		Summary:     domain.Ptr(s.Summary),
		ActionItems: s.ActionItems,
	}
}
