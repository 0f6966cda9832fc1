package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/voicenote/internal/client"
)

func newTranscribeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Upload an audio file and print its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			text, err := api.UploadAudio(cmd.Context(), f.Name(), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(g.out, text)
			return nil
		},
	}
}

func newSummarizeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize [text...]",
		Short: "Summarize text given as arguments, or stdin when none",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}

			transcript := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(g.in)
				if err != nil {
					return err
				}
				transcript = string(data)
			}

			res, err := client.NewSummaryClient(api).Summarize(cmd.Context(), transcript, g.timeout)
			if err != nil {
				if errors.Is(err, client.ErrTimeout) || errors.Is(err, client.ErrIncompleteSummary) {
					fmt.Fprintln(g.out, "Request Failed. Try again.")
				}
				return err
			}
			fmt.Fprintln(g.out, client.FormatSummary(res))
			if corrected, ok := res.Corrected(); ok {
				fmt.Fprintf(g.out, "\nCorrected transcript:\n%s\n", corrected)
			}
			return nil
		},
	}
}

func newNotesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List or delete saved notes",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List your notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			notes, err := api.ListNotes(cmd.Context(), g.userID)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(g.out)
				enc.SetIndent("", "  ")
				return enc.Encode(notes)
			}
			if len(notes) == 0 {
				fmt.Fprintln(g.out, "No notes yet.")
				return nil
			}
			tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tTITLE")
			for _, n := range notes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format(time.DateTime), n.Title)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print notes as JSON")

	del := &cobra.Command{
		Use:   "delete <note-id>",
		Short: "Delete a note; deleting a missing note is not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			deleted, err := api.DeleteNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintln(g.out, "Note deleted.")
			} else {
				fmt.Fprintln(g.out, "Note already deleted.")
			}
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func newContactCmd(g *globals) *cobra.Command {
	var in client.ContactRequest
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a support message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			in.UserID = g.userID
			out, err := api.SubmitContact(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(g.out, "%s (%s)\n", out.Message, out.ContactID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Reply address (required)")
	cmd.Flags().StringVar(&in.CarbonCopy, "cc", "", "Carbon copy address")
	cmd.Flags().StringVar(&in.Subject, "subject", "", "Subject (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Message body (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newHealthCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the relay is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			if err := api.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(g.out, "ok")
			return nil
		},
	}
}
