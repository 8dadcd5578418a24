package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/notes"
)

func NotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Keep personal markdown notes",
	}

	var asHTML bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the notes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n := notes.New(s.kv)
			if !asHTML {
				text, err := n.Load(c.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), text)
				return nil
			}

			rendered, err := n.Render(c.Context())
			if err != nil {
				return err
			}
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), rendered)
			}
			fmt.Fprint(c.OutOrStdout(), rendered.HTML)
			return nil
		},
	}
	show.Flags().BoolVar(&asHTML, "html", false, "render markdown to HTML")

	set := &cobra.Command{
		Use:   "set [--] [text|-]",
		Short: "Replace the notes; '-' reads from stdin, no argument clears them",
		Long: `Replace the notes. '-' reads them from stdin and no argument clears them.

Text starting with front matter ("---") must follow a "--" separator:

  journal notes set -- "$(cat plan.md)"`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
				if text == "-" {
					data, err := io.ReadAll(c.InOrStdin())
					if err != nil {
						return fmt.Errorf("failed to read notes: %w", err)
					}
					text = string(data)
				}
			}

			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := notes.New(s.kv).Save(c.Context(), text); err != nil {
				return err
			}
			if text == "" {
				fmt.Fprintln(c.OutOrStdout(), "Notes cleared")
			} else {
				fmt.Fprintln(c.OutOrStdout(), "Notes saved")
			}
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
