package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/editor"
)

// maxStdin bounds content read from standard input.
const maxStdin = 16 << 20

func newWriteCmd() *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:               "write [id|name]",
		Short:             "Replace a document's content using $EDITOR or stdin",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			d, err := resolveDocument(app, args)
			if err != nil {
				return err
			}

			var content []byte
			if fromStdin {
				content, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdin+1))
				if err != nil {
					return err
				}
				if len(content) > maxStdin {
					return fmt.Errorf("stdin exceeds %d bytes", maxStdin)
				}
			} else {
				if !interactive(cmd) {
					return errors.New("no terminal for the editor; pass --stdin")
				}
				path, err := editor.PathForDocument(d.ID, d.Name)
				if err != nil {
					return err
				}
				out, changed, err := editor.OpenAt(path, []byte(d.Content))
				if err != nil {
					return err
				}
				if !changed {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
					return nil
				}
				content = out
			}

			app.Session.OnContentChanged(cmd.Context(), d.ID, string(content))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", d.Name, len(content))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the new content from standard input")
	return cmd
}
