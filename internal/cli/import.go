package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/documents"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Append documents from an exported collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdin))
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			col, err := documents.ParseCollection(raw)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if _, err := app.Session.Import(cmd.Context(), col.Documents); err != nil {
				return err
			}
			printNotice(cmd, app)
			return nil
		},
	}
}
