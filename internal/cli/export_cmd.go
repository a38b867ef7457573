package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/pkg/api"
)

func newExportCmd() *cobra.Command {
	var out, themeName string
	var toStdout bool
	kinds := make([]string, len(export.Kinds))
	for i, k := range export.Kinds {
		kinds[i] = string(k)
	}
	cmd := &cobra.Command{
		Use:       "export <" + strings.Join(kinds, "|") + ">",
		Short:     "Export the active document (or every document as zip)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			kind, ok := export.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown export kind %q (want %s)", args[0], strings.Join(kinds, ", "))
			}
			theme := app.Theme.Load(cmd.Context())
			if themeName != "" {
				if theme, ok = api.ParseTheme(themeName); !ok {
					return fmt.Errorf("invalid --theme: %s", themeName)
				}
			}
			if toStdout {
				a, err := app.Session.Export(cmd.Context(), kind, theme)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(a.Data)
				return err
			}
			if out == "" {
				out = app.Cfg.GetString("export.dir")
			}
			path, err := app.Session.Download(cmd.Context(), kind, theme, out)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory to write into (default export.dir)")
	cmd.Flags().StringVar(&themeName, "theme", "", "theme for html output: light|dark (default: saved theme)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the export to stdout instead of a file")
	return cmd
}
