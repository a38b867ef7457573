package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/pkg/api"
)

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle|reset]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), app.Theme.Load(ctx))
				return nil
			}
			var (
				next api.Theme
				err  error
			)
			switch {
			case strings.EqualFold(args[0], "toggle"):
				next, err = app.Theme.Toggle(ctx)
			case strings.EqualFold(args[0], "reset"):
				if err = app.Theme.Reset(ctx); err == nil {
					next = app.Theme.Load(ctx)
				}
			default:
				t, ok := api.ParseTheme(args[0])
				if !ok {
					return fmt.Errorf("invalid theme %q (want light, dark, toggle or reset)", args[0])
				}
				next, err = t, app.Theme.Save(ctx, t)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	}
}
