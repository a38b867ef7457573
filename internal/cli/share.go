package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/share"
)

func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "share [id|name]",
		Short:             "Print a link that carries a document's content",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			base, param := app.Cfg.GetString("share.base_url"), app.Cfg.GetString("share.param")
			var (
				link string
				err  error
			)
			if len(args) == 0 {
				link, err = app.Session.ShareLink(base, param)
			} else {
				d, rerr := resolveDocument(app, args)
				if rerr != nil {
					return rerr
				}
				link, err = share.Link(base, param, d.Content)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <url|token>",
		Short: "Load a shared link, replacing every local document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			token, ok := share.TokenFromURL(args[0], app.Cfg.GetString("share.param"))
			if !ok {
				return fmt.Errorf("no shared document in %q", args[0])
			}
			if _, err := app.Session.LoadShared(cmd.Context(), token); err != nil {
				return fmt.Errorf("open shared link: %w", err)
			}
			printNotice(cmd, app)
			return nil
		},
	}
}
