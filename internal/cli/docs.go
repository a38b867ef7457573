package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/documents"
	"github.com/mithrel/inkpad/internal/editor"
	"github.com/mithrel/inkpad/internal/present/tui"
	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/internal/wire"
	"github.com/mithrel/inkpad/pkg/api"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "edit",
		Short:       "Open the terminal editor (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE:        runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	if !interactive(cmd) {
		return errors.New("edit needs an interactive terminal; use `inkpad write --stdin` to pipe content")
	}
	app := getApp(cmd)
	return tui.Run(cmd.Context(), tui.Deps{
		Session:    app.Session,
		Docs:       app.Docs,
		Theme:      app.Theme,
		Notices:    app.Notices,
		Log:        app.Log.Named("tui"),
		ShareBase:  app.Cfg.GetString("share.base_url"),
		ShareParam: app.Cfg.GetString("share.param"),
		ExportDir:  app.Cfg.GetString("export.dir"),
	})
}

type listItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	Bytes   int    `json:"bytes"`
	Hash    string `json:"hash"`
	Summary string `json:"summary"`
}

func newListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			col := getApp(cmd).Docs.Snapshot()
			items := make([]listItem, 0, len(col.Documents))
			for _, d := range col.Documents {
				items = append(items, listItem{
					ID:      d.ID,
					Name:    d.Name,
					Active:  d.ID == col.ActiveID,
					Bytes:   len(d.Content),
					Hash:    d.Hash(),
					Summary: editor.FirstLine(d.Content),
				})
			}
			switch strings.ToLower(output) {
			case "json":
				return json.NewEncoder(cmd.OutOrStdout()).Encode(items)
			case "plain", "":
				return writeList(cmd.OutOrStdout(), items)
			default:
				return fmt.Errorf("invalid --output: %s", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "plain", "output mode: plain|json")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func writeList(w io.Writer, items []listItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range items {
		mark := " "
		if it.Active {
			mark = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, it.ID, it.Name, it.Summary)
	}
	return tw.Flush()
}

func newShowCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:               "show [id|name]",
		Short:             "Display a document (the active one by default)",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			d, err := resolveDocument(app, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw || !isTerminal(out) {
				_, err := io.WriteString(out, d.Content)
				return err
			}
			width := min(terminalWidth(out, app.Cfg.GetInt("render.wrap")), app.Cfg.GetInt("render.wrap"))
			styled := render.Terminal(d.Content, width, app.Theme.Load(cmd.Context()))
			return withPager(cmd.Context(), out, cmd.ErrOrStderr(), func(w io.Writer) error {
				_, err := fmt.Fprintln(w, styled)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown source instead of the rendered preview")
	return cmd
}

func newNewCmd() *cobra.Command {
	var template, name string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a document and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			var (
				d   api.Document
				err error
			)
			if template != "" {
				d, err = app.Session.NewFromTemplate(ctx, template)
			} else {
				d, err = app.Session.NewDocument(ctx)
			}
			if err != nil {
				return err
			}
			if name != "" {
				if err := app.Session.Rename(ctx, d.ID, name); err != nil {
					return err
				}
				d, _ = app.Docs.Get(d.ID)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "start from a template (blog-post, project-readme, documentation-section)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name for the new document")
	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"blog-post", "project-readme", "documentation-section"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rename <id|name> <new-name>",
		Short:             "Rename a document",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			d, err := resolveDocument(app, args[:1])
			if err != nil {
				return err
			}
			if err := app.Session.Rename(cmd.Context(), d.ID, args[1]); err != nil {
				return err
			}
			printNotice(cmd, app)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id|name>",
		Aliases:           []string{"rm"},
		Short:             "Delete a document",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			d, err := resolveDocument(app, args)
			if err != nil {
				return err
			}
			if err := app.Session.Delete(cmd.Context(), d.ID); err != nil {
				return err
			}
			printNotice(cmd, app)
			return nil
		},
	}
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "use <id|query>",
		Short:             "Make a document active",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			d, err := resolveDocument(app, args)
			if err != nil {
				return err
			}
			if err := app.Session.Switch(cmd.Context(), d.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Now editing %s\n", d.Name)
			return nil
		},
	}
}

// resolveDocument picks the active document for no args, otherwise the
// document whose id matches or whose name best matches args[0].
func resolveDocument(app *wire.App, args []string) (api.Document, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return app.Docs.Active(), nil
	}
	matches := app.Docs.Find(args[0])
	if len(matches) == 0 {
		return api.Document{}, fmt.Errorf("%w: %q", documents.ErrNotFound, args[0])
	}
	return matches[0], nil
}

// printNotice echoes the visible notice, if any.
func printNotice(cmd *cobra.Command, app *wire.App) {
	if n, ok := app.Notices.Current(); ok {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), n.Message)
	}
}
