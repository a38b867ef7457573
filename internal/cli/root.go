package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/inkpad/internal/config"
	"github.com/mithrel/inkpad/internal/wire"
)

type ctxKey string

const (
	appKey  ctxKey = "app"
	slotKey ctxKey = "app-slot"
)

// appSlot lets Run close the app a command opened, even when it fails.
type appSlot struct{ app *wire.App }

const (
	// annotationNoApp marks commands that run without opening the store.
	annotationNoApp = "inkpad/no-app"
	// annotationTUI marks commands that take over the terminal; their logs go to a file.
	annotationTUI = "inkpad/tui"
)

// rootOverrides maps persistent flags onto config keys.
var rootOverrides = map[string]string{
	"data-dir":  "data_dir",
	"store-url": "store_url",
	"log-level": "log.level",
}

// Execute is the entrypoint: it builds the root cobra.Command
// and calls its Execute() method to run the CLI.
func Execute() error {
	return Run(NewRootCmd())
}

// Run executes root and closes the app the command built. Cobra skips
// PersistentPostRunE when RunE fails, so the teardown lives here.
func Run(root *cobra.Command) error {
	slot := &appSlot{}
	ctx := context.WithValue(cmdContext(root), slotKey, slot)
	err := root.ExecuteContext(ctx)
	if slot.app != nil {
		if cerr := slot.app.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "inkpad",
		Short:         "inkpad: a local-first Markdown editor",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		Annotations:   map[string]string{annotationTUI: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if hasAnnotation(cmd, annotationNoApp) {
				return nil
			}
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			ctx := cmdContext(cmd)
			if err := config.Load(ctx, v); err != nil {
				return err
			}
			applyConfigFlagOverrides(cmd, v, rootOverrides)
			if err := config.CheckConfigValidity(v); err != nil {
				return err
			}
			if cmd.Annotations[annotationTUI] != "" && v.GetString("log.file") == "" {
				v.Set("log.file", filepath.Join(v.GetString("data_dir"), "inkpad.log"))
			}
			// Wire up the app and stash it in context for subcommands.
			app, err := wire.BuildApp(ctx, v)
			if err != nil {
				return err
			}
			if slot, ok := ctx.Value(slotKey).(*appSlot); ok {
				slot.app = app
			}
			cmd.SetContext(context.WithValue(ctx, appKey, app))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive(cmd) {
				return cmd.Help()
			}
			return runEdit(cmd, args)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml)")
	cmd.PersistentFlags().String("data-dir", "", "override data_dir")
	cmd.PersistentFlags().String("store-url", "", "override store_url (mem://, sqlite://, redis://, postgres://)")
	cmd.PersistentFlags().String("log-level", "", "override log.level")

	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newWriteCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newThemeCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	return cmd
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] != "" {
			return true
		}
	}
	return false
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func appFrom(cmd *cobra.Command) (*wire.App, bool) {
	app, ok := cmdContext(cmd).Value(appKey).(*wire.App)
	return app, ok
}

func getApp(cmd *cobra.Command) *wire.App {
	app, ok := appFrom(cmd)
	if !ok {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return app
}
