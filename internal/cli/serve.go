package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/server"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over HTTP with a live preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			addr := app.Cfg.GetString("http_addr")
			if listen != "" {
				addr = listen
			}
			if strings.TrimSpace(app.Cfg.GetString("auth.token")) == "" && !loopback(addr) {
				app.Log.Warn("serving without auth.token on a non-loopback address", zap.String("addr", addr))
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(app)
			defer srv.Close()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "inkpad listening on http://%s/\n", addr)
			return srv.Serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (override config http_addr)")
	return cmd
}

func loopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
