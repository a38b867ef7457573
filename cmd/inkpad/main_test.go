package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inkpad/internal/cli"
	"github.com/mithrel/inkpad/internal/config"
	"github.com/mithrel/inkpad/internal/server"
	"github.com/mithrel/inkpad/internal/wire"
)

// runCLI executes the CLI with the given args and returns stdout, stderr, and error.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cli.Run(cmd)
	return outBuf.String(), errBuf.String(), err
}

func TestE2E_CLIThenServer(t *testing.T) {
	// 1. Setup environment
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))

	cfgPath := filepath.Join(tmpDir, "config.yaml")
	cfgContent := "data_dir: \"" + dataDir + "\"\n"
	cfgContent += "log:\n  level: \"off\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0o600))

	// 2. Author through the CLI
	t.Run("Write From Stdin", func(t *testing.T) {
		out, _, err := runCLI(t, "", "--config", cfgPath, "new", "--name", "Release.md")
		require.NoError(t, err)
		assert.Contains(t, out, "Release.md")

		_, _, err = runCLI(t, "# Release\n\n- [x] tag", "--config", cfgPath, "write", "--stdin")
		require.NoError(t, err)
	})

	// 3. Serve the same store
	v := viper.New()
	v.SetConfigFile(cfgPath)
	require.NoError(t, config.Load(context.Background(), v))
	app, err := wire.BuildApp(context.Background(), v)
	require.NoError(t, err)
	srv := server.New(app)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		_ = app.Close()
	})

	t.Run("Preview Rendered Over HTTP", func(t *testing.T) {
		id := app.Docs.Active().ID
		resp, err := http.Get(ts.URL + "/v1/documents/" + id + "/preview")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "Release</h1>")
		assert.Contains(t, string(body), "checkbox")
	})

	t.Run("Index Lists Both Documents", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Untitled 1.md")
		assert.Contains(t, string(body), "Release.md")
	})
}
