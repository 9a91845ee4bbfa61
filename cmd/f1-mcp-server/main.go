// Command f1-mcp-server serves Formula One session data over the Model
// Context Protocol: on stdio by default, or over HTTP with the http
// subcommand.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rakeshgangwar/f1-mcp-server/internal/bridge"
	"github.com/rakeshgangwar/f1-mcp-server/internal/config"
	"github.com/rakeshgangwar/f1-mcp-server/internal/f1"
	"github.com/rakeshgangwar/f1-mcp-server/internal/logging"
	"github.com/rakeshgangwar/f1-mcp-server/internal/mcp"
	"github.com/rakeshgangwar/f1-mcp-server/internal/server"
)

const appName = "f1-mcp-server"

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Formula One data over the Model Context Protocol",
		Long: `f1-mcp-server exposes Formula One schedules, results, telemetry, and
standings as MCP tools. The analytics run in a Python FastF1 bridge
process; this server owns the protocol, the tool catalog, and process
supervision.

Without a subcommand it speaks MCP over stdio, the transport MCP
clients use when they spawn the server themselves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the tool catalog over HTTP instead of stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHTTP(cmd.Context(), configPath)
		},
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON and exit",
		RunE: func(*cobra.Command, []string) error {
			out, err := json.MarshalIndent(f1.NewCatalog().Tools(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("%s v%s\n", appName, version)
		},
	}

	rootCmd.AddCommand(httpCmd, toolsCmd, versionCmd)
	return rootCmd
}

// setup wires config, logging, the bridge runner, and the dispatcher.
func setup(configPath string) (config.Config, zerolog.Logger, *f1.Dispatcher, *bridge.Python, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, nil, err
	}
	runner := bridge.NewPython(bridge.Config{
		Bin:      cfg.Python.Bin,
		Script:   cfg.Python.Script,
		Timeout:  cfg.BridgeTimeout(),
		CacheDir: cfg.Python.CacheDir,
		Logger:   logger,
	})
	dispatcher := f1.NewDispatcher(f1.NewCatalog(), runner, logger)
	return cfg, logger, dispatcher, runner, nil
}

func runStdio(ctx context.Context, configPath string) error {
	_, logger, dispatcher, runner, err := setup(configPath)
	if err != nil {
		return err
	}
	defer runner.Close()

	logger.Info().Str("version", version).Msg("starting on stdio")
	srv := mcp.NewServer(dispatcher, logger, appName, version)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runHTTP(ctx context.Context, configPath string) error {
	cfg, logger, dispatcher, runner, err := setup(configPath)
	if err != nil {
		return err
	}
	defer runner.Close()

	if cfg.HTTP.Token == "" {
		logger.Warn().Msg("MCP_TOKEN not set; endpoints will be open")
	}
	srv := server.New(server.Config{
		Addr:           cfg.HTTP.Addr,
		Token:          cfg.HTTP.Token,
		TLSCert:        cfg.HTTP.TLSCert,
		TLSKey:         cfg.HTTP.TLSKey,
		RequestTimeout: httpRequestTimeout(cfg),
	}, dispatcher, logger)

	return srv.ListenAndServe(ctx)
}

// httpRequestTimeout leaves the bridge room to hit its own timeout first.
func httpRequestTimeout(cfg config.Config) time.Duration {
	bt := cfg.BridgeTimeout()
	if bt <= 0 {
		return 10 * time.Minute
	}
	return bt + 30*time.Second
}
