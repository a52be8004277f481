package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/pubqueue"
	"github.com/eringen/pubqueue/views"
)

// version is set at build time via ldflags.
var version = "dev"

var cfgFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pubqueue",
		Short:         "A content hub with a staging queue for new entries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", pubqueue.EnvOr("PUBQUEUE_CONFIG", ""),
		"YAML config file (PUBQUEUE_* environment variables override it)")

	root.AddCommand(serveCmd(), queueCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the pubqueue version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubqueue %s\n", version)
		},
	})
	return root
}

// newApp loads configuration and builds an App with the default views.
func newApp() (*pubqueue.App, error) {
	cfg, err := pubqueue.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	app := pubqueue.New(cfg, pubqueue.ViewFuncs{})
	app.Views = views.New(app.Config)
	return app, nil
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if addr != "" {
				app.Config.Addr = addr
			}
			return app.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
