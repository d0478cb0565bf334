package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modkit-dev/modkit/internal/config"
	"github.com/modkit-dev/modkit/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port    int
		host    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot module replacement.

The dev server watches for file changes, propagates updates through
the module graph, and hot-swaps modules in connected browsers.
Changes without a hot-update boundary fall back to a full reload.

Examples:
  modkit dev
  modkit dev --port=8080
  modkit dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, verbose)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from modkit.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from modkit.json)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every file change")

	return cmd
}

func runDev(port int, host string, verbose bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server := dev.NewServer(dev.ServerOptions{
		Config:  cfg,
		Verbose: verbose,
		OnUpdate: func(clients int) {
			success("Updated %d browsers", clients)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
		server.Stop()
	}()

	return server.Start(ctx)
}
