package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modkit-dev/modkit/internal/build"
	"github.com/modkit-dev/modkit/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		output string
		minify bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Build the project for production deployment.

This command:
  • Rewrites relative imports to root-relative URLs
  • Emits js and css under content-hashed names
  • Rewrites pages to reference the hashed names
  • Generates an asset manifest

Examples:
  modkit build
  modkit build --output=dist
  modkit build --minify=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, minify)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from modkit.json)")
	cmd.Flags().BoolVar(&minify, "minify", true, "Minify output")

	return cmd
}

func runBuild(output string, minify bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if output != "" {
		cfg.Build.Output = output
	}

	fmt.Println("  Building for production...")
	fmt.Println()

	builder := build.New(cfg, build.Options{
		Minify: minify,
		OnProgress: func(step string) {
			info("%s", step)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build complete in %s", result.Duration.Round(1000000))
	info("%d files, %s → %s/", result.Files, formatBytes(result.TotalSize), cfg.Build.Output)
	fmt.Println()

	return nil
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
