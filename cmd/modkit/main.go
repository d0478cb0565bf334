package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌┬┐┬┌─┬┌┬┐
  ││││ │ ││├┴┐│ │
  ┴ ┴└─┘─┴┘┴ ┴┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "modkit",
		Short: "A dev server with hot module replacement",
		Long: `Modkit is a module-graph development server.

Serve ES modules straight from disk with hot module replacement,
then build and deploy a static bundle. Features include:

  • Hot module replacement over WebSocket
  • Self-accepting and dependency-accepting modules
  • CSS hot swapping without page reloads
  • Content-hashed production builds
  • One-command deploy to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		createCmd(),
		devCmd(),
		buildCmd(),
		deployCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the modkit ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
