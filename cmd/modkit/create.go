package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modkit-dev/modkit/internal/config"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new project",
		Long: `Create a new modkit project with a starter page and module.

Examples:
  modkit create my-app
  cd my-app && modkit dev`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0])
		},
	}

	return cmd
}

// starterFiles are the files scaffolded into a new project.
var starterFiles = map[string]string{
	"index.html": `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{name}</title>
    <link rel="stylesheet" href="/src/style.css?direct">
</head>
<body>
    <h1 id="title">Hello from modkit</h1>
    <script type="module" src="/src/main.js"></script>
</body>
</html>
`,
	"src/main.js": `import { render } from './title.js'

render()

if (import.meta.hot) {
    import.meta.hot.accept(['./title.js'], ([mod]) => {
        mod.render()
    })
}
`,
	"src/title.js": `export function render() {
    document.querySelector('#title').textContent = 'Hello from modkit'
}
`,
	"src/style.css": `body {
    font-family: sans-serif;
    margin: 2rem;
}
`,
}

func runCreate(name string) error {
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %s already exists", name)
	}

	printBanner()
	fmt.Println()
	info("Creating %s...", name)

	for rel, content := range starterFiles {
		content = strings.ReplaceAll(content, "{name}", name)
		full := filepath.Join(name, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return err
		}
	}

	cfg := fmt.Sprintf("{\n  \"name\": %q\n}\n", name)
	if err := os.WriteFile(filepath.Join(name, config.ConfigFileName), []byte(cfg), 0644); err != nil {
		return err
	}

	fmt.Println()
	success("Created %s", name)
	fmt.Println()
	fmt.Println("  Next steps:")
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    modkit dev")
	fmt.Println()

	return nil
}
