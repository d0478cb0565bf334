package xerrors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Parse Errors (M001-M099)
	// ============================================

	"M001": {
		Category: CategoryParse,
		Message:  "Template interpolation in accepted dependency",
		Detail:   "import.meta.hot.accept() dependencies must be statically known string literals. Template strings with ${...} interpolation cannot be analyzed.",
		DocURL:   "https://modkit.dev/docs/errors/M001",
	},
	"M002": {
		Category: CategoryParse,
		Message:  "Invalid value in accepted dependency array",
		Detail:   "Arrays passed to import.meta.hot.accept() may only contain string literals.",
		DocURL:   "https://modkit.dev/docs/errors/M002",
	},
	"M003": {
		Category: CategoryParse,
		Message:  "Malformed HTML entry",
		Detail:   "The HTML entry document could not be parsed for module scripts.",
		DocURL:   "https://modkit.dev/docs/errors/M003",
	},

	// ============================================
	// Config Errors (M100-M199)
	// ============================================

	"M100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No modkit.json was found in this directory or any parent. Run `modkit dev` from a project root, or create a modkit.json.",
		DocURL:   "https://modkit.dev/docs/errors/M100",
	},
	"M101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "modkit.json exists but could not be parsed as JSON.",
		DocURL:   "https://modkit.dev/docs/errors/M101",
	},

	// ============================================
	// Graph Errors (M200-M299)
	// ============================================

	"M200": {
		Category: CategoryGraph,
		Message:  "Module not found",
		Detail:   "The requested module URL does not resolve to a file under the project root.",
		DocURL:   "https://modkit.dev/docs/errors/M200",
	},

	// ============================================
	// CLI Errors (M300-M399)
	// ============================================

	"M300": {
		Category: CategoryCLI,
		Message:  "Deploy target not configured",
		Detail:   "modkit deploy requires deploy.bucket to be set in modkit.json.",
		DocURL:   "https://modkit.dev/docs/errors/M300",
	},

	// ============================================
	// Build Errors (M400-M499)
	// ============================================

	"M400": {
		Category: CategoryBuild,
		Message:  "Build failed",
		Detail:   "The production build could not read a source or write to the output directory.",
		DocURL:   "https://modkit.dev/docs/errors/M400",
	},
}
