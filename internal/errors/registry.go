package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// Registered codes.
const (
	CodeConfigRead    = "E100"
	CodeConfigParse   = "E101"
	CodeConfigInvalid = "E102"
	CodeConfigEnv     = "E103"
	CodeConfigWrite   = "E104"
	CodeServerListen  = "E200"
	CodeServerStop    = "E201"
	CodeUnknownStore  = "E300"
)

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (E100-E199)
	CodeConfigRead: {
		Category:   CategoryConfig,
		Message:    "Cannot read configuration file",
		Suggestion: "Check that skellyview.json exists and is readable, or run without --config to use defaults.",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "skellyview.json must be a single JSON object.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	CodeConfigEnv: {
		Category:   CategoryConfig,
		Message:    "Invalid environment override",
		Suggestion: "Check the SKELLYVIEW_* environment variables.",
	},
	CodeConfigWrite: {
		Category:   CategoryConfig,
		Message:    "Cannot write configuration file",
		Suggestion: "Check that the directory exists and is writable.",
	},

	// Server (E200-E299)
	CodeServerListen: {
		Category:   CategoryServer,
		Message:    "Inspector failed to listen",
		Suggestion: "Another process may be using the address; pass --addr to pick another one.",
	},
	CodeServerStop: {
		Category: CategoryServer,
		Message:  "Inspector did not shut down cleanly",
	},

	// CLI (E300-E399)
	CodeUnknownStore: {
		Category:   CategoryCLI,
		Message:    "Unknown store",
		Suggestion: "Valid stores are animation, renderer and fetch.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
