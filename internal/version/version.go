package version

import "github.com/fatih/color"

// Version information for the quill CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI, each component tinted
	// so it stands out in `quill version` output.
	Version = color.New(color.FgMagenta, color.Bold).Sprint("0") + "." +
		color.New(color.FgCyan, color.Bold).Sprint("1") + "." +
		color.New(color.FgBlue, color.Bold).Sprint("0") + "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
