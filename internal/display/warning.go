package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// RestartHint tells the user how to refresh the editor's problems view.
const RestartHint = `Please restart the TS language server to update the problems view. (F1 + "TypeScript: Restart TS server" in VSCode)`

// maxListedFiles caps how many affected files a warning prints.
const maxListedFiles = 10

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning in yellow.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		for i, file := range w.Files {
			if i == maxListedFiles {
				b.WriteString(fmt.Sprintf("      ... and %d more\n", len(w.Files)-maxListedFiles))
				break
			}
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}

// RefreshWarning builds the warning shown after a run that patched count files.
func RefreshWarning(count int, files []string) Warning {
	return Warning{
		Title:      "The TypeScript problems view is out of date.",
		Message:    fmt.Sprintf("%d file(s) received the type-check marker; cached diagnostics for them are still shown.", count),
		Files:      files,
		Suggestion: RestartHint,
	}
}
