package outwriter

import (
	"os"

	"github.com/huangsam/gitpulse/internal/contract"
	"golang.org/x/term"
)

// Path column bounds in table output.
const (
	defaultTermWidth = 80
	minPathWidth     = 15
	maxPathWidth     = 70
	tableChrome      = 20 // borders, separators and padding
)

// GetMaxTablePathWidth calculates the maximum width for paths in a table whose
// other columns take fixedWidth characters.
func GetMaxTablePathWidth(cfg *contract.Config, fixedWidth int) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth // narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - fixedWidth - tableChrome
	return min(max(available, minPathWidth), maxPathWidth)
}
