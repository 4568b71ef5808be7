package cli

import (
	"os"

	"github.com/charmbracelet/huh"
)

// huhPrompter asks conflict questions on the terminal.
type huhPrompter struct{}

func (huhPrompter) Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Overwrite").
		Negative("Keep mine").
		Value(&ok).
		Run()
	return ok, err
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
