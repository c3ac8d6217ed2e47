package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// TerminalPrompter asks for archive passwords on the terminal.
type TerminalPrompter struct {
	// ask is swapped in tests
	ask func(title string) (string, error)
}

var _ ports.PasswordProvider = (*TerminalPrompter)(nil)

// NewTerminalPrompter creates a TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{ask: askHidden}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Password prompts for the password of an encrypted archive. Without a
// terminal it reports ErrNoPassword.
func (p *TerminalPrompter) Password(_ context.Context, contentHash string) (string, error) {
	if !p.IsInteractive() {
		return "", ports.ErrNoPassword
	}
	short := contentHash
	if len(short) > 12 {
		short = short[:12]
	}
	pw, err := p.ask(fmt.Sprintf("Password for encrypted asset %s", short))
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", ports.ErrNoPassword
	}
	return pw, nil
}

// NewPassword prompts for a new password twice, for sealing archives.
func (p *TerminalPrompter) NewPassword() (string, error) {
	if !p.IsInteractive() {
		return "", ports.ErrNoPassword
	}
	first, err := p.ask("Archive password")
	if err != nil {
		return "", err
	}
	second, err := p.ask("Repeat password")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	if first == "" {
		return "", ports.ErrNoPassword
	}
	return first, nil
}

func askHidden(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}
