package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNoPassword = errors.New("--password is required when stdin is not a terminal")

// resolvePassword returns flagValue, or reads a password from the terminal
// without echo when the flag was left empty.
func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}

	cmd.Print("Password: ")
	first, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	cmd.Print("Repeat password: ")
	second, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
