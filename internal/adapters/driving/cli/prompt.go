package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// completeIdentity asks for a missing username or password when stdin is a
// terminal. Non-interactive runs must supply both.
func completeIdentity(cmd *cobra.Command, identity *domain.Identity) error {
	if identity.Class != domain.IdentityUser || identity.User == nil {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	if identity.User.Username == "" {
		name, err := readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Username: ")
		if err != nil {
			return err
		}
		identity.User.Username = name
	}
	if identity.User.Password == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", identity.User.Username)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		identity.User.Password = string(secret)
	}
	return nil
}

// readLine prints prompt and returns one trimmed line from in.
func readLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	answer, err := readLine(in, out, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
