// Package hashpw implements the password hashing tool used to provision
// user records for the identity backends.
package hashpw

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/password"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var (
	ErrMismatch      = errors.New("passwords do not match")
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Run parses args, obtains a password and writes its hash to stdout. Prompts
// and usage go to stderr.
//
//	-a string   algorithm: bcrypt (default) or argon2id
//	-cost int   bcrypt cost
//
// On a terminal the password is read twice without echo; otherwise a single
// line is read from stdin.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	algo := fs.String("a", "bcrypt", "hash algorithm (bcrypt|argon2id)")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var hasher password.Hasher
	switch strings.ToLower(*algo) {
	case "bcrypt":
		hasher = password.NewBcrypt(*cost)
	case "argon2id", "argon2":
		hasher = password.NewArgon2id()
	default:
		return fmt.Errorf("unknown algorithm %q", *algo)
	}

	pw, err := obtainPassword(stdin, stderr)
	if err != nil {
		return err
	}
	defer wipe(pw)

	hash, err := hasher.Hash(string(pw))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func obtainPassword(stdin io.Reader, w io.Writer) ([]byte, error) {
	if f, ok := stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := GetPassword(w, int(f.Fd()), "Enter password: ")
		if err != nil {
			return nil, err
		}
		confirm, err := GetPassword(w, int(f.Fd()), "Confirm password: ")
		if err != nil {
			wipe(pw)
			return nil, err
		}
		defer wipe(confirm)
		if !bytes.Equal(pw, confirm) {
			wipe(pw)
			return nil, ErrMismatch
		}
		if len(pw) == 0 {
			return nil, ErrEmptyPassword
		}
		return pw, nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, ErrEmptyPassword
	}
	return []byte(line), nil
}

// GetPassword prints prompt to w and reads a password from fd without echo.
// A newline is printed after the read to keep the output tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(w io.Writer, fd int, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
