package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/coldvault/coldvault/internal/models"
)

var (
	errEmptyPassword = models.ErrEmptyPassword
	errEmptySecret   = errors.New("secret cannot be empty")
)

// readStdin reads the whole of stdin, trimming one trailing newline.
func readStdin() ([]byte, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}

// wipeBytes zeroes a secret the CLI no longer needs.
func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}

// promptNewPassword prompts for a password twice and verifies both match.
func promptNewPassword(prompt string) ([]byte, error) {
	password, err := promptPassword(prompt)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, errEmptyPassword
	}
	confirmed, err := promptPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(password) != string(confirmed) {
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

// promptLine reads one line of input with the prompt on stderr.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(prompt string) bool {
	answer, err := promptLine(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
