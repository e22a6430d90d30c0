package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/service"
	"golang.org/x/term"
)

const minPasswordLen = 8

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	// ─── CLI Input ─────────────────────────────────────────────────────
	fmt.Fprintln(os.Stderr, "=== Generate Reviewer Password Hash ===")

	password, err := readPassword("Enter Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}
	if len(password) < minPasswordLen {
		fmt.Fprintf(os.Stderr, "Error: Password must be at least %d characters\n", minPasswordLen)
		os.Exit(1)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		confirm, err := readPassword("Confirm Password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
			os.Exit(1)
		}
		if confirm != password {
			fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
			os.Exit(1)
		}
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Add this to your environment (reviewer: %s):\n", cfg.ReviewerUsername)
	fmt.Printf("REVIEWER_PASSWORD_HASH=%s\n", hash)
}

// readPassword reads without echo from a terminal, or one line from piped
// input.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Newline after password input
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
