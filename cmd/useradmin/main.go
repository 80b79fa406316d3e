// Command useradmin manages accounts in the snapstream API database
// without going through the HTTP API: listing users, creating
// accounts, and resetting passwords at the terminal.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"snapstream/internal/database"
	"snapstream/internal/media"
)

const (
	defaultTimeout = 30 * time.Second
	defaultDataDir = "./data"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "snapstream.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "list":
		ok = listUsers(ctx, db)
	case "create":
		ok = createUser(ctx, db, os.Args[2:])
	case "resetpw":
		ok = resetPassword(ctx, db, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string
// for display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("SnapStream Account Management")
	fmt.Println("")
	fmt.Println("Usage: useradmin <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List all accounts")
	fmt.Println("  create <email> [name]     - Create an account (prompts for password)")
	fmt.Println("  resetpw <email>           - Reset an account password")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to the data directory (default: %s)\n", defaultDataDir)
}

func listUsers(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	users, err := db.ListUsers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list users: %v\n", err)
		return false
	}

	fmt.Printf("%-40s %-30s %-6s %s\n", "EMAIL", "NAME", "ROLE", "LAST LOGIN")
	for _, u := range users {
		lastLogin := u.LastLogin
		if lastLogin == "" {
			lastLogin = "-"
		}
		fmt.Printf("%-40s %-30s %-6s %s\n", u.Email, u.Name, u.Role, lastLogin)
	}
	return true
}

func createUser(ctx context.Context, db *database.Database, args []string) bool {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: create requires an email address")
		return false
	}
	email := args[0]
	name := email
	if len(args) > 1 {
		name = args[1]
	}

	password, ok := promptPassword()
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	user, err := db.CreateUser(ctx, "user-"+uuid.NewString(), name, email, password, media.RoleUser)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create user: %v\n", err)
		return false
	}
	fmt.Printf("Created account %s (%s)\n", user.Email, user.ID)
	return true
}

func resetPassword(ctx context.Context, db *database.Database, args []string) bool {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: resetpw requires an email address")
		return false
	}
	email := args[0]

	password, ok := promptPassword()
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.SetPassword(ctx, email, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to update password: %v\n", err)
		return false
	}
	fmt.Println("Password updated successfully.")
	return true
}

func promptPassword() (string, bool) {
	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return "", false
	}
	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		return "", false
	}
	return string(password), true
}
