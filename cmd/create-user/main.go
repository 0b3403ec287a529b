// CLI tool to create a dashboard user with a bcrypt-hashed password, optionally
// linked to a Telegram user id so /api/messages and the journal endpoints can
// act as that bot user.
// Usage: go run ./cmd/create-user (from the repo root)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	dbURL, err := config.DatabaseURL()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	conn, err := pgx.Connect(context.Background(), dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		s, _ := reader.ReadString('\n')
		return strings.TrimSpace(s)
	}

	username := prompt("Username: ")
	email := prompt("Email: ")
	password := prompt("Password: ")
	telegramUserID, err := parseTelegramID(prompt("Telegram user id (blank to skip): "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid Telegram user id: %v\n", err)
		os.Exit(1)
	}

	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Username and password are required")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	authToken := uuid.New().String()

	var userID int
	err = conn.QueryRow(context.Background(),
		`INSERT INTO users (username, email, password, auth_token, telegram_user_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		username, email, string(hash), authToken, telegramUserID,
	).Scan(&userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:            %d\n", userID)
	fmt.Printf("  Username:      %s\n", username)
	if telegramUserID != nil {
		fmt.Printf("  Telegram user: %d\n", *telegramUserID)
	}
	fmt.Printf("  Auth Token:    %s\n", authToken)
}

// parseTelegramID returns nil for blank input.
func parseTelegramID(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("must be positive, got %d", id)
	}
	return &id, nil
}
