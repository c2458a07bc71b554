// CLI tool to create an account with a bcrypt-hashed password, optionally
// with a starter profile so the user can request plans right away.
// Usage: go run ./cmd/create-user (from the repository root)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	username := prompt("Username: ")
	email := strings.ToLower(prompt("Email: "))
	password := prompt("Password: ")
	if username == "" || !strings.Contains(email, "@") || len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Username, a valid email and a password of at least 6 characters are required")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	var userID int
	err = conn.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES (@username, @email, @password) RETURNING id`,
		pgx.NamedArgs{"username": username, "email": email, "password": string(hash)},
	).Scan(&userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	// Weight / height / age left blank skips the profile.
	if weight := prompt("Weight kg (blank to skip profile): "); weight != "" {
		w, werr := strconv.ParseFloat(weight, 64)
		h, herr := strconv.ParseFloat(prompt("Height cm: "), 64)
		a, aerr := strconv.Atoi(prompt("Age: "))
		gender := strings.ToLower(prompt("Gender (male/female): "))
		level := prompt("Activity level (sedentary/light/moderate/active/very_active): ")
		if werr != nil || herr != nil || aerr != nil {
			fmt.Fprintln(os.Stderr, "Weight, height and age must be numbers")
			os.Exit(1)
		}
		_, err = conn.Exec(ctx,
			`INSERT INTO user_profiles (user_id, weight_kg, height_cm, age, gender, activity_level)
			 VALUES (@userID, @weight, @height, @age, @gender, @level)`,
			pgx.NamedArgs{"userID": userID, "weight": w, "height": h, "age": a, "gender": gender, "level": level})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating profile: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:       %d\n", userID)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Email:    %s\n", email)
}
