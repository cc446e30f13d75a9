// Command useradd creates an application user. There is no in-app
// registration; accounts are provisioned out of band with this tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"barstock/internal/config"
	"barstock/internal/domain/models"
	"barstock/internal/storage/postgres"
)

func main() {
	var username, password, roleStr string

	flag.StringVar(&username, "username", "", "username of the new user")
	flag.StringVar(&password, "password", "", "password of the new user")
	flag.StringVar(&roleStr, "role", "viewer", "role of the new user (viewer or editor)")

	_ = godotenv.Load()

	cfg := config.MustLoad()

	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		os.Exit(1)
	}

	role, ok := models.ParseRole(roleStr)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q: must be viewer or editor\n", roleStr)
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.DbUrl())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer storage.Stop()

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash password:", err)
		os.Exit(1)
	}

	if err := storage.SaveUser(context.Background(), username, passHash, role); err != nil {
		fmt.Fprintln(os.Stderr, "failed to save user:", err)
		os.Exit(1)
	}

	fmt.Printf("user %s created with role %s\n", username, role)
}
