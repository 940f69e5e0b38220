package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"expense_tribute/internal/backend"
	"expense_tribute/internal/config"
	"expense_tribute/internal/log"
	"expense_tribute/internal/model"
	"expense_tribute/internal/service"
	"expense_tribute/internal/utils"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	admin := fs.Bool("admin", false, "Grant admin privileges, promoting an existing account with this email")
	dataDir := fs.String("data-dir", "", "Use the file backend in this directory instead of STORAGE_BACKEND")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -username <name> -email <email> [-password <password>] [-admin] [-data-dir <dir>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: username, email")
	}

	cfg := config.Load()
	if *dataDir != "" {
		cfg.StorageBackend = config.BackendFile
		cfg.DataDir = *dataDir
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	ctx := context.Background()
	logger := log.Nop()

	store, err := backend.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	// Tokens are never issued here, so the signing key is irrelevant.
	auth := service.NewAuthService(store.Users, utils.NewJWTUtil("", utils.TokenTTL), model.NewAllowlist(cfg.AdminEmails), logger)

	// -admin on an existing account promotes it instead of failing.
	if *admin {
		user, err := auth.SetAdmin(ctx, *email, true)
		if err == nil {
			fmt.Fprintf(stdout, "User %s promoted to admin (ID %s)\n", user.Username, user.ID)
			return nil
		}
		if !errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("failed to promote user: %w", err)
		}
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	user, err := auth.CreateUser(ctx, model.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: password,
	}, *admin)
	if err != nil {
		var vErr *model.ValidationError
		switch {
		case errors.As(err, &vErr):
			return vErr
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrUserAlreadyExists):
			return fmt.Errorf("user %s already exists: %w", *username, err)
		default:
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(stdout, "User %s created successfully with ID %s (%s)\n", user.Username, user.ID, role)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
