package profiler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/versyx/prospector/internal/api"
	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/logger"
	"github.com/versyx/prospector/internal/repository/tokens"
)

var errEmptyCredentials = errors.New("email and password must not be empty")

// LoginOptions are inputs accepted by the login entry point.
type LoginOptions struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Email is the account email. Prompted for when empty.
	Email string
	// Password is the account password. Prompted for without echo when empty.
	Password string
}

// Login authenticates against the API and stores the token pair.
func Login(ctx context.Context, opts *LoginOptions) error {
	ctx = logger.WithName(ctx, "prospector")

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	email, password, err := resolveCredentials(opts)
	if err != nil {
		return err
	}

	client, err := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	pair, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err = tokens.Resolve(cfg.ReportDir).Save(ctx, pair); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	logger.InfoKV(ctx, "Logged in", "email", email)

	return nil
}

// Logout drops the stored token pair.
func Logout(ctx context.Context, configPath string) error {
	ctx = logger.WithName(ctx, "prospector")

	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err = tokens.Resolve(cfg.ReportDir).Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}

	logger.Info(ctx, "Logged out")

	return nil
}

// resolveCredentials fills missing credentials from an interactive prompt.
func resolveCredentials(opts *LoginOptions) (email, password string, err error) {
	email = strings.TrimSpace(opts.Email)
	if email == "" {
		if email, err = promptLine("Email: "); err != nil {
			return "", "", err
		}
	}

	password = opts.Password
	if password == "" {
		if password, err = promptPassword("Password: "); err != nil {
			return "", "", err
		}
	}

	if email == "" || password == "" {
		return "", "", errEmptyCredentials
	}

	return email, password, nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it to the terminal.
func promptPassword(label string) (string, error) {
	fmt.Print(label)

	contents, err := term.ReadPassword(int(os.Stdin.Fd()))

	fmt.Println()

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(contents)), nil
}
