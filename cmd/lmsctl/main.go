package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ngenohkevin/lmsdesk/internal/config"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lmsctl",
		Short:        "Administrative helpers for the lmsdesk server",
		SilenceUsage: true,
	}
	root.AddCommand(newHashPasswordCmd(), newTokenCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	var stdin bool

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for auth.admin_password_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var password string
			var err error
			if stdin || !term.IsTerminal(int(syscall.Stdin)) {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd, "Password: ")
				if err == nil {
					var confirm string
					confirm, err = promptPassword(cmd, "Confirm password: ")
					if err == nil && confirm != password {
						err = errors.New("passwords do not match")
					}
				}
			}
			if err != nil {
				return err
			}

			hash, err := services.HashPassword(password, services.DefaultArgon2Config())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read the password from standard input without prompting")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		expiry  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if subject == "" {
				subject = cfg.Auth.AdminUsername
			}
			if expiry <= 0 {
				expiry = time.Duration(cfg.Auth.ExpiryHours) * time.Hour
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			authService, err := services.NewAuthService(services.AuthOptions{
				Secret:        cfg.Auth.JWTSecret,
				TokenExpiry:   expiry,
				AdminUsername: cfg.Auth.AdminUsername,
			}, logger, nil)
			if err != nil {
				return err
			}

			token, err := authService.GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (defaults to auth.admin_username)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (defaults to auth.expiry_hours)")
	return cmd
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
