package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/store"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := bufio.NewReader(os.Stdin)

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return errors.New("an email address is required")
	}

	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("a password is required")
	}

	result, err := a.client.Login(ctx, email, password)
	if err != nil {
		var rejected *backend.RejectedError
		switch {
		case errors.Is(err, backend.ErrUnauthorized):
			return errors.New("login failed: wrong email or password")
		case errors.As(err, &rejected) && rejected.Message != "":
			return fmt.Errorf("login failed: %s", rejected.Message)
		case errors.Is(err, backend.ErrUnreachable):
			return errors.New("unable to connect to WOFA AI")
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if err := a.store.Set(ctx, store.KeyToken, result.Token); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	name := result.User.Name
	if name == "" {
		name = email
	}
	fmt.Printf("Logged in as %s.\n", name)
	return nil
}
