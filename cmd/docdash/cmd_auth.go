package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

// readPassword prompts on stderr so stdout stays clean for scripting.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := app.session.Login(cmd.Context(), args[0], password); err != nil {
			return err
		}
		user := app.session.Current().User
		fmt.Fprintf(os.Stdout, "Logged in as %s (%s)\n", user.Email, user.Role)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		password, err := readPassword()
		if err != nil {
			return err
		}
		message, err := app.session.Signup(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, message)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		app.session.Logout()
		fmt.Fprintln(os.Stdout, "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		user := app.session.Current().User
		fmt.Fprintf(os.Stdout, "%s (%s)\n", user.Email, user.Role)
		return nil
	},
}
