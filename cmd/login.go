package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/s0up4200/tmdbfav/tmdb"
)

var (
	loginUsername string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store a session",
	Long: `Run the authentication chain (request token, login validation, session,
account) and store the resulting session for the other commands.

The password is prompted for without echo when it is not given and stdin is a
terminal. It is never written to disk.`,
	PreRunE: initializeApp,
	RunE:    runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Forget the stored session",
	PreRunE: initializeApp,
	RunE:    runLogout,
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the stored session",
	PreRunE: initializeApp,
	RunE:    runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username (default from auth.username)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds, err := readCredentials()
	if err != nil {
		return err
	}

	auth := tmdb.NewAuthenticator(client, observer, logger)

	var sess tmdb.Session
	err = auth.Login(cmd.Context(), creds, &sess)
	loop.Sync()
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := store.Save(sess); err != nil {
		return err
	}

	logger.Info().
		Int64("user_id", sess.UserID).
		Str("path", store.Path()).
		Msg("Session stored")

	return nil
}

// readCredentials collects the username and password from flags, config and the terminal
func readCredentials() (tmdb.Credentials, error) {
	creds := tmdb.Credentials{
		Username: loginUsername,
		Password: loginPassword,
	}
	if creds.Username == "" {
		creds.Username = cfg.Auth.Username
	}

	interactive := isTerminal(os.Stdin)

	if creds.Username == "" && interactive {
		fmt.Print("Username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return creds, fmt.Errorf("failed to read username: %w", err)
		}
		creds.Username = strings.TrimSpace(line)
	}

	if creds.Password == "" && interactive {
		fmt.Print("Password: ")
		password, err := terminal.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return creds, fmt.Errorf("failed to read password: %w", err)
		}
		creds.Password = string(password)
	}

	// Empty values are rejected by the authenticator without any request
	return creds, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Stored session is unreadable, removing it")
	}

	if err := store.Clear(); err != nil {
		return err
	}

	if sess.LoggedIn() {
		fmt.Printf("✓ Logged out (account %d)\n", sess.UserID)
	} else {
		fmt.Println("Not logged in")
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := store.Load()
	if err != nil {
		return err
	}

	if !sess.LoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("Account: %d\n", sess.UserID)
	fmt.Printf("Session: %s\n", maskSecret(sess.SessionID))
	fmt.Printf("Stored in: %s\n", store.Path())
	return nil
}

// maskSecret keeps only the last four characters
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
