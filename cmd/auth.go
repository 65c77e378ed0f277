package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habedi/rentdesk/auth"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd exchanges a username and password for a token pair and stores it.
func loginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the rentdesk backend",
		Long:  "Log in with your username and password. The tokens are stored locally and refreshed automatically.",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession()
			if err != nil {
				fail(cmd, err)
				return
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = promptForInput(cmd, reader, "Username: "); err != nil {
					fail(cmd, err)
					return
				}
			}
			password, err := promptForPassword(cmd, reader, "Password: ")
			if err != nil {
				fail(cmd, err)
				return
			}

			user, err := s.auth.Login(cmd.Context(), username, password)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Logged in as %s (%s).\n", user.Username, user.Role)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username; prompted for when empty")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession()
			if err != nil {
				fail(cmd, err)
				return
			}
			if err := s.auth.Logout(cmd.Context()); err != nil {
				fail(cmd, err)
				return
			}
			cmd.Println("Logged out.")
		},
	}
}

// statusCmd shows what is stored locally. With --check it also asks the backend who we are.
func statusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession()
			if err != nil {
				fail(cmd, err)
				return
			}

			st, err := s.auth.Status(cmd.Context(), time.Now())
			if err != nil {
				fail(cmd, err)
				return
			}
			if !st.LoggedIn {
				cmd.Println("Not logged in.")
				return
			}

			cmd.Println("Logged in as:", orDash(st.Username))
			cmd.Println("Backend:", s.cfg.APIURL.String())
			cmd.Println("Access token:", describeToken(st.Access))
			cmd.Println("Refresh token:", describeToken(st.Refresh))

			if check {
				user, err := s.auth.Restore(cmd.Context())
				if err != nil {
					fail(cmd, err)
					return
				}
				cmd.Printf("Session is valid for %s <%s> (%s).\n", user.Username, user.Email, user.Role)
			}
		},
	}

	cmd.Flags().BoolVarP(&check, "check", "c", false, "Verify the session against the backend")

	return cmd
}

func describeToken(info auth.TokenInfo) string {
	switch {
	case info.HasExpiry && !info.Valid:
		return "expired at " + info.ExpiresAt.Local().Format(time.DateTime)
	case info.HasExpiry:
		return "valid until " + info.ExpiresAt.Local().Format(time.DateTime)
	case info.Valid:
		return "no expiry"
	default:
		return "missing or unreadable"
	}
}

func registerCmd() *cobra.Command {
	var req auth.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession()
			if err != nil {
				fail(cmd, err)
				return
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			if req.Username == "" {
				if req.Username, err = promptForInput(cmd, reader, "Username: "); err != nil {
					fail(cmd, err)
					return
				}
			}
			password, err := promptForPassword(cmd, reader, "Password: ")
			if err != nil {
				fail(cmd, err)
				return
			}
			again, err := promptForPassword(cmd, reader, "Repeat password: ")
			if err != nil {
				fail(cmd, err)
				return
			}
			if password != again {
				fail(cmd, clierr.New(clierr.Validation, "Passwords do not match.", nil))
				return
			}
			if strings.TrimSpace(req.Username) == "" || password == "" {
				fail(cmd, invalid(errors.New("username and password cannot be empty")))
				return
			}
			req.Password = password

			if err := s.auth.Register(cmd.Context(), req); err != nil {
				fail(cmd, registerError(err))
				return
			}
			log.Info().Str("username", req.Username).Msg("Registered new account")
			cmd.Printf("Account %s created. Run 'rentdesk login' to sign in.\n", req.Username)
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username; prompted for when empty")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "E-mail address")
	cmd.Flags().StringVarP(&req.Role, "role", "r", "owner", fmt.Sprintf("Account role %v", auth.Roles))

	return cmd
}

// registerError keeps the backend's message but files it as a validation problem.
func registerError(err error) error {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return err
	}
	return clierr.New(clierr.Validation, err.Error(), err)
}
