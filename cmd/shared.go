package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/habedi/rentdesk/auth"
	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/config"
	"github.com/habedi/rentdesk/db"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cfgFile is set by the --config persistent flag.
var cfgFile string

// exitCode is the status Execute exits with after the command returns.
var exitCode int

// session bundles everything a command needs to talk to the backend.
type session struct {
	cfg  config.Config
	api  *client.Client
	auth *auth.Service
}

// openSession loads the configuration and builds a client on top of the stored slots.
func openSession() (*session, error) {
	cfg, err := config.Load(db.DataDir(), cfgFile)
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}

	repo := db.NewSlotRepository(db.GetDB())
	api, err := client.New(cfg.APIURL.String(), repo,
		client.WithTimeout(cfg.Timeout),
		client.WithDownloadRateLimit(cfg.DownloadRate),
	)
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}

	return &session{cfg: cfg, api: api, auth: auth.NewServiceWithRepo(api, repo)}, nil
}

// requireSession is openSession plus a check that someone is logged in.
// It reports the failure itself, so callers just return when ok is false.
func requireSession(cmd *cobra.Command) (*session, bool) {
	s, err := openSession()
	if err != nil {
		fail(cmd, err)
		return nil, false
	}
	loggedIn, err := s.auth.HasSession(cmd.Context())
	if err != nil {
		fail(cmd, err)
		return nil, false
	}
	if !loggedIn {
		fail(cmd, auth.ErrNotLoggedIn)
		return nil, false
	}
	return s, true
}

// fail prints err the way users should see it and records the exit code.
func fail(cmd *cobra.Command, err error) {
	ce := toCLIError(err)
	log.Error().Err(err).Str("type", string(ce.Type)).Msg("Command failed")
	cmd.PrintErrln("Error:", ce.Message)
	exitCode = ce.ExitCode()
}

// invalid marks err as bad user input.
func invalid(err error) error {
	return clierr.New(clierr.Validation, err.Error(), err)
}

func toCLIError(err error) *clierr.Error {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return ce
	}

	var loginErr *auth.LoginError
	if errors.As(err, &loginErr) {
		return clierr.New(clierr.Auth, loginErr.Message, err)
	}
	if errors.Is(err, client.ErrSessionExpired) {
		return clierr.New(clierr.Auth, "Your session has expired. Run 'rentdesk login' to sign in again.", err)
	}
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return clierr.New(clierr.Auth, "You are not logged in. Run 'rentdesk login' first.", err)
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return clierr.New(clierr.NotFound, apiErr.Message("not found"), err)
		case http.StatusBadRequest:
			return clierr.New(clierr.Validation, apiErr.Message("the backend rejected the request"), err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return clierr.New(clierr.Auth, apiErr.Message("permission denied"), err)
		default:
			return clierr.New(clierr.API, apiErr.Message(fmt.Sprintf("backend error (HTTP %d)", apiErr.StatusCode)), err)
		}
	}
	return clierr.New(clierr.Internal, err.Error(), err)
}

// parseID reads a positional ID argument.
func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, invalid(fmt.Errorf("invalid %s ID %q: it must be a positive integer", kind, arg))
	}
	if err := validation.ValidateID(kind, id); err != nil {
		return 0, invalid(err)
	}
	return id, nil
}

// newTable returns a table with the layout every listing uses.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// printFields renders label/value pairs as a two-column table.
func printFields(w io.Writer, fields [][2]string) {
	table := newTable(w, "Field", "Value")
	for _, f := range fields {
		table.Append([]string{f[0], f[1]})
	}
	table.Render()
}

func money(amount float64) string {
	return fmt.Sprintf("%.2f €", amount)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// promptForInput prints prompt and returns the trimmed line read from reader.
func promptForInput(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	cmd.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptForPassword reads a password without echo when stdin is a terminal.
// Piped input is read as a plain line.
func promptForPassword(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print(prompt)
		password, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(password)), nil
	}
	return promptForInput(cmd, reader, prompt)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(cmd *cobra.Command, reader *bufio.Reader, question string) bool {
	answer, err := promptForInput(cmd, reader, question+" [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
