package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/session"
)

// PasswordEnv supplies the login password when --password is not given.
const PasswordEnv = "MANAGE_PASSWORD"

func (r *runner) loginCommand() *cobra.Command {
	var account, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			c, err := r.app()
			if err != nil {
				return err
			}
			res, err := c.Bootstrap.SignIn(cmd.Context(), account, password)
			if err != nil {
				return err
			}
			if !res.Ready() {
				_, _ = fmt.Fprintf(r.opts.Stderr, "login: signed in but the role could not be resolved\n")
				return errRedirected
			}
			_, _ = fmt.Fprintf(r.opts.Stdout, "signed in as %s (%s)\n", displayName(res.UserName, account), res.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account name")
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to $"+PasswordEnv+")")
	return cmd
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := r.app()
			if err != nil {
				return err
			}
			if err := c.Bootstrap.SignOut(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(r.opts.Stdout, "signed out")
			return nil
		},
	}
}

// ErrCodeMismatch is returned when the entered verification code differs
// from the one the server issued.
var ErrCodeMismatch = errors.New("register: verification code mismatch")

func (r *runner) registerCommand() *cobra.Command {
	var in auth.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account by email",
		Long: "Register checks that the email is free, requests a verification code\n" +
			"and reads the code from standard input before creating the account.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := r.app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			check, err := c.Auth.CheckEmailRegistered(ctx, in.Email)
			if err != nil {
				return err
			}
			if check.Registered {
				return fmt.Errorf("register: %s is already registered", in.Email)
			}
			issued, err := c.Auth.SendVerificationCode(ctx, in.Email)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(r.opts.Stderr, "%s\nverification code: ", issued.Message)
			entered, err := bufio.NewReader(r.opts.Stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("register: read code: %w", err)
			}
			if strings.TrimSpace(entered) != issued.Code {
				return ErrCodeMismatch
			}
			ack, err := c.Auth.Register(ctx, in)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	return cmd
}

func (r *runner) sendCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send-code <email>",
		Short: "Request a verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.app()
			if err != nil {
				return err
			}
			res, err := c.Auth.SendVerificationCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(r.opts.Stdout, res.Message)
			return nil
		},
	}
}

func (r *runner) recoverCommand() *cobra.Command {
	var in auth.Recovery
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset the password of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := r.app()
			if err != nil {
				return err
			}
			ack, err := c.Auth.RecoverAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.NewPassword, "new-password", "", "new password")
	return cmd
}

type statusReport struct {
	SignedIn  bool       `json:"signed_in"`
	Role      string     `json:"role,omitempty"`
	UserName  string     `json:"username,omitempty"`
	UserID    int64      `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

func (r *runner) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := r.status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(r.opts.Stdout, report)
		},
	}
}

func (r *runner) status(ctx context.Context) (statusReport, error) {
	c, err := r.app()
	if err != nil {
		return statusReport{}, err
	}
	boot, err := c.Bootstrap.Init(ctx)
	if err != nil {
		return statusReport{}, err
	}
	report := statusReport{SignedIn: boot.Ready(), Role: string(boot.Role), UserName: boot.UserName}

	token := c.Session.Token()
	if token == "" {
		return report, nil
	}
	claims, err := session.InspectToken(token)
	if err != nil {
		c.Logger.Debug("token is not a jwt", "error", err)
		return report, nil
	}
	report.UserID = claims.UserID
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		report.ExpiresAt = &exp
		report.Expired = claims.Expired(time.Now())
	}
	return report, nil
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
